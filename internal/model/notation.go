package model

import (
	"fmt"

	"github.com/benbeisheim/chess-referee/internal/referee"
)

// notation renders a ply in SAN. board is the position before the move and
// status the position's status after it.
func notation(board referee.BoardState, mv referee.Move, res referee.MoveResult, status referee.Status) string {
	var san string
	switch {
	case res.Kind == referee.KindCastle && mv.To.File == 6:
		san = "O-O"
	case res.Kind == referee.KindCastle:
		san = "O-O-O"
	default:
		capture := ""
		if res.Captured != nil {
			capture = "x"
		}
		prefix := mv.Piece.Type.Notation()
		if mv.Piece.Type == referee.Pawn {
			if capture != "" {
				prefix = mv.From.FileNotation()
			}
		} else {
			prefix += disambiguation(board, mv)
		}
		san = fmt.Sprintf("%s%s%s", prefix, capture, mv.To)
		if res.Kind == referee.KindPromotion {
			san += "=" + mv.Promotion.Notation()
		}
	}

	switch status {
	case referee.StatusCheckmate:
		san += "#"
	case referee.StatusCheck:
		san += "+"
	default:
		if res.GivesCheck {
			san += "+"
		}
	}
	return san
}

// disambiguation returns the origin file, rank or square needed when another
// piece of the same type could also reach the destination.
func disambiguation(board referee.BoardState, mv referee.Move) string {
	moves, err := referee.AllLegalMoves(board, mv.Piece.Team)
	if err != nil {
		return ""
	}
	sameFile, sameRank, rivals := false, false, false
	for _, other := range moves {
		if other.To != mv.To || other.From == mv.From || other.Piece.Type != mv.Piece.Type {
			continue
		}
		rivals = true
		if other.From.File == mv.From.File {
			sameFile = true
		}
		if other.From.Rank == mv.From.Rank {
			sameRank = true
		}
	}
	switch {
	case !rivals:
		return ""
	case !sameFile:
		return mv.From.FileNotation()
	case !sameRank:
		return fmt.Sprintf("%d", mv.From.Rank+1)
	}
	return mv.From.String()
}
