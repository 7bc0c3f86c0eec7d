package referee

import (
	"fmt"

	"github.com/notnil/chess"
)

var fenPieceTypes = map[chess.PieceType]PieceType{
	chess.King:   King,
	chess.Queen:  Queen,
	chess.Rook:   Rook,
	chess.Bishop: Bishop,
	chess.Knight: Knight,
	chess.Pawn:   Pawn,
}

// FromFEN builds a board and the side to move from a FEN string. Castling
// rights become HasMoved flags on kings and rooks, and an en passant square
// becomes the double pawn advance that produced it.
func FromFEN(fen string) (BoardState, Team, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return BoardState{}, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	pos := chess.NewGame(opt).Position()
	rights := pos.CastleRights()

	board := BoardState{Pieces: []Piece{}}
	for sq, pc := range pos.Board().SquareMap() {
		p := Piece{
			Type:   fenPieceTypes[pc.Type()],
			Team:   fenTeam(pc.Color()),
			Square: Square{File: int(sq.File()), Rank: int(sq.Rank())},
		}
		switch p.Type {
		case King:
			p.HasMoved = p.Square != (Square{File: 4, Rank: p.Team.homeRank()}) ||
				!(rights.CanCastle(pc.Color(), chess.KingSide) || rights.CanCastle(pc.Color(), chess.QueenSide))
		case Rook:
			p.HasMoved = !rookHasRight(p, rights, pc.Color())
		}
		board.Pieces = append(board.Pieces, p)
	}
	if _, err := newGrid(board); err != nil {
		return BoardState{}, "", err
	}

	toMove := fenTeam(pos.Turn())
	if ep := pos.EnPassantSquare(); ep != chess.NoSquare {
		mover := toMove.Opponent()
		target := Square{File: int(ep.File()), Rank: int(ep.Rank())}
		from := Square{File: target.File, Rank: target.Rank - mover.forward()}
		to := Square{File: target.File, Rank: target.Rank + mover.forward()}
		if pawn, ok := board.PieceAt(to); ok && pawn.Type == Pawn && pawn.Team == mover {
			pawn.Square = from
			board.LastMove = &Move{From: from, To: to, Piece: pawn}
		}
	}
	return board, toMove, nil
}

func rookHasRight(p Piece, rights chess.CastleRights, color chess.Color) bool {
	if p.Square.Rank != p.Team.homeRank() {
		return false
	}
	switch p.Square.File {
	case 7:
		return rights.CanCastle(color, chess.KingSide)
	case 0:
		return rights.CanCastle(color, chess.QueenSide)
	}
	return false
}

func fenTeam(c chess.Color) Team {
	if c == chess.Black {
		return Black
	}
	return White
}
