// Package referee decides whether a chess move is legal on a given board.
//
// Every function is pure: the board snapshot passed in is only read, and no
// state survives between calls, so concurrent use needs no locking.
package referee

import "fmt"

// IsLegal checks move against board. A rule violation is reported through
// MoveResult.Legal and MoveResult.Reason; only malformed input returns an
// error, which wraps ErrInvalidInput.
func IsLegal(board BoardState, move Move) (MoveResult, error) {
	g, err := newGrid(board)
	if err != nil {
		return MoveResult{}, err
	}
	p, err := g.mover(move)
	if err != nil {
		return MoveResult{}, err
	}

	if target := g.at(move.To); target != nil && target.Team == p.Team {
		return MoveResult{Reason: ReasonOwnPiece}, nil
	}
	for _, c := range g.candidates(p, board.LastMove) {
		if c.to != move.To {
			continue
		}
		if c.kind == KindPromotion {
			c.promoteTo = move.Promotion
		}
		return g.verdict(p, c), nil
	}
	return MoveResult{Reason: ReasonPattern}, nil
}

// mover checks the move's shape and returns the board's piece on move.From.
func (g *grid) mover(move Move) (*Piece, error) {
	if !move.From.Valid() || !move.To.Valid() {
		return nil, fmt.Errorf("%w: move %+v -> %+v leaves the board", ErrInvalidInput, move.From, move.To)
	}
	if move.From == move.To {
		return nil, fmt.Errorf("%w: move from %s to itself", ErrInvalidInput, move.From)
	}
	p := g.at(move.From)
	if p == nil {
		return nil, fmt.Errorf("%w: no piece on %s", ErrInvalidInput, move.From)
	}
	if p.Type != move.Piece.Type || p.Team != move.Piece.Team || move.Piece.Square != move.From {
		return nil, fmt.Errorf("%w: %s %s on %s does not match move piece %s %s on %s",
			ErrInvalidInput, p.Team, p.Type, p.Square, move.Piece.Team, move.Piece.Type, move.Piece.Square)
	}
	if move.Promotion != "" {
		switch move.Promotion {
		case Queen, Rook, Bishop, Knight:
		default:
			return nil, fmt.Errorf("%w: cannot promote to %q", ErrInvalidInput, move.Promotion)
		}
		if p.Type != Pawn || move.To.Rank != p.Team.promotionRank() {
			return nil, fmt.Errorf("%w: promotion on a non-promoting move", ErrInvalidInput)
		}
	}
	return p, nil
}

func (g *grid) verdict(p *Piece, c candidate) MoveResult {
	after := g.play(p, c)
	if after.inCheck(p.Team) {
		return MoveResult{Reason: ReasonKingExposed}
	}
	res := MoveResult{
		Legal:      true,
		Kind:       c.kind,
		Captured:   c.captured,
		CastleRook: c.rook,
		GivesCheck: after.inCheck(p.Team.Opponent()),
	}
	if c.kind == KindPromotion {
		res.PromoteTo = c.promoteTo
		res.PromotionRequired = c.promoteTo == ""
	}
	return res
}
