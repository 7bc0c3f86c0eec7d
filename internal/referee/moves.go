package referee

import "fmt"

// LegalMoves lists every legal move of the piece on from. Promotions appear
// once per destination with Promotion left empty.
func LegalMoves(board BoardState, from Square) ([]Move, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("%w: square %+v off board", ErrInvalidInput, from)
	}
	g, err := newGrid(board)
	if err != nil {
		return nil, err
	}
	p := g.at(from)
	if p == nil {
		return nil, fmt.Errorf("%w: no piece on %s", ErrInvalidInput, from)
	}
	return g.legalMoves(p, board.LastMove), nil
}

// AllLegalMoves lists the legal moves of every piece of team.
func AllLegalMoves(board BoardState, team Team) ([]Move, error) {
	if !team.Valid() {
		return nil, fmt.Errorf("%w: team %q", ErrInvalidInput, team)
	}
	g, err := newGrid(board)
	if err != nil {
		return nil, err
	}
	moves := []Move{}
	g.each(team, func(p *Piece) bool {
		moves = append(moves, g.legalMoves(p, board.LastMove)...)
		return true
	})
	return moves, nil
}

func (g *grid) legalMoves(p *Piece, last *Move) []Move {
	moves := []Move{}
	for _, c := range g.candidates(p, last) {
		after := g.play(p, c)
		if after.inCheck(p.Team) {
			continue
		}
		moves = append(moves, Move{From: p.Square, To: c.to, Piece: *p})
	}
	return moves
}

func (g *grid) hasLegalMove(team Team, last *Move) bool {
	found := false
	g.each(team, func(p *Piece) bool {
		for _, c := range g.candidates(p, last) {
			after := g.play(p, c)
			if !after.inCheck(team) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// each calls fn for every piece of team in rank-major order until fn returns
// false.
func (g *grid) each(team Team, fn func(p *Piece) bool) {
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			if p := g[rank][file]; p != nil && p.Team == team {
				if !fn(p) {
					return
				}
			}
		}
	}
}
