package referee

import "fmt"

// AttacksSquare reports whether any piece of team attacks sq on board.
// Attack ignores pins: a pinned piece still gives check.
func AttacksSquare(board BoardState, team Team, sq Square) (bool, error) {
	if !team.Valid() {
		return false, fmt.Errorf("%w: team %q", ErrInvalidInput, team)
	}
	if !sq.Valid() {
		return false, fmt.Errorf("%w: square %+v off board", ErrInvalidInput, sq)
	}
	g, err := newGrid(board)
	if err != nil {
		return false, err
	}
	return g.attacked(team, sq), nil
}

// InCheck reports whether team's king is attacked. A board without a king for
// team, or an invalid board, is never in check.
func InCheck(board BoardState, team Team) bool {
	g, err := newGrid(board)
	if err != nil {
		return false
	}
	return g.inCheck(team)
}

func (g *grid) inCheck(team Team) bool {
	king, ok := g.kingSquare(team)
	if !ok {
		return false
	}
	return g.attacked(team.Opponent(), king)
}

func (g *grid) attacked(by Team, sq Square) bool {
	if g.rayHits(by, sq, rookDirs, Rook) || g.rayHits(by, sq, bishopDirs, Bishop) {
		return true
	}
	for _, dir := range knightDirs {
		if g.holds(sq.offset(dir), by, Knight) {
			return true
		}
	}
	for _, dir := range queenDirs {
		if g.holds(sq.offset(dir), by, King) {
			return true
		}
	}
	// A pawn attacks diagonally forward, so look one rank behind sq from its side.
	for _, df := range []int{-1, 1} {
		if g.holds(sq.offset(direction{df, -by.forward()}), by, Pawn) {
			return true
		}
	}
	return false
}

// rayHits walks each direction from sq and reports whether the first piece
// met is a slider of team by moving along that line (slider or a queen).
func (g *grid) rayHits(by Team, sq Square, dirs []direction, slider PieceType) bool {
	for _, dir := range dirs {
		target := sq.offset(dir)
		for target.Valid() {
			if p := g.at(target); p != nil {
				if p.Team == by && (p.Type == slider || p.Type == Queen) {
					return true
				}
				break
			}
			target = target.offset(dir)
		}
	}
	return false
}

func (g *grid) holds(sq Square, team Team, pieceType PieceType) bool {
	if !sq.Valid() {
		return false
	}
	p := g.at(sq)
	return p != nil && p.Team == team && p.Type == pieceType
}
