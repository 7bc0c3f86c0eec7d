package referee

import "fmt"

type Status string

const (
	StatusOngoing              Status = "ongoing"
	StatusCheck                Status = "check"
	StatusCheckmate            Status = "checkmate"
	StatusStalemate            Status = "stalemate"
	StatusInsufficientMaterial Status = "insufficientMaterial"
)

// Final reports whether the status ends the game.
func (s Status) Final() bool {
	return s == StatusCheckmate || s == StatusStalemate || s == StatusInsufficientMaterial
}

// Assess classifies the position for the side about to move.
func Assess(board BoardState, toMove Team) (Status, error) {
	if !toMove.Valid() {
		return "", fmt.Errorf("%w: team %q", ErrInvalidInput, toMove)
	}
	g, err := newGrid(board)
	if err != nil {
		return "", err
	}
	check := g.inCheck(toMove)
	canMove := g.hasLegalMove(toMove, board.LastMove)
	switch {
	case !canMove && check:
		return StatusCheckmate, nil
	case !canMove:
		return StatusStalemate, nil
	case g.insufficientMaterial():
		return StatusInsufficientMaterial, nil
	case check:
		return StatusCheck, nil
	}
	return StatusOngoing, nil
}

// insufficientMaterial covers bare kings, a single minor piece, and any
// number of bishops all standing on one square colour.
func (g *grid) insufficientMaterial() bool {
	minors := 0
	bishopColours := map[int]bool{}
	knights := 0
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			p := g[rank][file]
			if p == nil {
				continue
			}
			switch p.Type {
			case King:
			case Bishop:
				minors++
				bishopColours[(rank+file)%2] = true
			case Knight:
				minors++
				knights++
			default:
				return false
			}
		}
	}
	if minors <= 1 {
		return true
	}
	return knights == 0 && len(bishopColours) == 1
}
