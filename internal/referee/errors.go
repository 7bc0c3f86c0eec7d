package referee

import "errors"

var (
	// ErrInvalidInput marks caller bugs: off-board coordinates, a move whose
	// piece does not match the board, a broken board snapshot.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPromotionRequired is returned by Apply when a pawn reaches the last
	// rank and no promotion piece was chosen.
	ErrPromotionRequired = errors.New("promotion piece required")
	ErrIllegalMove       = errors.New("illegal move")
)
