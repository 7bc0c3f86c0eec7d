package referee

import (
	"fmt"
	"strings"
)

// BoardState is a snapshot of the pieces on the board. LastMove is the move
// that produced the snapshot and is only consulted for en passant.
type BoardState struct {
	Pieces   []Piece `json:"pieces"`
	LastMove *Move   `json:"lastMove,omitempty"`
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard starting position.
func NewBoard() BoardState {
	board := BoardState{Pieces: make([]Piece, 0, 32)}
	for _, team := range []Team{White, Black} {
		for file, pieceType := range backRank {
			board.Pieces = append(board.Pieces, Piece{Type: pieceType, Team: team, Square: Square{File: file, Rank: team.homeRank()}})
		}
		for file := 0; file < 8; file++ {
			board.Pieces = append(board.Pieces, Piece{Type: Pawn, Team: team, Square: Square{File: file, Rank: team.pawnRank()}})
		}
	}
	return board
}

// PieceAt returns the piece on sq, if any.
func (b BoardState) PieceAt(sq Square) (Piece, bool) {
	for _, p := range b.Pieces {
		if p.Square == sq {
			return p, true
		}
	}
	return Piece{}, false
}

// Clone returns a deep copy of the board.
func (b BoardState) Clone() BoardState {
	out := BoardState{Pieces: append([]Piece(nil), b.Pieces...)}
	if b.LastMove != nil {
		last := *b.LastMove
		out.LastMove = &last
	}
	return out
}

// Apply returns the board that results from playing move, whose verdict is
// res. The receiver is left untouched.
func (b BoardState) Apply(move Move, res MoveResult) (BoardState, error) {
	if !res.Legal {
		return BoardState{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, move.From, move.To)
	}
	promoteTo := res.PromoteTo
	if promoteTo == "" {
		promoteTo = move.Promotion
	}
	if res.Kind == KindPromotion && promoteTo == "" {
		return BoardState{}, ErrPromotionRequired
	}

	next := BoardState{Pieces: make([]Piece, 0, len(b.Pieces))}
	for _, p := range b.Pieces {
		switch {
		case res.Captured != nil && p.Square == *res.Captured:
			continue
		case p.Square == move.From:
			p.Square = move.To
			p.HasMoved = true
			if res.Kind == KindPromotion {
				p.Type = promoteTo
			}
		case res.CastleRook != nil && p.Square == res.CastleRook.From:
			p.Square = res.CastleRook.To
			p.HasMoved = true
		}
		next.Pieces = append(next.Pieces, p)
	}
	last := move
	next.LastMove = &last
	return next, nil
}

// Key identifies the position for repetition counting: placement, side to
// move, castling availability and en passant availability.
func (b BoardState) Key(toMove Team) string {
	g, err := newGrid(b)
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			p := g[rank][file]
			if p == nil {
				sb.WriteByte('.')
				continue
			}
			letter := p.Type.Notation()
			if letter == "" {
				letter = "P"
			}
			if p.Team == Black {
				letter = strings.ToLower(letter)
			}
			sb.WriteString(letter)
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(string(toMove))
	sb.WriteByte(' ')
	for _, team := range []Team{White, Black} {
		for _, rookFile := range []int{7, 0} {
			if g.castleRookReady(team, rookFile) {
				sb.WriteString(fmt.Sprintf("%s%d", team[:1], rookFile))
			}
		}
	}
	if target, ok := g.enPassantTarget(b.LastMove, toMove); ok && g.hasPawnBeside(b.LastMove.To, toMove) {
		sb.WriteString(" " + target.String())
	}
	return sb.String()
}

// grid is an occupancy index over a BoardState, indexed [rank][file].
type grid [8][8]*Piece

func newGrid(b BoardState) (grid, error) {
	var g grid
	kings := map[Team]int{}
	for i := range b.Pieces {
		p := &b.Pieces[i]
		if !p.Square.Valid() {
			return g, fmt.Errorf("%w: piece off board at %+v", ErrInvalidInput, p.Square)
		}
		if !p.Type.Valid() || !p.Team.Valid() {
			return g, fmt.Errorf("%w: unknown piece %q/%q", ErrInvalidInput, p.Type, p.Team)
		}
		if g[p.Square.Rank][p.Square.File] != nil {
			return g, fmt.Errorf("%w: two pieces on %s", ErrInvalidInput, p.Square)
		}
		if p.Type == King {
			kings[p.Team]++
			if kings[p.Team] > 1 {
				return g, fmt.Errorf("%w: more than one %s king", ErrInvalidInput, p.Team)
			}
		}
		g[p.Square.Rank][p.Square.File] = p
	}
	return g, nil
}

func (g *grid) at(sq Square) *Piece {
	return g[sq.Rank][sq.File]
}

func (g *grid) kingSquare(team Team) (Square, bool) {
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			if p := g[rank][file]; p != nil && p.Team == team && p.Type == King {
				return p.Square, true
			}
		}
	}
	return Square{}, false
}

// play returns a copy of g with c applied for piece p. Only occupancy is
// updated; the shared Piece values are never written.
func (g grid) play(p *Piece, c candidate) grid {
	moved := *p
	moved.Square = c.to
	moved.HasMoved = true
	if c.promoteTo != "" {
		moved.Type = c.promoteTo
	}
	g[p.Square.Rank][p.Square.File] = nil
	if c.captured != nil {
		g[c.captured.Rank][c.captured.File] = nil
	}
	if c.rook != nil {
		rook := *g.at(c.rook.From)
		rook.Square = c.rook.To
		rook.HasMoved = true
		g[c.rook.From.Rank][c.rook.From.File] = nil
		g[c.rook.To.Rank][c.rook.To.File] = &rook
	}
	g[c.to.Rank][c.to.File] = &moved
	return g
}

// castleRookReady reports whether team's king and the rook on rookFile are
// both unmoved on their home squares.
func (g *grid) castleRookReady(team Team, rookFile int) bool {
	king := g.at(Square{File: 4, Rank: team.homeRank()})
	if king == nil || king.Type != King || king.Team != team || king.HasMoved {
		return false
	}
	rook := g.at(Square{File: rookFile, Rank: team.homeRank()})
	return rook != nil && rook.Type == Rook && rook.Team == team && !rook.HasMoved
}

// enPassantTarget returns the square a pawn of team may capture onto en
// passant, derived from the last move.
func (g *grid) enPassantTarget(last *Move, team Team) (Square, bool) {
	if last == nil || last.Piece.Type != Pawn || last.Piece.Team == team || !last.Piece.Team.Valid() {
		return Square{}, false
	}
	// Only a double advance from the pawn's starting rank, in its own
	// direction, opens en passant.
	mover := last.Piece.Team
	if last.From.File != last.To.File || last.From.Rank != mover.pawnRank() ||
		last.To.Rank != last.From.Rank+2*mover.forward() {
		return Square{}, false
	}
	if !last.To.Valid() {
		return Square{}, false
	}
	if p := g.at(last.To); p == nil || p.Type != Pawn || p.Team != last.Piece.Team {
		return Square{}, false
	}
	return Square{File: last.To.File, Rank: (last.From.Rank + last.To.Rank) / 2}, true
}

func (g *grid) hasPawnBeside(sq Square, team Team) bool {
	for _, df := range []int{-1, 1} {
		beside := Square{File: sq.File + df, Rank: sq.Rank}
		if !beside.Valid() {
			continue
		}
		if p := g.at(beside); p != nil && p.Type == Pawn && p.Team == team {
			return true
		}
	}
	return false
}
