package referee

import "fmt"

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

func (p PieceType) Valid() bool {
	switch p {
	case King, Queen, Rook, Bishop, Knight, Pawn:
		return true
	}
	return false
}

// Notation returns the SAN letter for the piece type. Pawns have none.
func (p PieceType) Notation() string {
	switch p {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	}
	return ""
}

// Team is one of the two sides. White is the first team: its back rank is
// rank 0 and its pawns advance towards rank 7.
type Team string

const (
	White Team = "white"
	Black Team = "black"
)

func (t Team) Valid() bool {
	return t == White || t == Black
}

func (t Team) Opponent() Team {
	if t == White {
		return Black
	}
	return White
}

func (t Team) forward() int {
	if t == White {
		return 1
	}
	return -1
}

func (t Team) homeRank() int {
	if t == White {
		return 0
	}
	return 7
}

func (t Team) pawnRank() int {
	return t.homeRank() + t.forward()
}

func (t Team) promotionRank() int {
	return t.Opponent().homeRank()
}

type Square struct {
	File int `json:"file"`
	Rank int `json:"rank"`
}

func (s Square) Valid() bool {
	return s.File >= 0 && s.File < 8 && s.Rank >= 0 && s.Rank < 8
}

func (s Square) String() string {
	return fmt.Sprintf("%c%d", s.File+'a', s.Rank+1)
}

// FileNotation returns the file letter of the square.
func (s Square) FileNotation() string {
	return fmt.Sprintf("%c", s.File+'a')
}

func (s Square) offset(d direction) Square {
	return Square{File: s.File + d.file, Rank: s.Rank + d.rank}
}

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: square %q", ErrInvalidInput, s)
	}
	sq := Square{File: int(s[0] - 'a'), Rank: int(s[1] - '1')}
	if !sq.Valid() {
		return Square{}, fmt.Errorf("%w: square %q", ErrInvalidInput, s)
	}
	return sq, nil
}

type Piece struct {
	Type     PieceType `json:"type"`
	Team     Team      `json:"team"`
	Square   Square    `json:"square"`
	HasMoved bool      `json:"hasMoved"`
}

// Move is a proposed transition of Piece from From to To. Promotion names the
// piece a pawn becomes on the final rank and is empty otherwise.
type Move struct {
	From      Square    `json:"from"`
	To        Square    `json:"to"`
	Piece     Piece     `json:"piece"`
	Promotion PieceType `json:"promotion,omitempty"`
}

type MoveKind string

const (
	KindNormal    MoveKind = "normal"
	KindCapture   MoveKind = "capture"
	KindCastle    MoveKind = "castle"
	KindEnPassant MoveKind = "enPassant"
	KindPromotion MoveKind = "promotion"
)

// Reason tells the caller why a move was rejected.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonOwnPiece    Reason = "ownPiece"
	ReasonPattern     Reason = "pattern"
	ReasonKingExposed Reason = "kingExposed"
)

type RookMove struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

// MoveResult is the verdict for a Move plus what the caller needs to update
// its own board: the square whose occupant is removed, the rook leg of a
// castle and the promotion target.
type MoveResult struct {
	Legal             bool      `json:"legal"`
	Kind              MoveKind  `json:"kind,omitempty"`
	Reason            Reason    `json:"reason,omitempty"`
	Captured          *Square   `json:"captured,omitempty"`
	CastleRook        *RookMove `json:"castleRook,omitempty"`
	PromotionRequired bool      `json:"promotionRequired,omitempty"`
	PromoteTo         PieceType `json:"promoteTo,omitempty"`
	GivesCheck        bool      `json:"givesCheck,omitempty"`
}

type direction struct {
	file, rank int
}

var (
	rookDirs   = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs = []direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirs  = append(append([]direction{}, rookDirs...), bishopDirs...)
	knightDirs = []direction{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
)
