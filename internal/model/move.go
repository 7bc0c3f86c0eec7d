package model

import "github.com/benbeisheim/chess-referee/internal/referee"

// WSMove is a move as sent by a client over the game socket.
type WSMove struct {
	From      referee.Square    `json:"from"`
	To        referee.Square    `json:"to"`
	Promotion referee.PieceType `json:"promotion,omitempty"`
}

type Ply struct {
	Piece          referee.Piece     `json:"piece"`
	From           referee.Square    `json:"from"`
	To             referee.Square    `json:"to"`
	Kind           referee.MoveKind  `json:"kind"`
	CapturedPiece  *referee.Piece    `json:"capturedPiece"`
	CastleRookMove *referee.RookMove `json:"castleRookMove"`
	Promotion      referee.PieceType `json:"promotion,omitempty"`
	Notation       string            `json:"notation"`
}

// Move pairs a white ply with the black reply. BlackPly is nil until black
// has moved.
type Move struct {
	WhitePly *Ply `json:"whitePly"`
	BlackPly *Ply `json:"blackPly"`
}

type SimpleMove struct {
	From referee.Square `json:"from"`
	To   referee.Square `json:"to"`
}
