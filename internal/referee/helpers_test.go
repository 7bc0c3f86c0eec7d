package referee

import "testing"

func sq(t *testing.T, s string) Square {
	t.Helper()
	out, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("parse square %q: %v", s, err)
	}
	return out
}

func piece(t *testing.T, team Team, pieceType PieceType, at string) Piece {
	t.Helper()
	return Piece{Type: pieceType, Team: team, Square: sq(t, at)}
}

func boardOf(pieces ...Piece) BoardState {
	return BoardState{Pieces: pieces}
}

func moveOf(t *testing.T, board BoardState, from, to string) Move {
	t.Helper()
	p, ok := board.PieceAt(sq(t, from))
	if !ok {
		t.Fatalf("no piece on %s", from)
	}
	return Move{From: p.Square, To: sq(t, to), Piece: p}
}

func mustLegal(t *testing.T, board BoardState, move Move) MoveResult {
	t.Helper()
	res, err := IsLegal(board, move)
	if err != nil {
		t.Fatalf("IsLegal %s%s: %v", move.From, move.To, err)
	}
	return res
}

func mustFEN(t *testing.T, fen string) (BoardState, Team) {
	t.Helper()
	board, toMove, err := FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN %q: %v", fen, err)
	}
	return board, toMove
}
