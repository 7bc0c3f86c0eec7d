package referee

import (
	"errors"
	"testing"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Status
	}{
		{name: "opening", fen: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", want: StatusOngoing},
		{name: "fool's mate", fen: "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", want: StatusCheckmate},
		{name: "queen stalemate", fen: "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", want: StatusStalemate},
		{name: "check with escape", fen: "4k3/8/8/8/8/8/4r3/4K3 w - - 0 1", want: StatusCheck},
		{name: "bare kings", fen: "8/8/4k3/8/8/3K4/8/8 w - - 0 1", want: StatusInsufficientMaterial},
		{name: "king and knight", fen: "8/8/4k3/8/8/3K4/5N2/8 b - - 0 1", want: StatusInsufficientMaterial},
		{name: "same coloured bishops", fen: "4kb2/8/8/8/8/8/8/2B1K3 w - - 0 1", want: StatusInsufficientMaterial},
		{name: "opposite coloured bishops", fen: "2b1k3/8/8/8/8/8/8/2B1K3 w - - 0 1", want: StatusOngoing},
		{name: "two knights", fen: "4k3/8/8/8/8/8/8/1N2K1N1 w - - 0 1", want: StatusOngoing},
		{name: "lone pawn", fen: "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", want: StatusOngoing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, toMove := mustFEN(t, tt.fen)
			got, err := Assess(board, toMove)
			if err != nil {
				t.Fatalf("Assess: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAssessRejectsUnknownTeam(t *testing.T) {
	if _, err := Assess(NewBoard(), Team("")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStatusFinal(t *testing.T) {
	for status, final := range map[Status]bool{
		StatusOngoing:              false,
		StatusCheck:                false,
		StatusCheckmate:            true,
		StatusStalemate:            true,
		StatusInsufficientMaterial: true,
	} {
		if status.Final() != final {
			t.Fatalf("%s: expected Final()=%v", status, final)
		}
	}
}
