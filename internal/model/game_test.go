package model

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbeisheim/chess-referee/internal/referee"
	"github.com/benbeisheim/chess-referee/internal/ws"
)

func square(t *testing.T, s string) referee.Square {
	t.Helper()
	sq, err := referee.ParseSquare(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return sq
}

func newStartedGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame("test", 10*time.Minute)
	if color, err := g.AddPlayer("alice"); err != nil || color != referee.White {
		t.Fatalf("seat alice: %s, %v", color, err)
	}
	if color, err := g.AddPlayer("bob"); err != nil || color != referee.Black {
		t.Fatalf("seat bob: %s, %v", color, err)
	}
	return g
}

func play(t *testing.T, g *Game, moves ...string) {
	t.Helper()
	for _, m := range moves {
		player := "alice"
		if g.GetState().ToMove == referee.Black {
			player = "bob"
		}
		move := WSMove{From: square(t, m[:2]), To: square(t, m[2:4])}
		if len(m) == 5 {
			move.Promotion = map[byte]referee.PieceType{'q': referee.Queen, 'r': referee.Rook, 'b': referee.Bishop, 'n': referee.Knight}[m[4]]
		}
		if err := g.MakeMove(player, move); err != nil {
			t.Fatalf("%s plays %s: %v", player, m, err)
		}
	}
}

func lastNotation(g *Game) string {
	history := g.GetState().MoveHistory
	last := history[len(history)-1]
	if last.BlackPly != nil {
		return last.BlackPly.Notation
	}
	return last.WhitePly.Notation
}

func TestAddPlayer(t *testing.T) {
	g := NewGame("seats", time.Minute)
	if g.GetState().Status != StatusWaiting {
		t.Fatalf("expected a new game to wait for players")
	}
	if _, err := g.AddPlayer("alice"); err != nil {
		t.Fatalf("seat alice: %v", err)
	}
	if !g.CanSpectate() {
		t.Fatalf("expected a half-empty game to accept observers")
	}
	if _, err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("seat bob: %v", err)
	}
	if color, err := g.AddPlayer("alice"); err != nil || color != referee.White {
		t.Fatalf("expected alice to keep white, got %s, %v", color, err)
	}
	if _, err := g.AddPlayer("carol"); !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}
	if g.GetState().Status != StatusInProgress {
		t.Fatalf("expected game to start once both seats are taken")
	}
	if !g.IsPlayerInGame("bob") || g.IsPlayerInGame("carol") {
		t.Fatalf("unexpected membership")
	}
}

func TestMakeMoveEnforcesTurns(t *testing.T) {
	waiting := NewGame("waiting", time.Minute)
	if _, err := waiting.AddPlayer("alice"); err != nil {
		t.Fatalf("seat alice: %v", err)
	}
	e2e4 := WSMove{From: square(t, "e2"), To: square(t, "e4")}
	if err := waiting.MakeMove("alice", e2e4); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("expected ErrGameNotStarted, got %v", err)
	}

	g := newStartedGame(t)
	if err := g.MakeMove("carol", e2e4); !errors.Is(err, ErrNotInGame) {
		t.Fatalf("expected ErrNotInGame, got %v", err)
	}
	if err := g.MakeMove("bob", WSMove{From: square(t, "e7"), To: square(t, "e5")}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if err := g.MakeMove("alice", WSMove{From: square(t, "e7"), To: square(t, "e5")}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected moving an enemy piece to be refused, got %v", err)
	}
	if err := g.MakeMove("alice", WSMove{From: square(t, "e4"), To: square(t, "e5")}); !errors.Is(err, referee.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an empty square, got %v", err)
	}
	if err := g.MakeMove("alice", WSMove{From: square(t, "e2"), To: square(t, "e5")}); !errors.Is(err, referee.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if err := g.MakeMove("alice", e2e4); err != nil {
		t.Fatalf("e2e4: %v", err)
	}
	state := g.GetState()
	if state.ToMove != referee.Black || state.Sound != "move" || state.LastMove == nil {
		t.Fatalf("unexpected state after e2e4: %+v", state)
	}
}

func TestFoolsMate(t *testing.T) {
	g := newStartedGame(t)
	play(t, g, "f2f3", "e7e5", "g2g4", "d8h4")

	state := g.GetState()
	if state.Status != StatusCheckmate {
		t.Fatalf("expected checkmate, got %s", state.Status)
	}
	if state.Winner == nil || *state.Winner != referee.Black {
		t.Fatalf("expected black to win, got %v", state.Winner)
	}
	if got := lastNotation(g); got != "Qh4#" {
		t.Fatalf("expected Qh4#, got %s", got)
	}
	if len(state.MoveHistory) != 2 {
		t.Fatalf("expected two full moves, got %d", len(state.MoveHistory))
	}
	if err := g.MakeMove("alice", WSMove{From: square(t, "a2"), To: square(t, "a3")}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestEnPassantAndCastlingAreRecorded(t *testing.T) {
	g := newStartedGame(t)
	play(t, g, "e2e4", "a7a6", "e4e5", "d7d5", "e5d6")

	state := g.GetState()
	if got := lastNotation(g); got != "exd6" {
		t.Fatalf("expected exd6, got %s", got)
	}
	if len(state.CapturedPieces.White) != 1 || state.CapturedPieces.White[0].Type != referee.Pawn {
		t.Fatalf("expected white to have captured a pawn, got %+v", state.CapturedPieces.White)
	}
	if _, ok := state.Board.PieceAt(square(t, "d5")); ok {
		t.Fatalf("expected the d5 pawn to be removed")
	}

	play(t, g, "a6a5", "g1f3", "a5a4", "f1e2", "a4a3", "e1g1")
	if got := lastNotation(g); got != "O-O" {
		t.Fatalf("expected O-O, got %s", got)
	}
	state = g.GetState()
	if rook, ok := state.Board.PieceAt(square(t, "f1")); !ok || rook.Type != referee.Rook {
		t.Fatalf("expected rook on f1 after castling")
	}
	if state.Sound != "castle" {
		t.Fatalf("expected castle sound, got %q", state.Sound)
	}
}

func TestPromotionNeedsPiece(t *testing.T) {
	g := newStartedGame(t)
	g.state.Board = referee.BoardState{Pieces: []referee.Piece{
		{Type: referee.King, Team: referee.White, Square: square(t, "e1")},
		{Type: referee.King, Team: referee.Black, Square: square(t, "h8")},
		{Type: referee.Pawn, Team: referee.White, Square: square(t, "a7")},
	}}

	err := g.MakeMove("alice", WSMove{From: square(t, "a7"), To: square(t, "a8")})
	if !errors.Is(err, referee.ErrPromotionRequired) {
		t.Fatalf("expected ErrPromotionRequired, got %v", err)
	}
	play(t, g, "a7a8q")
	if got := lastNotation(g); got != "a8=Q+" {
		t.Fatalf("expected a8=Q+, got %s", got)
	}
	if g.GetState().Status != StatusCheck {
		t.Fatalf("expected black to be in check, got %s", g.GetState().Status)
	}
}

func TestThreefoldRepetition(t *testing.T) {
	g := newStartedGame(t)
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	play(t, g, shuffle...)
	if g.GetState().Status.Over() {
		t.Fatalf("game ended after a single repetition")
	}
	play(t, g, shuffle...)

	state := g.GetState()
	if state.Status != StatusDraw || state.Resolve == nil || *state.Resolve != DrawRepetition {
		t.Fatalf("expected draw by repetition, got %s %v", state.Status, state.Resolve)
	}
}

func TestInsufficientMaterialEndsGame(t *testing.T) {
	g := newStartedGame(t)
	g.state.Board = referee.BoardState{Pieces: []referee.Piece{
		{Type: referee.King, Team: referee.White, Square: square(t, "e1")},
		{Type: referee.King, Team: referee.Black, Square: square(t, "e3")},
		{Type: referee.Bishop, Team: referee.White, Square: square(t, "c1")},
		{Type: referee.Knight, Team: referee.Black, Square: square(t, "d2")},
	}}
	play(t, g, "c1d2")

	state := g.GetState()
	if state.Status != StatusDraw || *state.Resolve != DrawInsufficientMaterial {
		t.Fatalf("expected draw by insufficient material, got %s", state.Status)
	}
}

func TestResignAndDrawOffers(t *testing.T) {
	g := newStartedGame(t)
	if err := g.AcceptDraw("bob"); !errors.Is(err, ErrNoDrawOffer) {
		t.Fatalf("expected ErrNoDrawOffer, got %v", err)
	}
	if err := g.OfferDraw("alice"); err != nil {
		t.Fatalf("offer draw: %v", err)
	}
	if err := g.AcceptDraw("alice"); !errors.Is(err, ErrNoDrawOffer) {
		t.Fatalf("expected a player not to accept their own offer, got %v", err)
	}
	if err := g.DeclineDraw("bob"); err != nil {
		t.Fatalf("decline draw: %v", err)
	}
	if g.GetState().DrawOffer != nil {
		t.Fatalf("expected declined offer to be cleared")
	}

	if err := g.OfferDraw("bob"); err != nil {
		t.Fatalf("offer draw: %v", err)
	}
	play(t, g, "e2e4")
	if g.GetState().DrawOffer != nil {
		t.Fatalf("expected a move to withdraw the pending offer")
	}

	if err := g.Resign("bob"); err != nil {
		t.Fatalf("resign: %v", err)
	}
	state := g.GetState()
	if state.Status != StatusResigned || state.Winner == nil || *state.Winner != referee.White {
		t.Fatalf("expected white to win by resignation, got %s %v", state.Status, state.Winner)
	}
	if err := g.OfferDraw("alice"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestDrawByAgreement(t *testing.T) {
	g := newStartedGame(t)
	if err := g.OfferDraw("alice"); err != nil {
		t.Fatalf("offer draw: %v", err)
	}
	if err := g.AcceptDraw("bob"); err != nil {
		t.Fatalf("accept draw: %v", err)
	}
	state := g.GetState()
	if state.Status != StatusDraw || *state.Resolve != DrawAgreement || state.Winner != nil {
		t.Fatalf("expected agreed draw, got %+v", state)
	}
}

func TestFlagFall(t *testing.T) {
	g := newStartedGame(t)
	g.clocks[referee.White] = NewClock(0)

	err := g.MakeMove("alice", WSMove{From: square(t, "e2"), To: square(t, "e4")})
	if !errors.Is(err, ErrTimeExpired) {
		t.Fatalf("expected ErrTimeExpired, got %v", err)
	}
	state := g.GetState()
	if state.Status != StatusTimeout || *state.Winner != referee.Black {
		t.Fatalf("expected black to win on time, got %s", state.Status)
	}
}

func TestIdlePlayerLosesOnTime(t *testing.T) {
	tests := []struct {
		name  string
		check func(g *Game) error
		want  error
	}{
		{name: "opponent resigns after the flag", check: func(g *Game) error { return g.Resign("bob") }, want: ErrTimeExpired},
		{name: "state read after the flag", check: func(g *Game) error { g.GetState(); return nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newStartedGame(t)
			now := time.Now()
			for _, c := range g.clocks {
				c.mu.Lock()
				c.now = func() time.Time { return now }
				c.mu.Unlock()
			}
			now = now.Add(11 * time.Minute)

			if err := tt.check(g); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			state := g.GetState()
			if state.Status != StatusTimeout || state.Winner == nil || *state.Winner != referee.Black {
				t.Fatalf("expected black to win on time, got %s", state.Status)
			}
		})
	}
}

func TestFlagTimerEndsIdleGame(t *testing.T) {
	g := NewGame("timer", 30*time.Millisecond)
	for _, id := range []string{"alice", "bob"} {
		if _, err := g.AddPlayer(id); err != nil {
			t.Fatalf("seat %s: %v", id, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		status := g.state.Status
		g.mu.Unlock()
		if status == StatusTimeout {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("game never ended on time")
}

// serialConn records messages and notes any two writes that overlap.
type serialConn struct {
	inFlight int32
	overlap  int32
	mu       sync.Mutex
	messages []ws.Message
	written  chan struct{}
}

func (c *serialConn) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&c.inFlight, 1) > 1 {
		atomic.StoreInt32(&c.overlap, 1)
	}
	time.Sleep(5 * time.Millisecond)
	c.mu.Lock()
	c.messages = append(c.messages, v.(ws.Message))
	c.mu.Unlock()
	atomic.AddInt32(&c.inFlight, -1)
	c.written <- struct{}{}
	return nil
}

func (c *serialConn) WriteMessage(int, []byte) error { return nil }

func (c *serialConn) Close() error { return nil }

func TestSocketWritesAreSerialAndOrdered(t *testing.T) {
	g := newStartedGame(t)
	conn := &serialConn{written: make(chan struct{}, 16)}
	if err := g.RegisterConnection("alice", conn); err != nil {
		t.Fatalf("register: %v", err)
	}
	play(t, g, "e2e4", "e7e5", "g1f3")
	if !g.SendError("alice", conn, ErrNotYourTurn) {
		t.Fatalf("expected error to be queued")
	}
	if g.SendError("alice", &fakeConn{}, ErrNotYourTurn) {
		t.Fatalf("an unregistered socket must not receive messages")
	}

	for i := 0; i < 5; i++ {
		select {
		case <-conn.written:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 5 messages written", i)
		}
	}
	if atomic.LoadInt32(&conn.overlap) != 0 {
		t.Fatalf("two writes reached the socket at the same time")
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	wantToMove := []referee.Team{referee.White, referee.Black, referee.White, referee.Black}
	for i, want := range wantToMove {
		var state GameState
		if err := json.Unmarshal(conn.messages[i].Payload, &state); err != nil {
			t.Fatalf("decode state %d: %v", i, err)
		}
		if state.ToMove != want {
			t.Fatalf("state %d arrived out of order: %s to move, expected %s", i, state.ToMove, want)
		}
	}
	if conn.messages[4].Type != ws.MessageTypeError {
		t.Fatalf("expected the error after the states, got %s", conn.messages[4].Type)
	}
}

type fakeConn struct {
	messages chan ws.Message
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.messages <- v.(ws.Message)
	return nil
}

func (f *fakeConn) WriteMessage(int, []byte) error { return nil }

func (f *fakeConn) Close() error { return nil }

func TestConnectionsReceiveState(t *testing.T) {
	g := newStartedGame(t)
	conn := &fakeConn{messages: make(chan ws.Message, 4)}
	if err := g.RegisterConnection("alice", conn); err != nil {
		t.Fatalf("register: %v", err)
	}
	<-conn.messages

	play(t, g, "d2d4")
	select {
	case msg := <-conn.messages:
		if msg.Type != ws.MessageTypeGameState {
			t.Fatalf("expected gameState message, got %s", msg.Type)
		}
		var state GameState
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if state.ToMove != referee.Black {
			t.Fatalf("expected black to move in broadcast state, got %s", state.ToMove)
		}
	case <-time.After(time.Second):
		t.Fatalf("no state broadcast after move")
	}

	if err := g.RegisterConnection("carol", &fakeConn{messages: make(chan ws.Message, 1)}); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for a stranger in a full game, got %v", err)
	}
	g.UnregisterConnection("alice", conn)
	if g.connections.count() != 0 {
		t.Fatalf("expected connection to be removed")
	}
}

func TestNotationDisambiguation(t *testing.T) {
	board := referee.BoardState{Pieces: []referee.Piece{
		{Type: referee.King, Team: referee.White, Square: square(t, "h1")},
		{Type: referee.King, Team: referee.Black, Square: square(t, "h8")},
		{Type: referee.Knight, Team: referee.White, Square: square(t, "b1")},
		{Type: referee.Knight, Team: referee.White, Square: square(t, "f3")},
		{Type: referee.Rook, Team: referee.White, Square: square(t, "a1")},
		{Type: referee.Rook, Team: referee.White, Square: square(t, "a5")},
	}}

	tests := []struct {
		from, to string
		want     string
	}{
		{from: "b1", to: "d2", want: "Nbd2"},
		{from: "f3", to: "e5", want: "Ne5"},
		{from: "a1", to: "a3", want: "R1a3"},
		{from: "a5", to: "a3", want: "R5a3"},
	}
	for _, tt := range tests {
		p, _ := board.PieceAt(square(t, tt.from))
		mv := referee.Move{From: p.Square, To: square(t, tt.to), Piece: p}
		res, err := referee.IsLegal(board, mv)
		if err != nil || !res.Legal {
			t.Fatalf("%s%s: %+v, %v", tt.from, tt.to, res, err)
		}
		if got := notation(board, mv, res, referee.StatusOngoing); got != tt.want {
			t.Fatalf("%s%s: expected %s, got %s", tt.from, tt.to, tt.want, got)
		}
	}
}
