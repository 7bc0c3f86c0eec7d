package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benbeisheim/chess-referee/internal/model"
	"github.com/benbeisheim/chess-referee/internal/referee"
)

func TestCreateAndJoinGame(t *testing.T) {
	gs := NewGameService(NewGameManager(time.Minute))

	gameID, err := gs.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := gs.gameManager.CreateGame(gameID); !errors.Is(err, ErrGameExists) {
		t.Fatalf("expected ErrGameExists, got %v", err)
	}
	if color, err := gs.JoinGame(gameID, "alice"); err != nil || color != referee.White {
		t.Fatalf("join alice: %s, %v", color, err)
	}
	if color, err := gs.JoinGame(gameID, "bob"); err != nil || color != referee.Black {
		t.Fatalf("join bob: %s, %v", color, err)
	}
	if _, err := gs.JoinGame("missing", "carol"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}

	e2e4 := model.WSMove{From: referee.Square{File: 4, Rank: 1}, To: referee.Square{File: 4, Rank: 3}}
	if err := gs.HandleMove(gameID, "alice", e2e4); err != nil {
		t.Fatalf("HandleMove: %v", err)
	}
	state, err := gs.GetGameState(gameID)
	if err != nil {
		t.Fatalf("GetGameState: %v", err)
	}
	if state.ToMove != referee.Black || len(state.MoveHistory) != 1 {
		t.Fatalf("unexpected state after e4: to move %s, %d moves", state.ToMove, len(state.MoveHistory))
	}
	if err := gs.Resign(gameID, "bob"); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if err := gs.HandleMove("missing", "alice", e2e4); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestMatchmakingPairsQueuedPlayers(t *testing.T) {
	gm := NewGameManager(time.Minute)
	chAlice := make(chan string, 1)
	chBob := make(chan string, 1)
	gm.RegisterMatchmakingChannel("alice", chAlice)
	gm.RegisterMatchmakingChannel("bob", chBob)

	if err := gm.JoinMatchmaking("alice"); err != nil {
		t.Fatalf("join alice: %v", err)
	}
	if err := gm.JoinMatchmaking("alice"); !errors.Is(err, model.ErrAlreadyQueued) {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}
	if gm.matchOnce() {
		t.Fatalf("expected no match with a single player queued")
	}
	if err := gm.JoinMatchmaking("bob"); err != nil {
		t.Fatalf("join bob: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		gm.RunMatchmaking(ctx, 10*time.Millisecond)
		close(done)
	}()

	var events []MatchFoundEvent
	for _, ch := range []chan string{chAlice, chBob} {
		select {
		case raw := <-ch:
			var event MatchFoundEvent
			if err := json.Unmarshal([]byte(raw), &event); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			events = append(events, event)
		case <-time.After(time.Second):
			t.Fatalf("no match event received")
		}
	}
	cancel()
	<-done

	if events[0].GameID != events[1].GameID {
		t.Fatalf("players matched into different games: %+v", events)
	}
	if events[0].Color == events[1].Color {
		t.Fatalf("players got the same colour: %+v", events)
	}
	game, err := gm.GetGame(events[0].GameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if game.GetState().Status != model.StatusInProgress {
		t.Fatalf("expected matched game to be in progress, got %s", game.GetState().Status)
	}
	if gm.QueueSize() != 0 {
		t.Fatalf("expected empty queue, got %d", gm.QueueSize())
	}
}

func TestUnregisterMatchmakingLeavesQueue(t *testing.T) {
	gm := NewGameManager(time.Minute)
	ch := make(chan string, 1)
	gm.RegisterMatchmakingChannel("alice", ch)
	if err := gm.JoinMatchmaking("alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	gm.UnregisterMatchmakingChannel("alice", make(chan string))
	if gm.QueueSize() != 1 {
		t.Fatalf("a stale channel must not dequeue the player")
	}
	gm.UnregisterMatchmakingChannel("alice", ch)
	if gm.QueueSize() != 0 {
		t.Fatalf("expected player to leave the queue, got %d queued", gm.QueueSize())
	}
}

func TestRegisterMatchmakingChannelClosesPrevious(t *testing.T) {
	gm := NewGameManager(time.Minute)
	first := make(chan string, 1)
	gm.RegisterMatchmakingChannel("alice", first)
	gm.RegisterMatchmakingChannel("alice", make(chan string, 1))

	if _, open := <-first; open {
		t.Fatalf("expected the replaced channel to be closed")
	}
}
