package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benbeisheim/chess-referee/internal/model"
	"github.com/benbeisheim/chess-referee/internal/referee"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

// MatchFoundEvent is sent to a queued player once paired.
type MatchFoundEvent struct {
	GameID string       `json:"gameId"`
	Color  referee.Team `json:"color"`
}

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	timeControl      time.Duration
	mu               sync.RWMutex
}

func NewGameManager(timeControl time.Duration) *GameManager {
	return &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		timeControl:      timeControl,
	}
}

// RunMatchmaking pairs queued players every interval until ctx is done.
func (gm *GameManager) RunMatchmaking(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("matchmaking stopped")
			return
		case <-ticker.C:
			for gm.matchOnce() {
			}
		}
	}
}

// matchOnce pairs the two longest-waiting players, reporting whether a game
// was created.
func (gm *GameManager) matchOnce() bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	player1, player2, ok := gm.queue.GetNextPair()
	if !ok {
		return false
	}

	gameID := uuid.New().String()
	game := model.NewGame(gameID, gm.timeControl)
	p1Color, err := game.AddPlayer(player1.ID)
	if err != nil {
		log.Errorf("error adding player %s to game: %v", player1.ID, err)
		return false
	}
	p2Color, err := game.AddPlayer(player2.ID)
	if err != nil {
		log.Errorf("error adding player %s to game: %v", player2.ID, err)
		return false
	}
	gm.games[gameID] = game
	log.Infof("matched %s (%s) and %s (%s) in game %s", player1.ID, p1Color, player2.ID, p2Color, gameID)

	gm.notifyMatch(player1.ID, MatchFoundEvent{GameID: gameID, Color: p1Color})
	gm.notifyMatch(player2.ID, MatchFoundEvent{GameID: gameID, Color: p2Color})
	return true
}

// notifyMatch sends event on the player's channel and closes it. Callers hold
// gm.mu.
func (gm *GameManager) notifyMatch(playerID string, event MatchFoundEvent) {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		log.Warnf("no matchmaking channel for player %s", playerID)
		return
	}
	delete(gm.matchingChannels, playerID)
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("marshal match event: %v", err)
		close(ch)
		return
	}
	select {
	case ch <- string(payload):
		log.Debugf("sent match found event to player %s", playerID)
	default:
		log.Warnf("failed to send match found event to player %s", playerID)
	}
	close(ch)
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, exists := gm.matchingChannels[playerID]; exists {
		log.Debugf("replacing matchmaking channel for player %s", playerID)
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets ch for playerID and takes the player
// out of the queue. ch is not closed here: the manager only closes channels
// it still holds, on a match or a replacement.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, exists := gm.matchingChannels[playerID]; exists && current == ch {
		delete(gm.matchingChannels, playerID)
		gm.queue.RemovePlayer(playerID)
	}
}

func (gm *GameManager) CreateGame(gameID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}

	gm.games[gameID] = model.NewGame(gameID, gm.timeControl)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (referee.Team, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	return gm.queue.AddPlayer(model.Player{ID: playerID})
}

func (gm *GameManager) QueueSize() int {
	return gm.queue.Size()
}
