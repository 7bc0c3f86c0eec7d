package service

import (
	"fmt"

	"github.com/benbeisheim/chess-referee/internal/model"
	"github.com/benbeisheim/chess-referee/internal/referee"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame() (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (referee.Team, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.WSMove) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.MakeMove(playerID, move)
}

func (gs *GameService) Resign(gameID string, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Resign(playerID)
}

func (gs *GameService) OfferDraw(gameID string, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.OfferDraw(playerID)
}

func (gs *GameService) AcceptDraw(gameID string, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.AcceptDraw(playerID)
}

func (gs *GameService) DeclineDraw(gameID string, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.DeclineDraw(playerID)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}

// SendError queues err on the player's game socket behind any pending state
// messages.
func (gs *GameService) SendError(gameID string, playerID string, conn model.Conn, err error) {
	game, getErr := gs.gameManager.GetGame(gameID)
	if getErr != nil {
		return
	}
	game.SendError(playerID, conn, err)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}

// Validate runs the referee on a caller-supplied position.
func (gs *GameService) Validate(board referee.BoardState, move referee.Move) (referee.MoveResult, error) {
	return referee.IsLegal(board, move)
}

func (gs *GameService) LegalMoves(board referee.BoardState, from referee.Square) ([]referee.Move, error) {
	return referee.LegalMoves(board, from)
}

func (gs *GameService) Assess(board referee.BoardState, toMove referee.Team) (referee.Status, error) {
	return referee.Assess(board, toMove)
}

func (gs *GameService) ImportFEN(fen string) (referee.BoardState, referee.Team, error) {
	return referee.FromFEN(fen)
}
