package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benbeisheim/chess-referee/internal/model"
	"github.com/benbeisheim/chess-referee/internal/service"
	"github.com/benbeisheim/chess-referee/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Warnf("failed to register connection for player %s in game %s: %v", playerID, gameID, err)
		// Not registered, so nothing else writes to c.
		_ = c.WriteJSON(ws.NewError(err))
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugf("read error for player %s: %v", playerID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debugf("parse error: %v", err)
			wsc.gameService.SendError(gameID, playerID, c, err)
			continue
		}
		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Debugf("handle %s from %s: %v", msg.Type, playerID, err)
			wsc.gameService.SendError(gameID, playerID, c, err)
		}
	}
}

// Handle different types of incoming messages
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		return wsc.gameService.HandleMove(gameID, playerID, move)
	case ws.MessageTypeResign:
		return wsc.gameService.Resign(gameID, playerID)
	case ws.MessageTypeDrawOffer:
		return wsc.gameService.OfferDraw(gameID, playerID)
	case ws.MessageTypeDraw:
		return wsc.gameService.AcceptDraw(gameID, playerID)
	case ws.MessageTypeDrawDecline:
		return wsc.gameService.DeclineDraw(gameID, playerID)
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking queues the player and waits for a match or a disconnect.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID := c.Locals("playerID").(string)

	ch := make(chan string, 1)
	wsc.gameService.RegisterMatchmakingChannel(playerID, ch)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	// A player queued over REST keeps their place.
	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		_ = c.WriteJSON(ws.NewError(err))
		return
	}

	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			return
		}
		if err := c.WriteJSON(ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(event)}); err != nil {
			log.Warnf("failed to send match to player %s: %v", playerID, err)
		}
	case <-disconnected:
		log.Debugf("player %s left matchmaking", playerID)
	}
}
