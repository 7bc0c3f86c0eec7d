package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove        MessageType = "move"
	MessageTypeGameState   MessageType = "gameState"
	MessageTypeDrawOffer   MessageType = "drawOffer"
	MessageTypeDrawDecline MessageType = "drawDecline"
	MessageTypeResign      MessageType = "resign"
	MessageTypeDraw        MessageType = "draw"
	MessageTypeMatchFound  MessageType = "matchFound"
	MessageTypeError       MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the body of a MessageTypeError message.
type ErrorPayload struct {
	Error string `json:"error"`
}

// NewError builds an error message with a JSON payload.
func NewError(err error) Message {
	payload, _ := json.Marshal(ErrorPayload{Error: err.Error()})
	return Message{Type: MessageTypeError, Payload: payload}
}
