package model

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/benbeisheim/chess-referee/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

// sendBuffer is how many messages may wait for a slow socket before it is
// dropped.
const sendBuffer = 16

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// client owns the only goroutine allowed to write to conn. Messages leave in
// the order they were queued.
type client struct {
	conn Conn
	send chan ws.Message
}

func (c *client) writeLoop(gc *GameConnections, playerID string) {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Warnf("failed to send %s to player %s: %v", msg.Type, playerID, err)
			gc.remove(playerID, c.conn)
			for range c.send {
			}
			return
		}
		log.Debugf("sent %s to player %s", msg.Type, playerID)
	}
}

// GameConnections holds the sockets observing a single game.
type GameConnections struct {
	connections map[string]*client // playerID -> connection
	mu          sync.RWMutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*client),
	}
}

func (gc *GameConnections) add(playerID string, conn Conn) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if _, exists := gc.connections[playerID]; exists {
		return ErrDuplicateSocket
	}
	c := &client{conn: conn, send: make(chan ws.Message, sendBuffer)}
	gc.connections[playerID] = c
	go c.writeLoop(gc, playerID)
	return nil
}

// remove drops playerID's connection only if it is still conn, so a stale
// socket closing cannot evict its replacement.
func (gc *GameConnections) remove(playerID string, conn Conn) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	current, exists := gc.connections[playerID]
	if !exists {
		return
	}
	if conn != nil && current.conn != conn {
		log.Debugf("ignoring unregister for old connection %p of player %s", conn, playerID)
		return
	}
	delete(gc.connections, playerID)
	close(current.send)
}

func (gc *GameConnections) count() int {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	return len(gc.connections)
}

// send queues msg for playerID's socket if it is still conn.
func (gc *GameConnections) send(playerID string, conn Conn, msg ws.Message) bool {
	gc.mu.RLock()
	c, exists := gc.connections[playerID]
	if !exists || c.conn != conn {
		gc.mu.RUnlock()
		return false
	}
	queued := c.enqueue(msg)
	gc.mu.RUnlock()

	if !queued {
		log.Warnf("send buffer full for player %s, dropping connection", playerID)
		gc.remove(playerID, conn)
	}
	return queued
}

// broadcast queues state for every connection, dropping those that have
// fallen too far behind.
func (gc *GameConnections) broadcast(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Errorf("failed to marshal state to JSON: %v", err)
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: json.RawMessage(payload)}

	stalled := map[string]Conn{}
	gc.mu.RLock()
	for playerID, c := range gc.connections {
		if !c.enqueue(msg) {
			stalled[playerID] = c.conn
		}
	}
	gc.mu.RUnlock()

	for playerID, conn := range stalled {
		log.Warnf("send buffer full for player %s, dropping connection", playerID)
		gc.remove(playerID, conn)
	}
}

// enqueue never blocks. Callers hold the read lock, which keeps send open.
func (c *client) enqueue(msg ws.Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func rejectDuplicate(conn Conn) {
	_ = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, fmt.Sprint(ErrDuplicateSocket)),
	)
	_ = conn.Close()
}
