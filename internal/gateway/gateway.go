// Package gateway pushes game events to WebSocket clients. Clients
// subscribe to games by id and receive JSON envelopes; they never send
// moves over the socket (moves go through the HTTP API).
package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: Restrict in production
	},
}

// Envelope is the wire format for every server push and client message.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

type subscribeRequest struct {
	GameID string `json:"game_id"`
}

type narrationRequest struct {
	Enabled bool `json:"enabled"`
}

// StateProvider supplies the current client state for a game so new
// subscribers get an immediate snapshot.
type StateProvider interface {
	ClientState(gameID string) (any, error)
}

// Connection is one WebSocket client.
type Connection struct {
	ID        string
	Conn      *websocket.Conn
	Send      chan []byte
	Gateway   *Gateway
	LastPing  time.Time
	narration bool

	mu    sync.Mutex
	games map[string]bool // subscribed game ids
}

// Gateway manages WebSocket connections and game subscriptions.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	subs        map[string]map[string]*Connection // gameID -> connID -> conn
	nextConnID  uint64
	states      StateProvider
}

func New(states StateProvider) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		subs:        make(map[string]map[string]*Connection),
		states:      states,
	}
}

// HandleWebSocket upgrades the request and starts the connection pumps.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:        fmt.Sprintf("conn_%d", g.nextConnID),
		Conn:      conn,
		Send:      make(chan []byte, 256),
		Gateway:   g,
		LastPing:  time.Now(),
		narration: true,
		games:     make(map[string]bool),
	}
	g.connections[c.ID] = c
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s, total: %d", c.ID, len(g.connections))

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch env.Type {
	case "subscribe":
		var req subscribeRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil || req.GameID == "" {
			c.sendError("subscribe requires a game_id")
			return
		}
		c.Gateway.subscribe(c, req.GameID)
	case "unsubscribe":
		var req subscribeRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil || req.GameID == "" {
			c.sendError("unsubscribe requires a game_id")
			return
		}
		c.Gateway.unsubscribe(c, req.GameID)
	case "set_narration":
		var req narrationRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.sendError("invalid set_narration payload")
			return
		}
		c.mu.Lock()
		c.narration = req.Enabled
		c.mu.Unlock()
	default:
		log.Printf("[Gateway] Unknown message type %q from %s", env.Type, c.ID)
	}
}

func (g *Gateway) subscribe(c *Connection, gameID string) {
	g.mu.Lock()
	if g.subs[gameID] == nil {
		g.subs[gameID] = make(map[string]*Connection)
	}
	g.subs[gameID][c.ID] = c
	g.mu.Unlock()

	c.mu.Lock()
	c.games[gameID] = true
	c.mu.Unlock()

	log.Printf("[Gateway] %s subscribed to %s", c.ID, gameID)

	// Immediate snapshot so the client does not wait for the next event.
	if g.states != nil {
		if state, err := g.states.ClientState(gameID); err == nil {
			c.send("state_changed", state)
		} else {
			c.sendError(fmt.Sprintf("unknown game %s", gameID))
		}
	}
}

func (g *Gateway) unsubscribe(c *Connection, gameID string) {
	g.mu.Lock()
	if conns := g.subs[gameID]; conns != nil {
		delete(conns, c.ID)
		if len(conns) == 0 {
			delete(g.subs, gameID)
		}
	}
	g.mu.Unlock()

	c.mu.Lock()
	delete(c.games, gameID)
	c.mu.Unlock()
}

// BroadcastToGame pushes an event to every subscriber of a game. Narration
// events skip connections that turned narration off.
func (g *Gateway) BroadcastToGame(gameID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Gateway] Marshal %s payload failed: %v", eventType, err)
		return
	}
	data, err := json.Marshal(Envelope{
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	g.mu.RLock()
	conns := make([]*Connection, 0, len(g.subs[gameID]))
	for _, c := range g.subs[gameID] {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	for _, c := range conns {
		if eventType == "narration" {
			c.mu.Lock()
			enabled := c.narration
			c.mu.Unlock()
			if !enabled {
				continue
			}
		}
		select {
		case c.Send <- data:
		default:
			// Drop if buffer full
		}
	}
}

func (c *Connection) send(eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(Envelope{
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Connection) sendError(msg string) {
	c.send("error", map[string]string{"message": msg})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeConnection drops the connection and all of its subscriptions.
func (g *Gateway) removeConnection(c *Connection) {
	c.mu.Lock()
	games := make([]string, 0, len(c.games))
	for id := range c.games {
		games = append(games, id)
	}
	c.mu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range games {
		if conns := g.subs[id]; conns != nil {
			delete(conns, c.ID)
			if len(conns) == 0 {
				delete(g.subs, id)
			}
		}
	}
	delete(g.connections, c.ID)
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, len(g.connections))
}
