// Package realtime pushes notifications to connected websocket clients.
// Delivery is best effort: there is no queueing or replay, a user with no
// open connections simply receives nothing.
package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Envelope is the wire format for every pushed message.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes on the connection
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub is a per-user registry of websocket connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

// Attach registers the connection for the user and blocks reading it until
// the peer disconnects. Inbound frames are discarded; the channel is
// push-only.
func (h *Hub) Attach(userID string, conn *websocket.Conn) {
	c := &client{conn: conn}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	_ = c.writeJSON(Envelope{Event: "connected"})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.detach(userID, c)
	_ = conn.Close()
}

func (h *Hub) detach(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
}

// EmitToUser sends an event to every connection of the user and returns
// how many received it. Connections that fail to write are evicted.
func (h *Hub) EmitToUser(userID, event string, payload any) int {
	h.mu.RLock()
	set := h.clients[userID]
	targets := make([]*client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.writeJSON(Envelope{Event: event, Data: payload}); err != nil {
			log.Printf("realtime: dropping client for user=%s: %v", userID, err)
			h.detach(userID, c)
			_ = c.conn.Close()
			continue
		}
		delivered++
	}
	return delivered
}

// ClientCount reports how many connections the user currently has.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
