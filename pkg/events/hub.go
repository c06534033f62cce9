// Package events provides a thread-safe websocket broadcast hub for the
// runtime's status and audit event stream, using the channel-based fan-out
// pattern.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/grumpylabs/reachy-runtime/internal/log"
)

// Envelope is one event on the stream.
type Envelope struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
	TS    string         `json:"ts"`
}

// Hub maintains the set of active clients and broadcasts events to them.
// Publishers never block: a full broadcast buffer drops the event, a slow
// client gets disconnected.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
}

// NewHub creates a hub. Call Run in a goroutine before publishing.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop. This should be called in a goroutine.
func (h *Hub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("event client connected", "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("event client disconnected", "remaining", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client buffer full - too slow, drop them.
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow event client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts an event envelope. Never blocks.
func (h *Hub) Publish(event string, data map[string]any) {
	env := Envelope{
		Event: event,
		Data:  data,
		TS:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		log.Error("event marshal failed", "event", event, "err", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Warn("event broadcast buffer full; dropping", "event", event)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether Run has been started.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
