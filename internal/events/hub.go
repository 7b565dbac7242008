// Package events fans allocation domain events out to connected websocket
// subscribers. Publishing is fire-and-forget: a slow or dead subscriber is
// skipped, never blocked on.
package events

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/lotwise-io/lotwisego/internal/allocation"
)

// Hub maintains the set of active subscribers and broadcasts events
type Hub struct {
	// Registered subscribers map: SubscriberID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Outbound event payloads
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.SubscriberID != "" {
				// If a subscriber reconnects, close the old connection
				if old, ok := h.clients[client.SubscriberID]; ok {
					close(old.send)
					delete(h.clients, client.SubscriberID)
				}
				h.clients[client.SubscriberID] = client
				log.Printf("🔔 Subscriber connected: %s", client.SubscriberID)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if client.SubscriberID != "" {
				if _, ok := h.clients[client.SubscriberID]; ok {
					delete(h.clients, client.SubscriberID)
					close(client.send)
					log.Printf("🔕 Subscriber disconnected: %s", client.SubscriberID)
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish implements the engine's EventSink: serialize and broadcast.
func (h *Hub) Publish(event allocation.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("⚠️ Event buffer full, dropping %s for reservation %d", event.Type, event.ReservationID)
	}
}
