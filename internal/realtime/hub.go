package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rifat-dv/meshly/backend/pkg/logger"
)

// Event kinds pushed over the realtime channel.
const (
	EventNewMessage   = "new_message"
	EventNotification = "notification"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans events out to every active connection of a user. A user may hold
// several concurrent connections (devices, tabs); all of them receive each
// event. Delivery is at-most-once and best-effort: nothing is queued for
// offline users, clients re-fetch on reconnect.
//
// The hub is an explicitly owned object injected into the services that push
// through it; there is no package-level singleton.
type Hub struct {
	users map[uint]map[*Client]bool
	mu    sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[uint]map[*Client]bool),
	}
}

// Register adds a client connection for a user.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[client.userID]; !ok {
		h.users[client.userID] = make(map[*Client]bool)
	}
	h.users[client.userID][client] = true
}

// Unregister removes a client connection and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[client.userID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.users, client.userID)
			}
		}
	}
}

// Push sends an event to all connections of the given users. Sends are
// non-blocking so one slow client cannot stall the hub; a full buffer means
// the event is dropped for that connection.
func (h *Hub) Push(event Event, userIDs ...uint) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.WithError(err).Error("failed to marshal realtime event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		for client := range h.users[userID] {
			select {
			case client.send <- payload:
			default:
				// Client buffer is full; the connection is slow or gone.
				// The read/write pumps will clean it up.
			}
		}
	}
}

// ConnectionCount returns the number of active connections for a user.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
