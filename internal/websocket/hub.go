// Package websocket keeps concurrent tabs of the same device in sync. The
// usage counter has last-writer-wins semantics across tabs, so after an
// increment every other tab of that device is nudged with the fresh decision.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a notification sent to a device's connected tabs.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub maintains active connections grouped by device ID.
type Hub struct {
	mu      sync.RWMutex
	devices map[string]map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		devices: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to its device's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.devices[c.deviceID]
	if !ok {
		room = make(map[*Client]struct{})
		h.devices[c.deviceID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Empty rooms are
// dropped so the map doesn't grow with every device ever seen.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.devices[c.deviceID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.devices, c.deviceID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every connection of the given device.
func (h *Hub) Broadcast(deviceID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.devices[deviceID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connections for a device.
func (h *Hub) ClientCount(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.devices[deviceID])
}
