package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks active WebSocket connections keyed by user id and fans events
// out to one or more users.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[int64]map[*websocket.Conn]struct{}),
	}
}

// Register adds a connection for the given user.
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

// Unregister removes a connection for the given user.
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.conns[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
	}
}

// BroadcastToUsers sends the payload to all active connections of the given
// users. Writes that fail close the connection; cleanup of the map entry is
// left to Unregister.
func (h *Hub) BroadcastToUsers(userIDs []int64, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range userIDs {
		conns, ok := h.conns[uid]
		if !ok {
			continue
		}
		for conn := range conns {
			if err := conn.WriteJSON(payload); err != nil {
				conn.Close()
			}
		}
	}
}

// BroadcastAll sends the payload to every connected user.
func (h *Hub) BroadcastAll(payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.conns {
		for conn := range conns {
			if err := conn.WriteJSON(payload); err != nil {
				conn.Close()
			}
		}
	}
}
