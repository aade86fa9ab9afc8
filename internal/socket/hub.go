package socket

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub tracks the live WebSocket connection per user. One connection per
// user: a new connection for the same user replaces the old one.
type Hub struct {
	clients map[string]*websocket.Conn
	mu      sync.RWMutex
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		log:     log,
	}
}

// Register adds a client connection keyed by user ID.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[userID]; ok {
		old.Close()
	}
	h.clients[userID] = conn
	h.log.Info("websocket client registered", zap.String("userId", userID))
}

// Unregister drops a client, but only if the stored connection is the one
// being closed; a replacing connection stays registered.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[userID]; ok && current == conn {
		delete(h.clients, userID)
		h.log.Info("websocket client unregistered", zap.String("userId", userID))
	}
}

// Send delivers a message to one user. An offline user is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	conn, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return nil
	}
	return conn.WriteMessage(websocket.TextMessage, message)
}
