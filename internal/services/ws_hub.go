package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"rt-chat-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope pushed to connected clients.
type WSEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// WSHub tracks the live WebSocket connection of each user. It implements
// PeerNotifier: delivery is best-effort and failures are only logged.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a user's connection, replacing any previous one
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's connection if conn is still the current one
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.connections[userID]; ok && current == conn {
		current.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user has a live connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// SendToUser sends an event to a specific user
func (h *WSHub) SendToUser(userID string, event WSEvent) error {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// NotifyNewMessage pushes a newMessage event to the receiver's connection.
// A receiver without a connection is a no-op; a write failure is logged and
// swallowed so it can never fail the send that triggered it.
func (h *WSHub) NotifyNewMessage(userID string, message *models.Message) {
	if !h.IsOnline(userID) {
		return
	}
	if err := h.SendToUser(userID, WSEvent{Event: "newMessage", Data: message}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to push newMessage event")
	}
}
