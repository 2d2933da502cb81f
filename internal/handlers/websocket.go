package handlers

import (
	"net/http"

	"rt-chat-backend/internal/apierror"
	"rt-chat-backend/internal/middleware"
	"rt-chat-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades connections and registers them in the hub
type WebSocketHandler struct {
	hub       *services.WSHub
	validator middleware.TokenValidator
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, validator middleware.TokenValidator) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, validator: validator}
}

// HandleWebSocket handles GET /ws?token=...
//
// Clients only receive events on this connection; inbound frames are read and
// discarded until the peer closes.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, r, apierror.Unauthorized("token required"))
		return
	}

	userID, err := h.validator.ValidateAccessToken(token)
	if err != nil {
		respondError(w, r, apierror.Unauthorized("invalid token"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}
	}
}
