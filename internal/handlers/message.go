package handlers

import (
	"context"
	"errors"
	"net/http"

	"rt-chat-backend/internal/apierror"
	"rt-chat-backend/internal/middleware"
	"rt-chat-backend/internal/models"
	"rt-chat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MessageProvider is the service surface the message handler needs.
type MessageProvider interface {
	Send(ctx context.Context, in services.SendInput) (*models.Message, error)
	ListConversation(ctx context.Context, userID, peerID string) ([]*models.Message, error)
	Delete(ctx context.Context, callerID, messageID string) error
}

// MessageHandler handles message HTTP requests
type MessageHandler struct {
	messageService MessageProvider
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService MessageProvider) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// ListMessages handles GET /api/v1/messages/{id}
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	peerID := chi.URLParam(r, "id")

	messages, err := h.messageService.ListConversation(r.Context(), userID, peerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, messages, "messages fetched successfully")
}

// SendMessage handles POST /api/v1/messages/{id}. The body is multipart form
// data with a "content" field and/or a "media" file.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	receiverID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, r, apierror.Wrap(http.StatusBadRequest, "invalid multipart body", err))
		return
	}

	in := services.SendInput{
		SenderID:   userID,
		ReceiverID: receiverID,
		Content:    r.FormValue("content"),
	}

	file, header, err := r.FormFile("media")
	switch {
	case err == nil:
		defer file.Close()
		in.Media = file
		in.MediaName = header.Filename
	case errors.Is(err, http.ErrMissingFile):
		// text-only message
	default:
		respondError(w, r, apierror.Wrap(http.StatusBadRequest, "invalid media file", err))
		return
	}

	message, err := h.messageService.Send(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Str("message_id", message.ID).
		Str("sender_id", message.SenderID).
		Str("receiver_id", message.ReceiverID).
		Msg("Message sent")
	respond(w, http.StatusCreated, message, "message sent successfully")
}

// DeleteMessage handles DELETE /api/v1/messages/{messageId}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "messageId")

	if err := h.messageService.Delete(r.Context(), userID, messageID); err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("message_id", messageID).Str("user_id", userID).Msg("Message deleted")
	respond(w, http.StatusOK, struct{}{}, "message deleted successfully")
}
