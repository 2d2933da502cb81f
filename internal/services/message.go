package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"rt-chat-backend/internal/apierror"
	"rt-chat-backend/internal/models"
	"rt-chat-backend/internal/repository"

	"github.com/google/uuid"
)

// MessageStore is the persistence surface the message service needs.
type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListConversation(ctx context.Context, userID, peerID string) ([]*models.Message, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// PeerNotifier pushes an event to a user's live connection, if any. Delivery
// is best-effort: implementations must not return errors to callers.
type PeerNotifier interface {
	NotifyNewMessage(userID string, message *models.Message)
}

// MessageService handles conversations between users
type MessageService struct {
	messageRepo MessageStore
	media       MediaUploader
	notifier    PeerNotifier
}

// NewMessageService creates a new message service
func NewMessageService(messageRepo MessageStore, media MediaUploader, notifier PeerNotifier) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		media:       media,
		notifier:    notifier,
	}
}

// SendInput is everything a send needs. Media is the optional uploaded file;
// MediaName carries its original filename for the storage key.
type SendInput struct {
	SenderID   string
	ReceiverID string
	Content    string
	Media      io.Reader
	MediaName  string
}

// Send uploads the media (if any), creates the message and pushes a
// best-effort newMessage event to the receiver. Upload failure aborts the
// send; notification failure never does.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*models.Message, error) {
	if in.SenderID == "" || in.ReceiverID == "" {
		return nil, apierror.BadRequest("user doesn't exist")
	}
	if in.Content == "" && in.Media == nil {
		return nil, apierror.BadRequest("message empty")
	}

	var mediaURL *string
	if in.Media != nil {
		url, err := s.media.Upload(ctx, "messages/"+in.SenderID, in.MediaName, in.Media)
		if err != nil {
			return nil, apierror.Upstream("unable to upload media", err)
		}
		mediaURL = &url
	}

	message := &models.Message{
		ID:         uuid.New().String(),
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
		MediaURL:   mediaURL,
		CreatedAt:  time.Now(),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// The message is committed; the push must not be able to fail the send.
	s.notifier.NotifyNewMessage(in.ReceiverID, message)

	return message, nil
}

// ListConversation returns every message between the caller and the peer, in
// either direction, oldest first.
func (s *MessageService) ListConversation(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	if userID == "" || peerID == "" {
		return nil, apierror.BadRequest("user doesn't exist")
	}
	messages, err := s.messageRepo.ListConversation(ctx, userID, peerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	return messages, nil
}

// Delete removes a message. Only a participant may delete it; deleting an id
// that does not exist succeeds, so retries are harmless and existence is not
// leaked to non-participants.
func (s *MessageService) Delete(ctx context.Context, callerID, messageID string) error {
	if messageID == "" {
		return apierror.BadRequest("no message selected")
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get message: %w", err)
	}

	if message.SenderID != callerID && message.ReceiverID != callerID {
		return apierror.Forbidden("not a participant of this message")
	}

	if _, err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
