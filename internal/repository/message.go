package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rt-chat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, media_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var content sql.NullString
	if message.Content != "" {
		content = sql.NullString{String: message.Content, Valid: true}
	}
	_, err := r.db.Exec(ctx, query,
		message.ID, message.SenderID, message.ReceiverID, content, message.MediaURL, message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, media_url, created_at
		FROM messages
		WHERE id = $1
	`
	var message models.Message
	var content sql.NullString
	err := r.db.QueryRow(ctx, query, id).Scan(
		&message.ID, &message.SenderID, &message.ReceiverID, &content, &message.MediaURL, &message.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	message.Content = content.String
	return &message, nil
}

// ListConversation retrieves every message exchanged between two users, in
// either direction, oldest first.
func (r *MessageRepository) ListConversation(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, media_url, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, userID, peerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		var message models.Message
		var content sql.NullString
		err := rows.Scan(
			&message.ID, &message.SenderID, &message.ReceiverID, &content, &message.MediaURL, &message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		message.Content = content.String
		messages = append(messages, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// Delete removes a message by ID. Returns false when no row matched.
func (r *MessageRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM messages WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete message: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
