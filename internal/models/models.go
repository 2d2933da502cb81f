package models

import "time"

// User represents a registered account.
//
// PasswordHash and RefreshToken are never serialized; responses carry only
// the public projection.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Message represents a direct message between two users. A message always
// carries text and/or media. The "recieverId" wire name keeps the spelling
// existing clients depend on.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"recieverId"`
	Content    string    `json:"content,omitempty"`
	MediaURL   *string   `json:"media"`
	CreatedAt  time.Time `json:"createdAt"`
}
