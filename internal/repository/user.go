package repository

import (
	"context"
	"errors"
	"fmt"

	"rt-chat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a queried record does not exist.
var ErrNotFound = errors.New("record not found")

const userColumns = `id, username, email, full_name, avatar_url, password_hash, refresh_token, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, full_name, avatar_url, password_hash, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.AvatarURL,
		user.PasswordHash, user.RefreshToken, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

// UsernameOrEmailExists checks whether a username or email is already taken
func (r *UserRepository) UsernameOrEmailExists(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// ListExcept retrieves all users except the given one
func (r *UserRepository) ListExcept(ctx context.Context, userID string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id <> $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateRefreshToken stores the user's current refresh token; empty clears it
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, refreshToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	return nil
}

// UpdatePassword replaces the user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateDetails updates the user's mutable profile fields
func (r *UserRepository) UpdateDetails(ctx context.Context, userID, fullName, email string) error {
	query := `UPDATE users SET full_name = $1, email = $2, updated_at = now() WHERE id = $3`
	_, err := r.db.Exec(ctx, query, fullName, email, userID)
	if err != nil {
		return fmt.Errorf("failed to update user details: %w", err)
	}
	return nil
}

// UpdateAvatarURL replaces the user's avatar URL
func (r *UserRepository) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar url: %w", err)
	}
	return nil
}

func (r *UserRepository) scanOne(row pgx.Row) (*models.User, error) {
	var user models.User
	err := scanUser(row, &user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func scanUser(row pgx.Row, user *models.User) error {
	return row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.AvatarURL,
		&user.PasswordHash, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
}
