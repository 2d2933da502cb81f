package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rt-chat-backend/internal/apierror"
	"rt-chat-backend/internal/models"
	"rt-chat-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var validate = validator.New()

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameOrEmailExists(ctx context.Context, username, email string) (bool, error)
	ListExcept(ctx context.Context, userID string) ([]*models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateDetails(ctx context.Context, userID, fullName, email string) error
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
}

// TokenClaims is the payload carried by both access and refresh tokens.
type TokenClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserService handles accounts, credentials and tokens
type UserService struct {
	userRepo   UserStore
	media      MediaUploader
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore, media MediaUploader, jwtSecret string, accessTTL, refreshTTL time.Duration) *UserService {
	return &UserService{
		userRepo:   userRepo,
		media:      media,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// RegisterRequest is the signup payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"max=128"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair carries a freshly issued access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates a new account
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apierror.Wrap(http.StatusBadRequest, "invalid signup request", err)
	}

	exists, err := s.userRepo.UsernameOrEmailExists(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, apierror.New(http.StatusConflict, "username or email already taken")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a token pair. The refresh token is
// persisted so it can be rotated and revoked.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*models.User, *TokenPair, error) {
	if err := validate.Struct(req); err != nil {
		return nil, nil, apierror.Wrap(http.StatusBadRequest, "invalid login request", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apierror.Unauthorized("invalid email or password")
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	match, err := ComparePassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compare password: %w", err)
	}
	if !match {
		return nil, nil, apierror.Unauthorized("invalid email or password")
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout revokes the user's stored refresh token
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// RefreshTokens validates a refresh token against the stored one and rotates
// the pair. A token that is expired, malformed or already rotated is rejected.
func (s *UserService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, apierror.Wrap(http.StatusUnauthorized, "invalid refresh token", err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, apierror.Unauthorized("refresh token revoked")
	}

	return s.issueTokens(ctx, user.ID)
}

// ChangePassword verifies the old password and stores a new hash
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apierror.BadRequest("new password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	match, err := ComparePassword(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	if !match {
		return apierror.Unauthorized("old password is incorrect")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateDetailsRequest is the profile update payload
type UpdateDetailsRequest struct {
	FullName string `json:"fullName" validate:"max=128"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// UpdateDetails updates mutable profile fields, keeping current values for
// fields the request leaves empty.
func (s *UserService) UpdateDetails(ctx context.Context, userID string, req UpdateDetailsRequest) (*models.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apierror.Wrap(http.StatusBadRequest, "invalid update request", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	fullName := user.FullName
	if req.FullName != "" {
		fullName = req.FullName
	}
	email := user.Email
	if req.Email != "" {
		email = req.Email
	}

	if err := s.userRepo.UpdateDetails(ctx, userID, fullName, email); err != nil {
		return nil, fmt.Errorf("failed to update details: %w", err)
	}

	user.FullName = fullName
	user.Email = email
	return user, nil
}

// UpdateAvatar uploads the picture to media storage and stores its URL
func (s *UserService) UpdateAvatar(ctx context.Context, userID, filename string, file io.Reader) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	url, err := s.media.Upload(ctx, "avatars/"+userID, filename, file)
	if err != nil {
		return nil, apierror.Upstream("unable to upload profile picture", err)
	}

	if err := s.userRepo.UpdateAvatarURL(ctx, userID, url); err != nil {
		return nil, fmt.Errorf("failed to update avatar url: %w", err)
	}
	user.AvatarURL = url
	return user, nil
}

// GetByID returns the user's own record
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListOtherUsers returns every user except the caller. An empty table yields
// an empty slice, not an error.
func (s *UserService) ListOtherUsers(ctx context.Context, userID string) ([]*models.User, error) {
	if userID == "" {
		return nil, apierror.BadRequest("user not logged in")
	}
	users, err := s.userRepo.ListExcept(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ValidateAccessToken parses an access token and returns the user ID
func (s *UserService) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.parseToken(tokenString, tokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *UserService) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.signToken(userID, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.signToken(userID, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) signToken(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *UserService) parseToken(tokenString, wantType string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("wrong token type")
	}
	return claims, nil
}
