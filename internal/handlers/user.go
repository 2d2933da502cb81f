package handlers

import (
	"context"
	"io"
	"net/http"

	"rt-chat-backend/internal/apierror"
	"rt-chat-backend/internal/middleware"
	"rt-chat-backend/internal/models"
	"rt-chat-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 16 << 20 // 16 MiB

// UserProvider is the service surface the user handler needs.
type UserProvider interface {
	Register(ctx context.Context, req services.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req services.LoginRequest) (*models.User, *services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	RefreshTokens(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateDetails(ctx context.Context, userID string, req services.UpdateDetailsRequest) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID, filename string, file io.Reader) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	ListOtherUsers(ctx context.Context, userID string) ([]*models.User, error)
}

// UserHandler handles account and user-listing HTTP requests
type UserHandler struct {
	userService UserProvider
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserProvider) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register handles POST /api/v1/users/signup
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	respond(w, http.StatusCreated, user, "user registered successfully")
}

// loginResponse bundles the user with a fresh token pair
type loginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Login handles POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, pair, err := h.userService.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")
	respond(w, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "logged in successfully")
}

// Logout handles POST /api/v1/users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.userService.Logout(r.Context(), userID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, struct{}{}, "logged out successfully")
}

// RefreshToken handles POST /api/v1/users/refresh-access-token
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		respondError(w, r, apierror.BadRequest("refreshToken is required"))
		return
	}

	pair, err := h.userService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, pair, "token refreshed successfully")
}

// ChangePassword handles POST /api/v1/users/change-password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, struct{}{}, "password changed successfully")
}

// UpdateDetails handles PATCH /api/v1/users/update-details
func (h *UserHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.UpdateDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.userService.UpdateDetails(r.Context(), userID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, user, "details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/update-profilepic
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("profilepic")
	if err != nil {
		respondError(w, r, apierror.Wrap(http.StatusBadRequest, "profilepic file is required", err))
		return
	}
	defer file.Close()

	user, err := h.userService.UpdateAvatar(r.Context(), userID, header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("user_id", userID).Str("avatar_url", user.AvatarURL).Msg("Avatar updated")
	respond(w, http.StatusOK, user, "profile picture updated successfully")
}

// GetCurrentUser handles GET /api/v1/users/me
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, user, "user fetched successfully")
}

// ListOtherUsers handles GET /api/v1/users
func (h *UserHandler) ListOtherUsers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	users, err := h.userService.ListOtherUsers(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, users, "user list fetched successfully")
}
