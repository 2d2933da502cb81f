package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rt-chat-backend/internal/apierror"
	"rt-chat-backend/internal/models"
	"rt-chat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// fakeUserService implements UserProvider with canned data.
type fakeUserService struct {
	users     map[string]*models.User
	loggedOut []string
}

func newFakeUserService() *fakeUserService {
	now := time.Now()
	return &fakeUserService{
		users: map[string]*models.User{
			"alice": {
				ID: "alice", Username: "alice", Email: "alice@example.com",
				PasswordHash: "secret-hash", RefreshToken: "secret-refresh",
				CreatedAt: now, UpdatedAt: now,
			},
			"bob": {
				ID: "bob", Username: "bob", Email: "bob@example.com",
				PasswordHash: "secret-hash", RefreshToken: "secret-refresh",
				CreatedAt: now.Add(time.Second), UpdatedAt: now,
			},
		},
	}
}

func (s *fakeUserService) Register(_ context.Context, req services.RegisterRequest) (*models.User, error) {
	if req.Username == "" {
		return nil, apierror.BadRequest("invalid signup request")
	}
	user := &models.User{ID: req.Username, Username: req.Username, Email: req.Email, PasswordHash: "hash"}
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeUserService) Login(_ context.Context, req services.LoginRequest) (*models.User, *services.TokenPair, error) {
	for _, user := range s.users {
		if user.Email == req.Email {
			return user, &services.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
		}
	}
	return nil, nil, apierror.Unauthorized("invalid email or password")
}

func (s *fakeUserService) Logout(_ context.Context, userID string) error {
	s.loggedOut = append(s.loggedOut, userID)
	return nil
}

func (s *fakeUserService) RefreshTokens(_ context.Context, refreshToken string) (*services.TokenPair, error) {
	if refreshToken != "refresh" {
		return nil, apierror.Unauthorized("invalid refresh token")
	}
	return &services.TokenPair{AccessToken: "access2", RefreshToken: "refresh2"}, nil
}

func (s *fakeUserService) ChangePassword(_ context.Context, userID, oldPassword, newPassword string) error {
	return nil
}

func (s *fakeUserService) UpdateDetails(_ context.Context, userID string, req services.UpdateDetailsRequest) (*models.User, error) {
	return s.users[userID], nil
}

func (s *fakeUserService) UpdateAvatar(_ context.Context, userID, filename string, file io.Reader) (*models.User, error) {
	return s.users[userID], nil
}

func (s *fakeUserService) GetByID(_ context.Context, userID string) (*models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, apierror.NotFound("user not found")
	}
	return user, nil
}

func (s *fakeUserService) ListOtherUsers(_ context.Context, userID string) ([]*models.User, error) {
	if userID == "" {
		return nil, apierror.BadRequest("user not logged in")
	}
	users := make([]*models.User, 0)
	for _, user := range s.users {
		if user.ID != userID {
			users = append(users, user)
		}
	}
	return users, nil
}

func newUserRouter(svc UserProvider, callerID string) http.Handler {
	h := NewUserHandler(svc)
	r := chi.NewRouter()
	r.Post("/users/signup", h.Register)
	r.Post("/users/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(withUserID(callerID))
		r.Get("/users", h.ListOtherUsers)
		r.Get("/users/me", h.GetCurrentUser)
		r.Post("/users/logout", h.Logout)
		r.Post("/users/refresh-access-token", h.RefreshToken)
	})
	return r
}

func Test_ListOtherUsers_ExcludesCallerAndSecrets(t *testing.T) {
	req := require.New(t)
	router := newUserRouter(newFakeUserService(), "alice")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	req.Equal(http.StatusOK, rec.Code)

	// credential fields must never be serialized
	body := rec.Body.String()
	req.NotContains(body, "secret-hash")
	req.NotContains(body, "secret-refresh")
	req.NotContains(body, "password")
	req.NotContains(body, "refresh_token")

	var envelope struct {
		StatusCode int            `json:"statusCode"`
		Data       []*models.User `json:"data"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
	req.Equal(http.StatusOK, envelope.StatusCode)
	req.Len(envelope.Data, 1)
	req.Equal("bob", envelope.Data[0].ID)
}

func Test_Register_Returns201(t *testing.T) {
	req := require.New(t)
	router := newUserRouter(newFakeUserService(), "")

	body := strings.NewReader(`{"username":"carol","email":"carol@example.com","password":"sup3r-secret"}`)
	r := httptest.NewRequest(http.MethodPost, "/users/signup", body)
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	req.Equal(http.StatusCreated, rec.Code)
}

func Test_Register_InvalidBody(t *testing.T) {
	req := require.New(t)
	router := newUserRouter(newFakeUserService(), "")

	r := httptest.NewRequest(http.MethodPost, "/users/signup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	req.Equal(http.StatusBadRequest, rec.Code)
}

func Test_Login_ReturnsTokens(t *testing.T) {
	req := require.New(t)
	router := newUserRouter(newFakeUserService(), "")

	body := strings.NewReader(`{"email":"alice@example.com","password":"whatever1"}`)
	r := httptest.NewRequest(http.MethodPost, "/users/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
	req.Equal("access", envelope.Data.AccessToken)
	req.Equal("refresh", envelope.Data.RefreshToken)
}

func Test_RefreshToken_RequiresBodyField(t *testing.T) {
	req := require.New(t)
	router := newUserRouter(newFakeUserService(), "alice")

	r := httptest.NewRequest(http.MethodPost, "/users/refresh-access-token", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	req.Equal(http.StatusBadRequest, rec.Code)

	r = httptest.NewRequest(http.MethodPost, "/users/refresh-access-token", strings.NewReader(`{"refreshToken":"refresh"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	req.Equal(http.StatusOK, rec.Code)
}

func Test_Logout_UsesCallerIdentity(t *testing.T) {
	req := require.New(t)
	svc := newFakeUserService()
	router := newUserRouter(svc, "alice")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/logout", nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal([]string{"alice"}, svc.loggedOut)
}
