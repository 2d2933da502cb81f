package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	userID string
	err    error
}

func (v *fakeValidator) ValidateAccessToken(token string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	return v.userID, nil
}

func protected(t *testing.T, validator TokenValidator) (http.Handler, *string) {
	t.Helper()
	var seen string
	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &seen
}

func Test_Auth_MissingHeader(t *testing.T) {
	req := require.New(t)
	handler, _ := protected(t, &fakeValidator{userID: "alice"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	req.Equal(http.StatusUnauthorized, rec.Code)
}

func Test_Auth_BadFormat(t *testing.T) {
	req := require.New(t)
	handler, _ := protected(t, &fakeValidator{userID: "alice"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	req.Equal(http.StatusUnauthorized, rec.Code)
}

func Test_Auth_InvalidToken(t *testing.T) {
	req := require.New(t)
	handler, _ := protected(t, &fakeValidator{err: fmt.Errorf("expired")})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	req.Equal(http.StatusUnauthorized, rec.Code)
}

func Test_Auth_ValidTokenSetsUserID(t *testing.T) {
	req := require.New(t)
	handler, seen := protected(t, &fakeValidator{userID: "alice"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("alice", *seen)
}

func Test_GetUserID_EmptyWithoutAuth(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, GetUserID(r.Context()))
}
