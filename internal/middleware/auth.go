package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenValidator verifies an access token and returns the user ID it names.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// Auth creates a middleware enforcing Bearer-token authentication
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := validator.ValidateAccessToken(parts[1])
			if err != nil {
				respondError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying the authenticated user ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// respondError sends an error envelope without importing the handlers package
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"statusCode":` + strconv.Itoa(statusCode) + `,"message":"` + message + `"}`))
}
