package handlers

import (
	"net/http"

	"rt-chat-backend/internal/middleware"
)

// withUserID stands in for the auth middleware in tests, forcing the caller
// identity the handlers read from context.
func withUserID(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	}
}
