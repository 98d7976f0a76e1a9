package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"harmony/internal/auth"
	"harmony/internal/models"
	"harmony/internal/store"
)

type contextKey string

const UserKey contextKey = "user"

// UserFrom returns the authenticated user placed in the context by Auth.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// Auth validates the Authorization bearer token against the same rule as the
// websocket handshake and stores the resolved user in the request context.
func Auth(tokens *auth.Tokens, s store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "missing or invalid token")
				return
			}

			user, err := tokens.Authenticate(s, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
