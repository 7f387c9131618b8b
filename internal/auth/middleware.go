package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/StudyForge-io/studyforge/internal/database"
)

type contextKey string

const (
	UserContextKey contextKey = "user"

	// API tokens are distinguished from JWTs by prefix so the middleware
	// knows which validation path to take.
	apiTokenPrefix = "sfk_"
)

// Identity is what the middleware resolves from a bearer credential.
type Identity struct {
	UserID string
	Email  string
}

// Middleware validates the Authorization header and injects the resolved
// identity into the request context. Both JWTs and long-lived API tokens
// are accepted.
func Middleware(tokenManager *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Unauthorized")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "Invalid authorization header")
				return
			}

			var identity *Identity
			if strings.HasPrefix(parts[1], apiTokenPrefix) {
				t, err := database.GetTokenByValue(parts[1])
				if err != nil || (t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now())) {
					unauthorized(w, "Invalid token")
					return
				}
				identity = &Identity{UserID: t.UserID}
			} else {
				claims, err := tokenManager.ValidateToken(parts[1])
				if err != nil {
					unauthorized(w, "Invalid token")
					return
				}
				identity = &Identity{UserID: claims.UserID, Email: claims.Email}
			}

			ctx := context.WithValue(r.Context(), UserContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// GetIdentityFromContext retrieves the resolved identity from the context
func GetIdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(UserContextKey).(*Identity)
	return identity, ok
}
