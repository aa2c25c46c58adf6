package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/store"
)

type contextKey string

const (
	// SessionContextKey carries the resolved *store.Session.
	SessionContextKey contextKey = "session"
	// TokenContextKey carries the raw bearer token, so logout can revoke it.
	TokenContextKey contextKey = "session_token"
)

// SessionResolver resolves bearer tokens to sessions. Implemented by
// store.RedisStore; faked in tests.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*store.Session, error)
}

// AuthMiddleware authenticates requests by bearer session token.
type AuthMiddleware struct {
	sessions SessionResolver
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireAuth rejects requests without a valid session token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			jsonError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		sess, err := m.sessions.GetSession(r.Context(), token)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if sess == nil {
			jsonError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, sess)
		ctx = context.WithValue(ctx, TokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated requests from non-admin roles. Must be
// mounted inside RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())
		if sess == nil {
			jsonError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if sess.Role != models.RoleAdmin {
			jsonError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetSessionFromContext retrieves the authenticated session from the request
// context.
func GetSessionFromContext(ctx context.Context) *store.Session {
	sess, ok := ctx.Value(SessionContextKey).(*store.Session)
	if !ok {
		return nil
	}
	return sess
}

// GetTokenFromContext retrieves the raw bearer token from the request
// context.
func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenContextKey).(string)
	return token
}
