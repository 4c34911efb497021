package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

// UserIDFromContext returns the user id placed by ValidateToken.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(contextKey{}).(int)
	return id, ok
}

type Middleware struct {
	tokens  *TokenIssuer
	session *Store
}

func NewMiddleware(tokens *TokenIssuer, session *Store) *Middleware {
	return &Middleware{
		tokens:  tokens,
		session: session,
	}
}

// ValidateToken admits requests carrying a valid bearer token for the
// user currently logged in.
func (m *Middleware) ValidateToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		userID, err := m.tokens.Parse(parts[1])
		if err != nil {
			slog.Warn("Invalid token attempt", "error", err)
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		current, ok := m.session.Current()
		if !ok || current.ID != userID {
			slog.Warn("Token does not match session", "token_user_id", userID)
			http.Error(w, "Session expired", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, userID)
		next(w, r.WithContext(ctx))
	}
}
