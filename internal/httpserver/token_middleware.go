package httpserver

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const tokenContextKey contextKey = "sessionToken"

// TokenMiddleware extracts the raw session token from the Authorization
// header (or a ?token= query parameter) and attaches it to the request
// context. Validation happens in the service layer so that a missing or
// stale token surfaces as the same error as any other rejected session.
func TokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		ctx := context.WithValue(r.Context(), tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionToken returns the raw token attached by TokenMiddleware, or "".
func SessionToken(r *http.Request) string {
	if v := r.Context().Value(tokenContextKey); v != nil {
		if t, ok := v.(string); ok {
			return t
		}
	}
	return ""
}
