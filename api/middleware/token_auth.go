package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/igorsal/pr-reviewer/internal/interfaces"
	pkgerrors "github.com/igorsal/pr-reviewer/pkg/errors"
)

// TokenAuthMiddleware requires "Authorization: Bearer <token>" matching the
// configured token. An empty configured token rejects every request.
func TokenAuthMiddleware(token string, logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := extractToken(r)
			if provided == "" {
				WriteError(w, r, logger, pkgerrors.NewUnauthorizedError("authorization token required"))
				return
			}

			if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				WriteError(w, r, logger, pkgerrors.NewUnauthorizedError("invalid token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}
