package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/auth"
	"github.com/vedran77/receptionist/internal/logging"
)

type contextKey string

const IdentityKey contextKey = "identity"

// TokenVerifier checks a bearer token and returns the identity it asserts.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Auth rejects requests without a valid bearer token. Missing and invalid
// tokens get the same response; the reason is only logged.
func Auth(tokens TokenVerifier, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				log.Debug(r.Context(), "rejecting request", "reason", "missing credential")
				unauthorized(w)
				return
			}

			identity, err := tokens.Verify(strings.TrimSpace(tokenStr))
			if err != nil {
				log.Debug(r.Context(), "rejecting request", "reason", "invalid credential", "error", err)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Please authenticate"}}`))
}

// GetIdentity returns the caller stored by Auth.
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(auth.Identity)
	return id, ok
}

// GetUserID extracts user ID from request context. It must only be called
// behind Auth.
func GetUserID(ctx context.Context) uuid.UUID {
	return ctx.Value(IdentityKey).(auth.Identity).ID
}
