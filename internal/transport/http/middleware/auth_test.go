package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/receptionist/internal/auth"
	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/logging"
)

const unauthorizedBody = `{"error":{"code":"UNAUTHORIZED","message":"Please authenticate"}}`

func TestAuth(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	user := &domain.User{ID: uuid.New(), Email: "alice@example.com"}
	valid, err := tokens.Issue(user)
	require.NoError(t, err)

	expired, err := tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).Issue(user)
	require.NoError(t, err)

	forged, err := auth.NewTokenService("other-secret", time.Hour).Issue(user)
	require.NoError(t, err)

	var seen auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetIdentity(r.Context())
		assert.Equal(t, user.ID, GetUserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	h := Auth(tokens, logging.Nop())(next)

	t.Run("valid token passes identity through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, user.ID, seen.ID)
		assert.Equal(t, user.Email, seen.Email)
	})

	rejected := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + valid,
		"empty bearer":   "Bearer ",
		"garbage":        "Bearer not-a-token",
		"expired":        "Bearer " + expired,
		"wrong secret":   "Bearer " + forged,
	}
	for name, header := range rejected {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, unauthorizedBody, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestGetIdentity_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetIdentity(req.Context())
	assert.False(t, ok)
}
