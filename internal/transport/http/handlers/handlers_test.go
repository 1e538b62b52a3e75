package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/receptionist/internal/auth"
	"github.com/vedran77/receptionist/internal/logging"
	"github.com/vedran77/receptionist/internal/repository/memory"
	"github.com/vedran77/receptionist/internal/service"
	"github.com/vedran77/receptionist/internal/storage"
	"github.com/vedran77/receptionist/internal/transport/http/middleware"
	"github.com/vedran77/receptionist/internal/vapi"
)

// provider is a minimal stand-in for the voice provider API.
type provider struct {
	mu        sync.Mutex
	next      int
	status    int // forced status for every call when non-zero
	lastPatch map[string]any
}

func (p *provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != 0 {
		w.WriteHeader(p.status)
		return
	}

	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	switch r.Method {
	case http.MethodPost:
		p.next++
		body["id"] = fmt.Sprintf("ext-%d", p.next)
		w.WriteHeader(http.StatusCreated)
	case http.MethodPatch:
		p.lastPatch = body
		body["id"] = strings.TrimPrefix(r.URL.Path, "/assistant/")
	}
	json.NewEncoder(w).Encode(body)
}

func (p *provider) fail(status int) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

type mockLogos struct{ mock.Mock }

func (m *mockLogos) PresignUpload(ctx context.Context, ownerID uuid.UUID, contentType string) (*storage.LogoUpload, error) {
	args := m.Called(ctx, ownerID, contentType)
	upload, _ := args.Get(0).(*storage.LogoUpload)
	return upload, args.Error(1)
}

type api struct {
	t        *testing.T
	handler  http.Handler
	provider *provider
	logos    *mockLogos
	assists  *memory.AssistantRepo
	locker   *service.LocalLocker
}

func newAPI(t *testing.T, withLogos bool) *api {
	t.Helper()

	p := &provider{}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	log := logging.Nop()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	users := memory.NewUserRepo()
	assists := memory.NewAssistantRepo()
	locker := service.NewLocalLocker(5 * time.Second)

	authSvc := service.NewAuthService(users, tokens, auth.NewPasswordHasher(4), log)
	assistantSvc := service.NewAssistantService(assists, memory.NewReconciliationRepo(),
		vapi.NewClient("test-key", vapi.WithBaseURL(srv.URL)), locker, nil, log)

	a := &api{t: t, provider: p, assists: assists, locker: locker}
	var logos LogoPresigner
	if withLogos {
		a.logos = &mockLogos{}
		logos = a.logos
	}

	a.handler = NewRouter(RouterConfig{
		Auth:        NewAuthHandler(authSvc, logos, log),
		Assistants:  NewAssistantHandler(assistantSvc, log),
		Tokens:      tokens,
		Counter:     middleware.NewLocalCounter(),
		RateLimit:   middleware.RateLimitConfig{RequestsPerMinute: 100},
		CORSOrigins: []string{"http://localhost:3000"},
		Log:         log,
	})
	return a
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *api) register(email string) (token string, userID string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":        email,
		"password":     "secret123",
		"businessName": "Acme",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(a.t, rec, &resp)
	return resp.Token, resp.User.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, rec, &env)
	return env.Error.Code
}

var frontDesk = map[string]any{
	"name":                 "Front Desk",
	"voiceProvider":        "11labs",
	"languageCode":         "en-US",
	"introMessage":         "Hello, how can I help?",
	"webhookUrl":           "https://hooks.example.com/calls",
	"transcriptionEnabled": true,
	"availability": map[string]any{
		"monday": []map[string]string{{"start": "09:00", "end": "17:00"}},
	},
}
