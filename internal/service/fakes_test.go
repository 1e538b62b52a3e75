package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/vapi"
)

// fakeVapi is an in-memory stand-in for the provider's assistant API.
type fakeVapi struct {
	mu         sync.Mutex
	assistants map[string]map[string]any
	calls      []string
	nextID     int

	// status codes forced per method; zero means normal behavior
	failCreate int
	failGet    int
	failUpdate int
	failDelete int
}

func newFakeVapi(t *testing.T) (*fakeVapi, *vapi.Client) {
	t.Helper()
	f := &fakeVapi{assistants: make(map[string]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, vapi.NewClient("test-key", vapi.WithBaseURL(srv.URL))
}

func (f *fakeVapi) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	id := strings.TrimPrefix(r.URL.Path, "/assistant/")

	fail := func(status int) bool {
		if status == 0 {
			return false
		}
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"message":"forced %d"}`, status)
		return true
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/assistant":
		if fail(f.failCreate) {
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.nextID++
		body["id"] = fmt.Sprintf("ext-%d", f.nextID)
		f.assistants[body["id"].(string)] = body
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)

	case r.Method == http.MethodGet:
		if fail(f.failGet) {
			return
		}
		a, ok := f.assistants[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(a)

	case r.Method == http.MethodPatch:
		if fail(f.failUpdate) {
			return
		}
		a, ok := f.assistants[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var patch map[string]any
		json.NewDecoder(r.Body).Decode(&patch)
		for k, v := range patch {
			a[k] = v
		}
		json.NewEncoder(w).Encode(a)

	case r.Method == http.MethodDelete:
		if fail(f.failDelete) {
			return
		}
		if _, ok := f.assistants[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.assistants, id)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeVapi) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeVapi) Remote(id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assistants[id]
	return a, ok
}

func (f *fakeVapi) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assistants)
}

func (f *fakeVapi) set(fn func(f *fakeVapi)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// mockProvider is a testify mock for cases the fake server can't stage.
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateAssistant(ctx context.Context, p vapi.AssistantPayload) (*vapi.RemoteAssistant, error) {
	args := m.Called(ctx, p)
	ra, _ := args.Get(0).(*vapi.RemoteAssistant)
	return ra, args.Error(1)
}

func (m *mockProvider) GetAssistant(ctx context.Context, id string) (*vapi.RemoteAssistant, error) {
	args := m.Called(ctx, id)
	ra, _ := args.Get(0).(*vapi.RemoteAssistant)
	return ra, args.Error(1)
}

func (m *mockProvider) UpdateAssistant(ctx context.Context, id string, p vapi.AssistantPayload) (*vapi.RemoteAssistant, error) {
	args := m.Called(ctx, id, p)
	ra, _ := args.Get(0).(*vapi.RemoteAssistant)
	return ra, args.Error(1)
}

func (m *mockProvider) DeleteAssistant(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type recordingNotifier struct {
	mu      sync.Mutex
	created []domain.Assistant
	updated []domain.Assistant
}

func (n *recordingNotifier) AssistantCreated(a *domain.Assistant) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, *a)
}

func (n *recordingNotifier) AssistantUpdated(a *domain.Assistant) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, *a)
}
