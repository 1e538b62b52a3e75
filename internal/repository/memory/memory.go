// Package memory provides in-process repository implementations. They back
// the server's --in-memory development mode and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/repository"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Profile = user.Profile
	stored.UpdatedAt = user.UpdatedAt
	r.users[user.ID] = stored
	return nil
}

type AssistantRepo struct {
	mu         sync.RWMutex
	assistants map[uuid.UUID]domain.Assistant

	// FailCreate, when set, is returned by Create. Tests use it to simulate a
	// local write failure after the provider call succeeded.
	FailCreate error
}

func NewAssistantRepo() *AssistantRepo {
	return &AssistantRepo{assistants: make(map[uuid.UUID]domain.Assistant)}
}

func (r *AssistantRepo) Create(_ context.Context, a *domain.Assistant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCreate != nil {
		return r.FailCreate
	}
	r.assistants[a.ID] = cloneAssistant(*a)
	return nil
}

func (r *AssistantRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*domain.Assistant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assistants[id]
	if !ok || a.OwnerID != ownerID {
		return nil, nil
	}
	a = cloneAssistant(a)
	return &a, nil
}

func (r *AssistantRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Assistant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Assistant
	for _, a := range r.assistants {
		if a.OwnerID == ownerID {
			out = append(out, cloneAssistant(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *AssistantRepo) Update(_ context.Context, a *domain.Assistant, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.assistants[a.ID]
	if !ok || stored.OwnerID != a.OwnerID || stored.Version != expectedVersion {
		return repository.ErrStaleVersion
	}
	// external id and owner are never rewritten
	updated := cloneAssistant(*a)
	updated.ExternalID = stored.ExternalID
	updated.CreatedAt = stored.CreatedAt
	r.assistants[a.ID] = updated
	return nil
}

// Count returns the number of stored assistants across all owners.
func (r *AssistantRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assistants)
}

func cloneAssistant(a domain.Assistant) domain.Assistant {
	if a.Availability != nil {
		av := make(domain.Availability, len(a.Availability))
		for day, ranges := range a.Availability {
			av[day] = append([]domain.TimeRange(nil), ranges...)
		}
		a.Availability = av
	}
	return a
}

type ReconciliationRepo struct {
	mu    sync.Mutex
	tasks []domain.ReconciliationTask

	// FailCreate, when set, is returned by Create.
	FailCreate error
}

func NewReconciliationRepo() *ReconciliationRepo {
	return &ReconciliationRepo{}
}

func (r *ReconciliationRepo) Create(_ context.Context, task *domain.ReconciliationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCreate != nil {
		return r.FailCreate
	}
	r.tasks = append(r.tasks, *task)
	return nil
}

func (r *ReconciliationRepo) ListPending(_ context.Context, limit int) ([]domain.ReconciliationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.ReconciliationTask
	for _, t := range r.tasks {
		if t.ResolvedAt == nil {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *ReconciliationRepo) MarkResolved(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id {
			now := time.Now()
			r.tasks[i].ResolvedAt = &now
		}
	}
	return nil
}

func (r *ReconciliationRepo) RecordFailure(_ context.Context, id uuid.UUID, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i].Attempts++
			r.tasks[i].LastError = lastError
		}
	}
	return nil
}

// All returns a snapshot of every task, resolved or not.
func (r *ReconciliationRepo) All() []domain.ReconciliationTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ReconciliationTask(nil), r.tasks...)
}
