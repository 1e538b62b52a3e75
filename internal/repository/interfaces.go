package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/domain"
)

var (
	// ErrDuplicateEmail is returned by UserRepository.Create when the unique
	// email index rejects the row.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrStaleVersion is returned when a guarded update matched no row.
	ErrStaleVersion = errors.New("stale assistant version")
	// ErrNotFound is returned by writes that target a missing row.
	ErrNotFound = errors.New("not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

// AssistantRepository stores assistant shadow rows. Every read and write is
// scoped to the owning user.
type AssistantRepository interface {
	Create(ctx context.Context, assistant *domain.Assistant) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Assistant, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Assistant, error)
	// Update persists assistant if its stored version still equals
	// expectedVersion, otherwise it returns ErrStaleVersion.
	Update(ctx context.Context, assistant *domain.Assistant, expectedVersion int) error
}

type ReconciliationRepository interface {
	Create(ctx context.Context, task *domain.ReconciliationTask) error
	ListPending(ctx context.Context, limit int) ([]domain.ReconciliationTask, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
	RecordFailure(ctx context.Context, id uuid.UUID, lastError string) error
}
