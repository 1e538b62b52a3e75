package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/logging"
	"github.com/vedran77/receptionist/internal/repository"
	"github.com/vedran77/receptionist/internal/vapi"
)

var (
	ErrAssistantNotFound = errors.New("assistant not found")
	ErrVersionConflict   = errors.New("assistant was modified by another request")
	// ErrNotPersisted means the provider accepted the assistant but the local
	// record could not be written.
	ErrNotPersisted = errors.New("assistant could not be saved")
)

const defaultCompensationTimeout = 15 * time.Second

// AssistantProvider is the remote system of record for assistants.
type AssistantProvider interface {
	CreateAssistant(ctx context.Context, payload vapi.AssistantPayload) (*vapi.RemoteAssistant, error)
	GetAssistant(ctx context.Context, id string) (*vapi.RemoteAssistant, error)
	UpdateAssistant(ctx context.Context, id string, payload vapi.AssistantPayload) (*vapi.RemoteAssistant, error)
	DeleteAssistant(ctx context.Context, id string) error
}

type AssistantService struct {
	repo     repository.AssistantRepository
	tasks    repository.ReconciliationRepository
	provider AssistantProvider
	locker   Locker
	notifier Notifier
	log      logging.Logger

	compensationTimeout time.Duration
	now                 func() time.Time
}

func NewAssistantService(
	repo repository.AssistantRepository,
	tasks repository.ReconciliationRepository,
	provider AssistantProvider,
	locker Locker,
	notifier Notifier,
	log logging.Logger,
) *AssistantService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if locker == nil {
		locker = NewLocalLocker(DefaultLockWait)
	}
	return &AssistantService{
		repo:                repo,
		tasks:               tasks,
		provider:            provider,
		locker:              locker,
		notifier:            notifier,
		log:                 log.With("component", "assistants"),
		compensationTimeout: defaultCompensationTimeout,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// WithCompensationTimeout bounds the rollback call made after a failed
// local write.
func (s *AssistantService) WithCompensationTimeout(d time.Duration) *AssistantService {
	if d > 0 {
		s.compensationTimeout = d
	}
	return s
}

type CreateAssistantInput struct {
	Name                 string              `json:"name"`
	VoiceProvider        string              `json:"voiceProvider"`
	LanguageCode         string              `json:"languageCode"`
	IntroMessage         string              `json:"introMessage"`
	WebhookURL           string              `json:"webhookUrl"`
	TranscriptionEnabled bool                `json:"transcriptionEnabled"`
	RecordingEnabled     bool                `json:"recordingEnabled"`
	Availability         domain.Availability `json:"availability"`
}

// Assistant builds the unsaved record the input describes.
func (in CreateAssistantInput) Assistant(ownerID uuid.UUID) *domain.Assistant {
	return &domain.Assistant{
		OwnerID:              ownerID,
		Name:                 in.Name,
		VoiceProvider:        in.VoiceProvider,
		LanguageCode:         in.LanguageCode,
		IntroMessage:         in.IntroMessage,
		WebhookURL:           in.WebhookURL,
		TranscriptionEnabled: in.TranscriptionEnabled,
		RecordingEnabled:     in.RecordingEnabled,
		Availability:         in.Availability,
	}
}

type UpdateAssistantInput struct {
	// Version, when set, must match the stored version.
	Version *int `json:"version"`
	domain.AssistantPatch
}

// Create registers the assistant with the provider first and only then writes
// the local record. If the local write fails the provider assistant is
// deleted again; when that fails too a reconciliation task is queued.
func (s *AssistantService) Create(ctx context.Context, ownerID uuid.UUID, input CreateAssistantInput) (*domain.Assistant, error) {
	now := s.now()
	a := input.Assistant(ownerID)
	a.ID = uuid.New()
	a.Version = 1
	a.CreatedAt = now
	a.UpdatedAt = now

	remote, err := s.provider.CreateAssistant(ctx, vapi.CreatePayload(a))
	if err != nil {
		return nil, fmt.Errorf("creating assistant upstream: %w", err)
	}
	a.ExternalID = remote.ID

	if err := s.repo.Create(ctx, a); err != nil {
		s.compensate(ctx, a, err)
		return nil, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}

	s.log.Info(ctx, "assistant created",
		"assistant_id", a.ID, "owner_id", ownerID, "external_id", a.ExternalID)
	s.notifier.AssistantCreated(a)
	return a, nil
}

func (s *AssistantService) compensate(ctx context.Context, a *domain.Assistant, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()

	log := s.log.With("external_id", a.ExternalID, "owner_id", a.OwnerID)

	delErr := s.provider.DeleteAssistant(ctx, a.ExternalID)
	if delErr == nil || vapi.IsNotFound(delErr) {
		compensationsTotal.WithLabelValues("deleted").Inc()
		log.Warn(ctx, "local write failed, provider assistant rolled back", "error", cause)
		return
	}

	task := &domain.ReconciliationTask{
		ID:         uuid.New(),
		ExternalID: a.ExternalID,
		OwnerID:    a.OwnerID,
		Reason:     "local insert failed: " + cause.Error(),
		LastError:  delErr.Error(),
		CreatedAt:  s.now(),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		compensationsTotal.WithLabelValues("orphaned").Inc()
		log.Error(ctx, "orphaned provider assistant: rollback and reconciliation both failed",
			"error", cause, "delete_error", delErr, "queue_error", err)
		return
	}

	compensationsTotal.WithLabelValues("queued").Inc()
	log.Warn(ctx, "provider assistant queued for reconciliation",
		"task_id", task.ID, "error", cause, "delete_error", delErr)
}

// Update applies a partial change to an owned assistant. Concurrent updates of
// one assistant are serialized by the locker and guarded by the version.
func (s *AssistantService) Update(ctx context.Context, ownerID, id uuid.UUID, input UpdateAssistantInput) (*domain.Assistant, error) {
	// ownership first; foreign callers never touch the lock
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "assistant:"+id.String())
	if err != nil {
		return nil, fmt.Errorf("locking assistant %s: %w", id, err)
	}
	defer unlock()

	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if input.Version != nil && *input.Version != current.Version {
		return nil, ErrVersionConflict
	}
	if input.AssistantPatch.IsEmpty() {
		return current, nil
	}

	payload := vapi.PatchPayload(current, input.AssistantPatch)
	if _, err := s.provider.UpdateAssistant(ctx, current.ExternalID, payload); err != nil {
		return nil, fmt.Errorf("updating assistant upstream: %w", err)
	}

	updated := *current
	input.AssistantPatch.Apply(&updated)
	updated.Version = current.Version + 1
	updated.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &updated, current.Version); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			s.log.Warn(ctx, "provider updated but local record changed underneath",
				"assistant_id", id, "external_id", current.ExternalID)
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("saving assistant %s: %w", id, err)
	}

	s.notifier.AssistantUpdated(&updated)
	return &updated, nil
}

// List returns the caller's assistants, newest first. It never consults the
// provider.
func (s *AssistantService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Assistant, error) {
	assistants, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if assistants == nil {
		assistants = []domain.Assistant{}
	}
	return assistants, nil
}

func (s *AssistantService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Assistant, error) {
	a, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAssistantNotFound
	}
	return a, nil
}
