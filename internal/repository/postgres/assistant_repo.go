package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/repository"
)

type AssistantRepo struct {
	db DBTX
}

func NewAssistantRepo(db DBTX) *AssistantRepo {
	return &AssistantRepo{db: db}
}

const assistantColumns = `id, owner_id, external_id, name, voice_provider, language_code, intro_message,
	webhook_url, transcription_enabled, recording_enabled, availability, version, created_at, updated_at`

func (r *AssistantRepo) Create(ctx context.Context, a *domain.Assistant) error {
	availability, err := encodeAvailability(a.Availability)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assistants (` + assistantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.Exec(ctx, query,
		a.ID, a.OwnerID, a.ExternalID, a.Name, a.VoiceProvider, a.LanguageCode, a.IntroMessage,
		a.WebhookURL, a.TranscriptionEnabled, a.RecordingEnabled, availability, a.Version,
		a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *AssistantRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Assistant, error) {
	query := "SELECT " + assistantColumns + " FROM assistants WHERE id = $1 AND owner_id = $2"

	a, err := scanAssistant(r.db.QueryRow(ctx, query, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AssistantRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Assistant, error) {
	query := "SELECT " + assistantColumns + " FROM assistants WHERE owner_id = $1 ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assistants []domain.Assistant
	for rows.Next() {
		a, err := scanAssistant(rows)
		if err != nil {
			return nil, err
		}
		assistants = append(assistants, *a)
	}
	return assistants, rows.Err()
}

func (r *AssistantRepo) Update(ctx context.Context, a *domain.Assistant, expectedVersion int) error {
	availability, err := encodeAvailability(a.Availability)
	if err != nil {
		return err
	}

	query := `
		UPDATE assistants SET
			name = $4, voice_provider = $5, language_code = $6, intro_message = $7,
			webhook_url = $8, transcription_enabled = $9, recording_enabled = $10,
			availability = $11, version = $12, updated_at = $13
		WHERE id = $1 AND owner_id = $2 AND version = $3`

	tag, err := r.db.Exec(ctx, query,
		a.ID, a.OwnerID, expectedVersion,
		a.Name, a.VoiceProvider, a.LanguageCode, a.IntroMessage,
		a.WebhookURL, a.TranscriptionEnabled, a.RecordingEnabled,
		availability, a.Version, a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrStaleVersion
	}
	return nil
}

func scanAssistant(row pgx.Row) (*domain.Assistant, error) {
	var (
		a            domain.Assistant
		availability []byte
	)
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.ExternalID, &a.Name, &a.VoiceProvider, &a.LanguageCode, &a.IntroMessage,
		&a.WebhookURL, &a.TranscriptionEnabled, &a.RecordingEnabled, &availability, &a.Version,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &a.Availability); err != nil {
			return nil, fmt.Errorf("decoding availability of assistant %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

func encodeAvailability(av domain.Availability) ([]byte, error) {
	if av == nil {
		av = domain.Availability{}
	}
	data, err := json.Marshal(av)
	if err != nil {
		return nil, fmt.Errorf("encoding availability: %w", err)
	}
	return data, nil
}
