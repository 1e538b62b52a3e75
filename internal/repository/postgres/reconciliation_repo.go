package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/domain"
)

type ReconciliationRepo struct {
	db DBTX
}

func NewReconciliationRepo(db DBTX) *ReconciliationRepo {
	return &ReconciliationRepo{db: db}
}

func (r *ReconciliationRepo) Create(ctx context.Context, task *domain.ReconciliationTask) error {
	query := `
		INSERT INTO reconciliation_tasks (id, external_id, owner_id, reason, attempts, last_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		task.ID, task.ExternalID, task.OwnerID, task.Reason, task.Attempts, task.LastError, task.CreatedAt,
	)
	return err
}

func (r *ReconciliationRepo) ListPending(ctx context.Context, limit int) ([]domain.ReconciliationTask, error) {
	query := `
		SELECT id, external_id, owner_id, reason, attempts, last_error, created_at
		FROM reconciliation_tasks
		WHERE resolved_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.ReconciliationTask
	for rows.Next() {
		var t domain.ReconciliationTask
		if err := rows.Scan(
			&t.ID, &t.ExternalID, &t.OwnerID, &t.Reason, &t.Attempts, &t.LastError, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *ReconciliationRepo) MarkResolved(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE reconciliation_tasks SET resolved_at = $2 WHERE id = $1`, id, time.Now())
	return err
}

func (r *ReconciliationRepo) RecordFailure(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE reconciliation_tasks SET attempts = attempts + 1, last_error = $2 WHERE id = $1`,
		id, lastError,
	)
	return err
}
