package service

import (
	"context"
	"time"

	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/logging"
	"github.com/vedran77/receptionist/internal/repository"
	"github.com/vedran77/receptionist/internal/vapi"
)

const defaultReconcileBatch = 50

// Reconciler deletes provider assistants that were created but never got a
// local record.
type Reconciler struct {
	tasks    repository.ReconciliationRepository
	provider AssistantProvider
	log      logging.Logger
	batch    int
}

func NewReconciler(tasks repository.ReconciliationRepository, provider AssistantProvider, log logging.Logger, batch int) *Reconciler {
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &Reconciler{
		tasks:    tasks,
		provider: provider,
		log:      log.With("component", "reconciler"),
		batch:    batch,
	}
}

// RunOnce processes one batch of pending tasks and reports how many were
// resolved.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.tasks.ListPending(ctx, r.batch)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, task := range pending {
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}
		if r.process(ctx, task) {
			resolved++
		}
	}
	return resolved, nil
}

func (r *Reconciler) process(ctx context.Context, task domain.ReconciliationTask) bool {
	log := r.log.With("task_id", task.ID, "external_id", task.ExternalID)

	remote, err := r.provider.GetAssistant(ctx, task.ExternalID)
	switch {
	case vapi.IsNotFound(err):
		return r.resolve(ctx, log, task, "already gone")
	case err != nil:
		return r.fail(ctx, log, task, err)
	case remote.Metadata != nil && remote.Metadata.BusinessID != "" &&
		remote.Metadata.BusinessID != task.OwnerID.String():
		// never delete an assistant some other owner is attached to
		log.Warn(ctx, "provider assistant owned by someone else, leaving it", "business_id", remote.Metadata.BusinessID)
		return r.resolve(ctx, log, task, "owner mismatch")
	}

	if err := r.provider.DeleteAssistant(ctx, task.ExternalID); err != nil && !vapi.IsNotFound(err) {
		return r.fail(ctx, log, task, err)
	}
	return r.resolve(ctx, log, task, "deleted")
}

func (r *Reconciler) resolve(ctx context.Context, log logging.Logger, task domain.ReconciliationTask, how string) bool {
	if err := r.tasks.MarkResolved(ctx, task.ID); err != nil {
		log.Error(ctx, "marking task resolved", "error", err)
		return false
	}
	reconciliationsTotal.WithLabelValues("resolved").Inc()
	log.Info(ctx, "reconciliation task resolved", "result", how)
	return true
}

func (r *Reconciler) fail(ctx context.Context, log logging.Logger, task domain.ReconciliationTask, cause error) bool {
	reconciliationsTotal.WithLabelValues("failed").Inc()
	log.Warn(ctx, "reconciliation attempt failed", "attempt", task.Attempts+1, "error", cause)
	if err := r.tasks.RecordFailure(ctx, task.ID, cause.Error()); err != nil {
		log.Error(ctx, "recording reconciliation failure", "error", err)
	}
	return false
}

// Run calls RunOnce every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Error(ctx, "reconciliation pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
