package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pawsitter/backend/internal/queue/task"
	"github.com/pawsitter/backend/internal/service"
	"github.com/pawsitter/backend/internal/worker"

	"github.com/hibiken/asynq"
)

type syncEligibilityProcessor struct {
	workers *worker.Workers
}

func NewSyncEligibilityProcessor(workers *worker.Workers) *syncEligibilityProcessor {
	return &syncEligibilityProcessor{
		workers: workers,
	}
}

func (p *syncEligibilityProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.SyncEligibility
	if err := json.Unmarshal(t.Payload(), &data); err != nil {
		return fmt.Errorf("process sync eligibility task json unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.workers.EligibilitySyncer.Sync(ctx, data.UserID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	return nil
}

type reconcileStaleProcessor struct {
	workers *worker.Workers
}

func NewReconcileStaleProcessor(workers *worker.Workers) *reconcileStaleProcessor {
	return &reconcileStaleProcessor{
		workers: workers,
	}
}

// ProcessTask never asks for a retry; the next scheduled sweep picks up
// whatever is left.
func (p *reconcileStaleProcessor) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	if _, err := p.workers.EligibilitySyncer.ReconcileStale(ctx); err != nil {
		return fmt.Errorf("reconcile stale eligibility failed: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}
