package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/service"
	"github.com/pawsitter/backend/internal/worker"

	"github.com/hibiken/asynq"
)

type notifyDecisionProcessor struct {
	workers *worker.Workers
}

func NewNotifyDecisionProcessor(workers *worker.Workers) *notifyDecisionProcessor {
	return &notifyDecisionProcessor{
		workers: workers,
	}
}

func (p *notifyDecisionProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data domain.DecisionNotification
	if err := json.Unmarshal(t.Payload(), &data); err != nil {
		return fmt.Errorf("process notify decision task json unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	err := p.workers.Notifier.SendDecisionNotification(ctx, data)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, worker.ErrNoRecipient),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrVerificationNotFound):
		return fmt.Errorf("send decision notification failed: %v: %w", err, asynq.SkipRetry)
	default:
		return fmt.Errorf("send decision notification failed: %w", err)
	}
}
