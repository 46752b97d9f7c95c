package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/queue/task"
	"go.uber.org/zap"
)

type ctxKey int

const (
	_ ctxKey = iota
	asyncQCtxKey
)

// WithClient makes enqueues made with ctx use client instead of the default.
func WithClient(ctx context.Context, client *asynq.Client) context.Context {
	return context.WithValue(ctx, asyncQCtxKey, client)
}

// Enqueuer publishes background work for the verification services.
type Enqueuer struct {
	client   *asynq.Client
	maxRetry int
	log      *zap.Logger
}

func NewEnqueuer(client *asynq.Client, maxRetry int, log *zap.Logger) *Enqueuer {
	return &Enqueuer{
		client:   client,
		maxRetry: maxRetry,
		log:      log.Named("queue"),
	}
}

func (e *Enqueuer) getClient(ctx context.Context) *asynq.Client {
	if c, ok := ctx.Value(asyncQCtxKey).(*asynq.Client); ok && c != nil {
		return c
	}
	return e.client
}

func (e *Enqueuer) EnqueueDecisionNotification(ctx context.Context, n domain.DecisionNotification) error {
	t, err := task.NewNotifyDecisionTask(n, e.maxRetry)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, t)
}

func (e *Enqueuer) EnqueueEligibilitySync(ctx context.Context, userID uuid.UUID) error {
	t, err := task.NewSyncEligibilityTask(userID, e.maxRetry)
	if err != nil {
		return err
	}

	err = e.enqueue(ctx, t)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func (e *Enqueuer) enqueue(ctx context.Context, t *asynq.Task) error {
	client := e.getClient(ctx)
	if client == nil {
		return errors.New("asynq client is not configured")
	}

	info, err := client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("enqueue %s failed: %w", t.Type(), err)
	}

	e.log.Debug("task enqueued", zap.String("type", t.Type()), zap.String("id", info.ID), zap.String("queue", info.Queue))

	return nil
}
