package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/metrics"
	"github.com/pawsitter/backend/internal/repository"
	"go.uber.org/zap"
)

// eligibilityProjector is the only writer of the user eligibility fields.
type eligibilityProjector struct {
	stale   StaleTracker
	queue   TaskQueue
	metrics *metrics.Metrics
	log     *zap.Logger
}

func newEligibilityProjector(stale StaleTracker, queue TaskQueue, m *metrics.Metrics, log *zap.Logger) *eligibilityProjector {
	return &eligibilityProjector{
		stale:   stale,
		queue:   queue,
		metrics: m,
		log:     log.Named("eligibility"),
	}
}

// project recomputes the user's eligibility from their latest verification
// using the repositories of the current transaction.
func (p *eligibilityProjector) project(ctx context.Context, repos repository.TxRepositories, userID uuid.UUID, now time.Time) (*domain.User, error) {
	user, err := repos.Users.GetOneByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	latest, err := repos.Verifications.GetLatestByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get latest verification: %w", err)
	}

	domain.DeriveEligibility(user, latest).Apply(user, now)

	if err := repos.Users.UpdateEligibility(ctx, user); err != nil {
		return nil, fmt.Errorf("update eligibility: %w", err)
	}

	return user, nil
}

// degraded records a projection that failed after its decision committed.
// The user is marked stale and a reconciliation is scheduled; neither step
// can fail the caller.
func (p *eligibilityProjector) degraded(ctx context.Context, userID uuid.UUID, cause error) {
	p.metrics.IncProjectionFailure()
	p.log.Error("eligibility projection failed, scheduling reconciliation",
		zap.Stringer("user_id", userID),
		zap.Error(cause),
	)

	if p.stale != nil {
		if err := p.stale.MarkStale(ctx, userID); err != nil {
			p.log.Warn("mark eligibility stale failed", zap.Stringer("user_id", userID), zap.Error(err))
		}
	}
	if p.queue != nil {
		if err := p.queue.EnqueueEligibilitySync(ctx, userID); err != nil {
			p.log.Warn("enqueue eligibility sync failed", zap.Stringer("user_id", userID), zap.Error(err))
		}
	}
}

func (p *eligibilityProjector) synced(ctx context.Context, userID uuid.UUID) {
	if p.stale == nil {
		return
	}
	if err := p.stale.ClearStale(ctx, userID); err != nil {
		p.log.Warn("clear eligibility stale mark failed", zap.Stringer("user_id", userID), zap.Error(err))
	}
}
