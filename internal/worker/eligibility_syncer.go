package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/service"
	"go.uber.org/zap"
)

type eligibilitySyncer struct {
	services *service.Services
	stale    StaleSet
	log      *zap.Logger
}

func newEligibilitySyncer(services *service.Services, stale StaleSet, log *zap.Logger) *eligibilitySyncer {
	return &eligibilitySyncer{
		services: services,
		stale:    stale,
		log:      log.Named("eligibility_syncer"),
	}
}

func (s *eligibilitySyncer) Sync(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.services.Decisions.SyncEligibility(ctx, userID); err != nil {
		return fmt.Errorf("sync eligibility failed: %w", err)
	}
	return nil
}

func (s *eligibilitySyncer) ReconcileStale(ctx context.Context) (int, error) {
	if s.stale == nil {
		return 0, nil
	}

	ids, err := s.stale.Members(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stale users failed: %w", err)
	}

	var (
		repaired int
		errs     []error
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		_, err := s.services.Decisions.SyncEligibility(ctx, id)
		switch {
		case err == nil:
			repaired++
		case errors.Is(err, service.ErrUserNotFound):
			// Deleted users have nothing left to project.
			if err := s.stale.ClearStale(ctx, id); err != nil {
				errs = append(errs, err)
			}
		default:
			s.log.Warn("reconcile eligibility failed", zap.Stringer("user_id", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
		}
	}

	if repaired > 0 {
		s.log.Info("stale eligibility reconciled", zap.Int("repaired", repaired), zap.Int("pending", len(ids)-repaired))
	}

	return repaired, errors.Join(errs...)
}
