package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/repository"
)

type userService struct {
	repos     *repository.Repositories
	projector *eligibilityProjector
	now       func() time.Time
}

func newUserService(repos *repository.Repositories, projector *eligibilityProjector, now func() time.Time) *userService {
	return &userService{
		repos:     repos,
		projector: projector,
		now:       now,
	}
}

func (s *userService) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repos.Users.GetOneByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return user, nil
}

// UpdateStatus changes the account status and recomputes eligibility in the
// same transaction.
func (s *userService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) (*domain.User, error) {
	return s.updateAndProject(ctx, id, func(ctx context.Context, users repository.Users) error {
		return users.UpdateStatus(ctx, id, status)
	})
}

func (s *userService) MarkContactVerified(ctx context.Context, id uuid.UUID, channel domain.ContactChannel) (*domain.User, error) {
	at := s.now()
	return s.updateAndProject(ctx, id, func(ctx context.Context, users repository.Users) error {
		return users.MarkContactVerified(ctx, id, channel, at)
	})
}

func (s *userService) updateAndProject(ctx context.Context, id uuid.UUID, update func(ctx context.Context, users repository.Users) error) (*domain.User, error) {
	var user *domain.User
	err := s.repos.Transactor.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := update(ctx, repos.Users); err != nil {
			return err
		}
		u, err := s.projector.project(ctx, repos, id, s.now())
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("update user failed: %w", err)
	}

	s.projector.synced(ctx, id)

	return user, nil
}
