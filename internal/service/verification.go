package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/metrics"
	"github.com/pawsitter/backend/internal/repository"
	"github.com/pawsitter/backend/internal/storage"
	"github.com/pawsitter/backend/internal/veriff"
	"go.uber.org/zap"
)

type SubmitInput struct {
	UserID         uuid.UUID
	DocumentType   domain.DocumentType
	DocumentNumber string
	DocumentImage  string
	Actor          Actor
}

type SubmitResult struct {
	Verification     *domain.Verification
	EligibilityStale bool
}

// VerificationStatus is what a user sees about their own verification.
type VerificationStatus struct {
	User         *domain.User
	Verification *domain.Verification
	// AttemptsLeft counts submissions still allowed by policy.
	AttemptsLeft int
	CanResubmit  bool
}

type verificationService struct {
	repos     *repository.Repositories
	vendor    VendorClient
	projector *eligibilityProjector
	metrics   *metrics.Metrics
	log       *zap.Logger
	config    config.VerificationConfig
	now       func() time.Time
}

func newVerificationService(
	repos *repository.Repositories,
	vendor VendorClient,
	projector *eligibilityProjector,
	m *metrics.Metrics,
	log *zap.Logger,
	cfg config.VerificationConfig,
	now func() time.Time,
) *verificationService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &verificationService{
		repos:     repos,
		vendor:    vendor,
		projector: projector,
		metrics:   m,
		log:       log.Named("verification"),
		config:    cfg,
		now:       now,
	}
}

// Submit validates the document, opens a vendor session and only then
// creates the pending record, so a vendor failure leaves nothing behind.
func (s *verificationService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	number := domain.NormalizeDocumentNumber(in.DocumentNumber)
	if err := domain.ValidateDocumentNumber(in.DocumentType, number); err != nil {
		s.metrics.IncSubmission("invalid")
		return nil, err
	}
	if strings.TrimSpace(in.DocumentImage) == "" {
		s.metrics.IncSubmission("invalid")
		return nil, ErrDocumentImageRequired
	}
	if err := storage.ValidateReference(in.DocumentImage); err != nil {
		s.metrics.IncSubmission("invalid")
		return nil, ErrInvalidDocumentImage
	}
	if !storage.OwnedBy(in.DocumentImage, in.UserID) {
		s.metrics.IncSubmission("invalid")
		return nil, ErrDocumentNotOwned
	}

	user, err := s.repos.Users.GetOneByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}

	latest, attempts, err := s.history(ctx, s.repos.Verifications, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPolicy(latest, attempts); err != nil {
		s.metrics.IncSubmission("refused")
		return nil, err
	}

	firstName, lastName := user.FullName()
	start := time.Now()
	session, err := s.vendor.CreateSession(ctx, veriff.SessionRequest{
		UserID:       user.ID,
		FirstName:    firstName,
		LastName:     lastName,
		DocumentType: in.DocumentType,
		IDNumber:     number,
	})
	s.metrics.ObserveVendor("create_session", err, time.Since(start))
	if err != nil {
		s.metrics.IncSubmission("vendor_unavailable")
		s.log.Warn("create vendor session failed", zap.Stringer("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate verification id failed: %w", err)
	}

	now := s.now()
	v := &domain.Verification{
		ID:               id,
		UserID:           user.ID,
		Attempt:          attempts + 1,
		DocumentType:     in.DocumentType,
		DocumentNumber:   number,
		DocumentImage:    in.DocumentImage,
		IsPhilippineID:   in.DocumentType.IsPhilippine(),
		ExtractedData:    domain.JSONMap{},
		VendorSessionID:  &session.ID,
		VendorSessionURL: &session.URL,
		Status:           domain.VerificationStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var projectionErr error
	err = s.repos.Transactor.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		projectionErr = nil

		if _, err := repos.Users.GetOneByIDForUpdate(ctx, user.ID); err != nil {
			return fmt.Errorf("lock user failed: %w", err)
		}

		// Another submission may have won the race since the policy check.
		latest, attempts, err := s.history(ctx, repos.Verifications, user.ID)
		if err != nil {
			return err
		}
		if err := s.checkPolicy(latest, attempts); err != nil {
			return err
		}
		v.Attempt = attempts + 1

		if err := repos.Verifications.Create(ctx, v); err != nil {
			return fmt.Errorf("create verification failed: %w", err)
		}

		entry, err := newAuditEntry(v.ID, domain.AuditActionSubmitted, in.Actor, now)
		if err != nil {
			return err
		}
		entry.Metadata[domain.AuditMetaPreviousStatus] = ""
		entry.Metadata[domain.AuditMetaNewStatus] = string(v.Status)
		entry.Metadata[domain.AuditMetaVendorSessionID] = session.ID
		entry.Metadata[domain.AuditMetaApplied] = true
		entry.Metadata["attempt"] = v.Attempt
		if err := repos.AuditLogs.Append(ctx, entry); err != nil {
			return fmt.Errorf("append audit log failed: %w", err)
		}

		if _, err := s.projector.project(ctx, repos, user.ID, now); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				return err
			}
			projectionErr = err
		}

		return nil
	})
	if err != nil {
		s.metrics.IncSubmission("failed")
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: %w", ErrConflictingTransition, err)
		}
		return nil, err
	}

	s.metrics.IncSubmission("ok")
	s.log.Info("verification submitted",
		zap.Stringer("verification_id", v.ID),
		zap.Stringer("user_id", user.ID),
		zap.String("document_type", string(v.DocumentType)),
		zap.Int("attempt", v.Attempt),
	)

	res := &SubmitResult{Verification: v}
	if projectionErr != nil {
		res.EligibilityStale = true
		s.projector.degraded(ctx, user.ID, projectionErr)
		return res, fmt.Errorf("%w: %w", ErrEligibilityProjection, projectionErr)
	}

	return res, nil
}

// history returns the latest verification (nil if none) and the number of
// submissions the user made so far.
func (s *verificationService) history(ctx context.Context, repo repository.Verifications, userID uuid.UUID) (*domain.Verification, int, error) {
	latest, err := repo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("get latest verification failed: %w", err)
	}

	attempts, err := repo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count verifications failed: %w", err)
	}

	return latest, attempts, nil
}

func (s *verificationService) checkPolicy(latest *domain.Verification, attempts int) error {
	if latest != nil {
		switch latest.Status {
		case domain.VerificationStatusPending:
			return ErrVerificationInProgress
		case domain.VerificationStatusApproved:
			return ErrAlreadyVerified
		case domain.VerificationStatusRejected:
			if !latest.AllowResubmission {
				return ErrResubmissionNotAllowed
			}
		}
	}
	if attempts >= s.config.MaxAttempts {
		return ErrAttemptsExhausted
	}
	return nil
}

func (s *verificationService) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	v, err := s.repos.Verifications.GetOneByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("get verification failed: %w", err)
	}
	return v, nil
}

func (s *verificationService) GetStatus(ctx context.Context, userID uuid.UUID) (*VerificationStatus, error) {
	user, err := s.repos.Users.GetOneByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}

	latest, attempts, err := s.history(ctx, s.repos.Verifications, userID)
	if err != nil {
		return nil, err
	}

	return &VerificationStatus{
		User:         user,
		Verification: latest,
		AttemptsLeft: max(s.config.MaxAttempts-attempts, 0),
		CanResubmit:  s.checkPolicy(latest, attempts) == nil,
	}, nil
}

func (s *verificationService) List(ctx context.Context, filter domain.VerificationFilter) ([]*domain.Verification, int64, error) {
	list, total, err := s.repos.Verifications.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list verifications failed: %w", err)
	}
	return list, total, nil
}
