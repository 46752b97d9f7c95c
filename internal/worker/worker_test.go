package worker_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/repository/memory"
	"github.com/pawsitter/backend/internal/service"
	"github.com/pawsitter/backend/internal/worker"
	"github.com/pawsitter/backend/pkg/email"
	mock_email "github.com/pawsitter/backend/pkg/email/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staleSet struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

func newStaleSet(ids ...uuid.UUID) *staleSet {
	s := &staleSet{ids: map[uuid.UUID]struct{}{}}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *staleSet) Members(context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out, nil
}

func (s *staleSet) MarkStale(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
	return nil
}

func (s *staleSet) ClearStale(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
	return nil
}

func (s *staleSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

type env struct {
	store    *memory.Store
	services *service.Services
	sender   *mock_email.EmailSender
	stale    *staleSet
	workers  *worker.Workers
}

func newEnv(t *testing.T, emailEnabled bool) *env {
	t.Helper()

	e := &env{
		store:  memory.NewStore(),
		sender: &mock_email.EmailSender{},
		stale:  newStaleSet(),
	}
	cfg := &config.Config{
		Verification: config.VerificationConfig{MaxAttempts: 3},
		Email: config.EmailConfig{
			Enabled:      emailEnabled,
			TemplatesDir: "../../templates",
			Templates: config.EmailTemplates{
				VerificationApproved: "verification_approved.html",
				VerificationRejected: "verification_rejected.html",
			},
		},
	}
	e.services = service.NewServices(service.Deps{
		Config: cfg,
		Repos:  e.store.Repositories(),
		Stale:  e.stale,
	})
	e.workers = worker.NewWorkers(worker.Deps{
		Services:      e.services,
		EmailProvider: e.sender,
		Stale:         e.stale,
		Config:        cfg,
	})
	return e
}

func (e *env) seed(t *testing.T, status domain.VerificationStatus, mail string) (*domain.User, *domain.Verification) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	u := &domain.User{
		ID:              uuid.New(),
		FirstName:       sql.NullString{String: "Maria", Valid: true},
		Email:           sql.NullString{String: mail, Valid: mail != ""},
		Role:            domain.UserRoleSitter,
		Status:          domain.UserStatusActive,
		EmailVerifiedAt: &now,
		PhoneVerifiedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.store.PutUser(u)

	v := &domain.Verification{
		ID:           uuid.New(),
		UserID:       u.ID,
		Attempt:      1,
		DocumentType: domain.DocumentPHUMID,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == domain.VerificationStatusApproved {
		v.VerifiedAt = &now
	}
	require.NoError(t, e.store.Repositories().Verifications.Create(ctx, v))

	return u, v
}

func TestNotifier_SendsApprovalEmail(t *testing.T) {
	e := newEnv(t, true)
	u, v := e.seed(t, domain.VerificationStatusApproved, "maria@example.com")

	e.sender.On("Send", mock.MatchedBy(func(in email.SendEmailInput) bool {
		return in.To == "maria@example.com" &&
			in.Subject == "Your ID has been verified" &&
			strings.Contains(in.Body, "Maria") &&
			strings.Contains(in.Body, "UMID")
	})).Return(nil).Once()

	err := e.workers.Notifier.SendDecisionNotification(context.Background(), domain.DecisionNotification{
		VerificationID: v.ID,
		UserID:         u.ID,
		Status:         domain.VerificationStatusApproved,
	})
	require.NoError(t, err)
	e.sender.AssertExpectations(t)
}

func TestNotifier_RejectionMentionsReason(t *testing.T) {
	e := newEnv(t, true)
	u, v := e.seed(t, domain.VerificationStatusRejected, "maria@example.com")

	e.sender.On("Send", mock.MatchedBy(func(in email.SendEmailInput) bool {
		return strings.Contains(in.Body, "Document expired") && strings.Contains(in.Body, "submit a new photo")
	})).Return(nil).Once()

	err := e.workers.Notifier.SendDecisionNotification(context.Background(), domain.DecisionNotification{
		VerificationID:    v.ID,
		UserID:            u.ID,
		Status:            domain.VerificationStatusRejected,
		Reason:            "Document expired",
		AllowResubmission: true,
	})
	require.NoError(t, err)
	e.sender.AssertExpectations(t)
}

func TestNotifier_SkipsWhenDisabledOrNoAddress(t *testing.T) {
	disabled := newEnv(t, false)
	u, v := disabled.seed(t, domain.VerificationStatusApproved, "maria@example.com")
	err := disabled.workers.Notifier.SendDecisionNotification(context.Background(), domain.DecisionNotification{
		VerificationID: v.ID, UserID: u.ID, Status: domain.VerificationStatusApproved,
	})
	require.NoError(t, err)
	disabled.sender.AssertNotCalled(t, "Send", mock.Anything)

	enabled := newEnv(t, true)
	u, v = enabled.seed(t, domain.VerificationStatusApproved, "")
	err = enabled.workers.Notifier.SendDecisionNotification(context.Background(), domain.DecisionNotification{
		VerificationID: v.ID, UserID: u.ID, Status: domain.VerificationStatusApproved,
	})
	assert.ErrorIs(t, err, worker.ErrNoRecipient)
}

func TestEligibilitySyncer_ReconcileStale(t *testing.T) {
	e := newEnv(t, false)
	u, _ := e.seed(t, domain.VerificationStatusApproved, "maria@example.com")
	gone := uuid.New()
	require.NoError(t, e.stale.MarkStale(context.Background(), u.ID))
	require.NoError(t, e.stale.MarkStale(context.Background(), gone))

	repaired, err := e.workers.EligibilitySyncer.ReconcileStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.Zero(t, e.stale.len())

	user, err := e.services.Users.GetOneByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, user.CanAcceptBookings)
	assert.NotNil(t, user.EligibilitySyncedAt)
}

func TestEligibilitySyncer_Sync(t *testing.T) {
	e := newEnv(t, false)
	u, _ := e.seed(t, domain.VerificationStatusPending, "maria@example.com")

	require.NoError(t, e.workers.EligibilitySyncer.Sync(context.Background(), u.ID))

	user, err := e.services.Users.GetOneByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, user.VerificationStatus)
	assert.Equal(t, domain.VerificationStatusPending, *user.VerificationStatus)
	assert.False(t, user.CanAcceptBookings)

	assert.ErrorIs(t, e.workers.EligibilitySyncer.Sync(context.Background(), uuid.New()), service.ErrUserNotFound)
}
