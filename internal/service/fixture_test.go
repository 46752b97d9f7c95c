package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/repository/memory"
	"github.com/pawsitter/backend/internal/service"
	"github.com/pawsitter/backend/internal/storage"
	"github.com/pawsitter/backend/internal/veriff"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func documentRef(userID uuid.UUID) string {
	return "documents/" + userID.String() + "/2026/10/front.jpg"
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

// Now advances one second per call so audit rows get distinct timestamps.
func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeVendor struct {
	mu        sync.Mutex
	calls     int
	err       error
	decisions map[string]*veriff.Decision
}

func (v *fakeVendor) CreateSession(_ context.Context, in veriff.SessionRequest) (*veriff.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	id := fmt.Sprintf("sess-%d", v.calls)
	return &veriff.Session{ID: id, URL: "https://magic.veriff.me/v/" + id}, nil
}

func (v *fakeVendor) GetDecision(_ context.Context, sessionID string) (*veriff.Decision, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return nil, v.err
	}
	d, ok := v.decisions[sessionID]
	if !ok {
		return &veriff.Decision{SessionID: sessionID, Status: domain.VerificationStatusPending}, nil
	}
	return d, nil
}

func (v *fakeVendor) sessionCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueDecisionNotification(ctx context.Context, n domain.DecisionNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockQueue) EnqueueEligibilitySync(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockStale struct {
	mock.Mock
}

func (m *mockStale) MarkStale(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockStale) ClearStale(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	services *service.Services
	vendor   *fakeVendor
	queue    *mockQueue
	stale    *mockStale
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  memory.NewStore(),
		vendor: &fakeVendor{decisions: map[string]*veriff.Decision{}},
		queue:  &mockQueue{},
		stale:  &mockStale{},
		clock:  &clock{t: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)},
	}
	f.queue.On("EnqueueDecisionNotification", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.queue.On("EnqueueEligibilitySync", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.stale.On("MarkStale", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.stale.On("ClearStale", mock.Anything, mock.Anything).Return(nil).Maybe()

	docs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	f.services = service.NewServices(service.Deps{
		Config:  &config.Config{Verification: config.VerificationConfig{MaxAttempts: 3}},
		Repos:   f.store.Repositories(),
		Vendor:  f.vendor,
		Storage: docs,
		Queue:   f.queue,
		Stale:   f.stale,
		Now:     f.clock.Now,
	})

	return f
}

// addSitter stores an active sitter with verified contact details.
func (f *fixture) addSitter() *domain.User {
	f.t.Helper()
	now := f.clock.Now()
	u := &domain.User{
		ID:              uuid.New(),
		FirstName:       sql.NullString{String: "Juan", Valid: true},
		LastName:        sql.NullString{String: "Dela Cruz", Valid: true},
		Email:           sql.NullString{String: "juan@example.com", Valid: true},
		Role:            domain.UserRoleSitter,
		Status:          domain.UserStatusActive,
		EmailVerifiedAt: &now,
		PhoneVerifiedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.store.PutUser(u)
	return u
}

func (f *fixture) submit(u *domain.User) *domain.Verification {
	f.t.Helper()
	res, err := f.services.Verifications.Submit(f.ctx, service.SubmitInput{
		UserID:         u.ID,
		DocumentType:   domain.DocumentPHDriversLicense,
		DocumentNumber: "A12-34-567890",
		DocumentImage:  documentRef(u.ID),
	})
	require.NoError(f.t, err)
	return res.Verification
}

func (f *fixture) user(id uuid.UUID) *domain.User {
	f.t.Helper()
	u, err := f.store.Repositories().Users.GetOneByID(f.ctx, id)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) verification(id uuid.UUID) *domain.Verification {
	f.t.Helper()
	v, err := f.store.Repositories().Verifications.GetOneByID(f.ctx, id)
	require.NoError(f.t, err)
	return v
}

func (f *fixture) vendorDecision(v *domain.Verification, body string) service.VendorDecisionInput {
	f.t.Helper()
	d, err := veriff.ParseWebhook([]byte(fmt.Sprintf(`{"status":"success","verification":{"id":%q,%s}}`, *v.VendorSessionID, body)))
	require.NoError(f.t, err)
	return service.VendorDecisionInput{Decision: d, Actor: service.Actor{IPAddress: "203.0.113.7", UserAgent: "veriff-webhook"}}
}

func (f *fixture) approveByVendor(v *domain.Verification) service.VendorDecisionInput {
	return f.vendorDecision(v, `"status":"approved","decisionScore":0.92,"document":{"type":"DRIVERS_LICENSE","country":"PH","number":"A12-34-567890"}`)
}

func (f *fixture) declineByVendor(v *domain.Verification, reasonCode int) service.VendorDecisionInput {
	return f.vendorDecision(v, fmt.Sprintf(`"status":"declined","reasonCode":%d`, reasonCode))
}

func (f *fixture) adminDecision(v *domain.Verification, status domain.VerificationStatus, reason string) service.AdminDecisionInput {
	return service.AdminDecisionInput{
		VerificationID: v.ID,
		AdminID:        uuid.New(),
		Status:         status,
		Reason:         reason,
		Actor:          service.Actor{IPAddress: "10.0.0.5", UserAgent: "admin-panel"},
	}
}

func actions(entries []*domain.AuditLog) []domain.AuditAction {
	out := make([]domain.AuditAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}
