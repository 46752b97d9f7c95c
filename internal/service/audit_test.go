package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/repository"
	"github.com/pawsitter/backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAuditLogs struct {
	repository.AuditLogs
	pages int
	err   error
}

func (c *countingAuditLogs) ListPage(ctx context.Context, verificationID uuid.UUID, after *domain.AuditCursor, limit int) ([]*domain.AuditLog, error) {
	c.pages++
	if c.err != nil {
		return nil, c.err
	}
	return c.AuditLogs.ListPage(ctx, verificationID, after, limit)
}

func seedAuditTrail(t *testing.T, store *memory.Store, n int) *domain.Verification {
	t.Helper()
	ctx := context.Background()
	repos := store.Repositories()

	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	u := &domain.User{ID: uuid.New(), Role: domain.UserRoleSitter, Status: domain.UserStatusActive, CreatedAt: now, UpdatedAt: now}
	store.PutUser(u)

	v := &domain.Verification{
		ID:           uuid.New(),
		UserID:       u.ID,
		Attempt:      1,
		DocumentType: domain.DocumentPHPassport,
		Status:       domain.VerificationStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repos.Verifications.Create(ctx, v))

	for i := range n {
		entry, err := newAuditEntry(v.ID, domain.AuditActionSubmitted, Actor{}, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.NoError(t, repos.AuditLogs.Append(ctx, entry))
	}

	return v
}

func TestAuditLogService_ListForPagesLazily(t *testing.T) {
	store := memory.NewStore()
	v := seedAuditTrail(t, store, 7)
	repos := store.Repositories()

	counting := &countingAuditLogs{AuditLogs: repos.AuditLogs}
	svc := newAuditLogService(counting, repos.Verifications, nil)
	svc.pageSize = 3

	var got []*domain.AuditLog
	for entry, err := range svc.ListFor(context.Background(), v.ID) {
		require.NoError(t, err)
		got = append(got, entry)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
	assert.Equal(t, 1, counting.pages)

	// A second range starts from the beginning and reads every page.
	counting.pages = 0
	got = got[:0]
	for entry, err := range svc.ListFor(context.Background(), v.ID) {
		require.NoError(t, err)
		got = append(got, entry)
	}
	require.Len(t, got, 7)
	assert.Equal(t, 3, counting.pages)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].CreatedAt.Before(got[i].CreatedAt))
	}
}

func TestAuditLogService_ListForYieldsErrorOnce(t *testing.T) {
	store := memory.NewStore()
	v := seedAuditTrail(t, store, 2)
	repos := store.Repositories()

	boom := errors.New("connection reset")
	svc := newAuditLogService(&countingAuditLogs{AuditLogs: repos.AuditLogs, err: boom}, repos.Verifications, nil)

	var errs []error
	for entry, err := range svc.ListFor(context.Background(), v.ID) {
		assert.Nil(t, entry)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)

	_, err := svc.List(context.Background(), v.ID)
	assert.ErrorIs(t, err, boom)
}

func TestAuditLogService_ListUnknownVerification(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repositories()
	svc := newAuditLogService(repos.AuditLogs, repos.Verifications, nil)

	_, err := svc.List(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

type stubReporter struct {
	entries int
}

func (r *stubReporter) AuditReport(_ *domain.Verification, entries []*domain.AuditLog) ([]byte, error) {
	r.entries = len(entries)
	return []byte("%PDF-1.4"), nil
}

func TestAuditLogService_Report(t *testing.T) {
	store := memory.NewStore()
	v := seedAuditTrail(t, store, 4)
	repos := store.Repositories()

	reporter := &stubReporter{}
	svc := newAuditLogService(repos.AuditLogs, repos.Verifications, reporter)

	report, err := svc.Report(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), report)
	assert.Equal(t, 4, reporter.entries)
}
