package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerification(userID uuid.UUID, createdAt time.Time) *domain.Verification {
	return &domain.Verification{
		ID:             uuid.Must(uuid.NewV7()),
		UserID:         userID,
		DocumentType:   domain.DocumentPHPassport,
		DocumentNumber: "P1234567A",
		Status:         domain.VerificationStatusPending,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestWithinTx_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	v := newVerification(uuid.New(), time.Now())
	require.NoError(t, repos.Verifications.Create(ctx, v))

	boom := errors.New("boom")
	err := repos.Transactor.WithinTx(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		loaded, err := tx.Verifications.GetOneByIDForUpdate(ctx, v.ID)
		require.NoError(t, err)
		loaded.Approve(time.Now(), nil, nil)
		require.NoError(t, tx.Verifications.Update(ctx, loaded))
		require.NoError(t, tx.AuditLogs.Append(ctx, &domain.AuditLog{ID: uuid.New(), VerificationID: v.ID, Action: domain.AuditActionVendorApproved}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Verifications.GetOneByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationStatusPending, got.Status)
	assert.Equal(t, 0, got.Version)
	assert.Empty(t, store.AuditLogs(v.ID))
}

func TestVerificationUpdate_VersionConflict(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	v := newVerification(uuid.New(), time.Now())
	require.NoError(t, repos.Verifications.Create(ctx, v))

	first, _ := repos.Verifications.GetOneByID(ctx, v.ID)
	second, _ := repos.Verifications.GetOneByID(ctx, v.ID)

	require.NoError(t, repos.Verifications.Update(ctx, first))
	assert.Equal(t, 1, first.Version)
	assert.ErrorIs(t, repos.Verifications.Update(ctx, second), domain.ErrVersionConflict)
}

func TestVerificationCreate_DuplicateSession(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	session := "sess-1"

	a := newVerification(uuid.New(), time.Now())
	a.VendorSessionID = &session
	b := newVerification(uuid.New(), time.Now())
	b.VendorSessionID = &session

	require.NoError(t, repos.Verifications.Create(ctx, a))
	assert.ErrorIs(t, repos.Verifications.Create(ctx, b), domain.ErrDuplicateEntry)
}

func TestGetLatestByUserID(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	userID := uuid.New()
	now := time.Now()

	older := newVerification(userID, now.Add(-time.Hour))
	newer := newVerification(userID, now)
	require.NoError(t, repos.Verifications.Create(ctx, newer))
	require.NoError(t, repos.Verifications.Create(ctx, older))

	got, err := repos.Verifications.GetLatestByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	count, err := repos.Verifications.CountByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = repos.Verifications.GetLatestByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FilterAndPaginate(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	now := time.Now()

	for i := range 5 {
		v := newVerification(uuid.New(), now.Add(time.Duration(i)*time.Minute))
		if i%2 == 0 {
			v.Status = domain.VerificationStatusApproved
		}
		require.NoError(t, repos.Verifications.Create(ctx, v))
	}

	pending := domain.VerificationStatusPending
	list, total, err := repos.Verifications.List(ctx, domain.VerificationFilter{Status: &pending})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = repos.Verifications.List(ctx, domain.VerificationFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
}

func TestAuditListPage_Keyset(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	verificationID := uuid.New()
	base := time.Now()

	for i := range 5 {
		require.NoError(t, repos.AuditLogs.Append(ctx, &domain.AuditLog{
			ID:             uuid.Must(uuid.NewV7()),
			VerificationID: verificationID,
			Action:         domain.AuditActionSubmitted,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	page, err := repos.AuditLogs.ListPage(ctx, verificationID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	last := page[len(page)-1]
	rest, err := repos.AuditLogs.ListPage(ctx, verificationID, &domain.AuditCursor{CreatedAt: last.CreatedAt, ID: last.ID}, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
	assert.True(t, rest[0].CreatedAt.After(last.CreatedAt))

	latest, err := repos.AuditLogs.GetLatest(ctx, verificationID)
	require.NoError(t, err)
	assert.Equal(t, rest[2].ID, latest.ID)
}

func TestAuditExistsVendorDecision(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	verificationID := uuid.New()
	adminID := uuid.New()

	for _, e := range []*domain.AuditLog{
		{Action: domain.AuditActionVendorApproved, Metadata: domain.JSONMap{domain.AuditMetaVendorSessionID: "sess-1"}},
		{Action: domain.AuditActionManualRejected, AdminID: &adminID, Metadata: domain.JSONMap{}},
	} {
		e.ID = uuid.Must(uuid.NewV7())
		e.VerificationID = verificationID
		e.CreatedAt = time.Now()
		require.NoError(t, repos.AuditLogs.Append(ctx, e))
	}

	tests := []struct {
		name    string
		session string
		action  domain.AuditAction
		want    bool
	}{
		{"recorded below an admin row", "sess-1", domain.AuditActionVendorApproved, true},
		{"other action", "sess-1", domain.AuditActionVendorRejected, false},
		{"other session", "sess-2", domain.AuditActionVendorApproved, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repos.AuditLogs.ExistsVendorDecision(ctx, verificationID, tt.session, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()
	user := &domain.User{ID: uuid.New(), Role: domain.UserRoleSitter, Status: domain.UserStatusActive}
	store.PutUser(user)

	at := time.Now()
	require.NoError(t, repos.Users.MarkContactVerified(ctx, user.ID, domain.ContactChannelEmail, at))
	require.NoError(t, repos.Users.MarkContactVerified(ctx, user.ID, domain.ContactChannelEmail, at.Add(time.Hour)))
	require.NoError(t, repos.Users.UpdateStatus(ctx, user.ID, domain.UserStatusSuspended))

	got, err := repos.Users.GetOneByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EmailVerifiedAt)
	assert.True(t, got.EmailVerifiedAt.Equal(at))
	assert.Equal(t, domain.UserStatusSuspended, got.Status)

	assert.ErrorIs(t, repos.Users.MarkContactVerified(ctx, user.ID, "carrier_pigeon", at), domain.ErrValidation)
	assert.ErrorIs(t, repos.Users.UpdateStatus(ctx, uuid.New(), domain.UserStatusActive), domain.ErrNotFound)
}
