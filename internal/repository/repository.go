package repository

import (
	"context"
	"time"

	"github.com/pawsitter/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Users         Users
	Verifications Verifications
	AuditLogs     AuditLogs
	Transactor    Transactor
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:         newUserRepository(db),
		Verifications: newVerificationRepository(db),
		AuditLogs:     newAuditLogRepository(db),
		Transactor:    newTransactor(db),
	}
}

// TxRepositories are bound to one open transaction.
type TxRepositories struct {
	Users         Users
	Verifications Verifications
	AuditLogs     AuditLogs
}

// Transactor runs fn in a single unit of work. Returning an error from fn
// rolls back every write made through the TxRepositories.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

type Users interface {
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetOneByIDForUpdate serializes submissions of one user.
	GetOneByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error
	MarkContactVerified(ctx context.Context, id uuid.UUID, channel domain.ContactChannel, at time.Time) error
	// UpdateEligibility writes only the projection fields of user.
	UpdateEligibility(ctx context.Context, user *domain.User) error
}

type Verifications interface {
	Create(ctx context.Context, verification *domain.Verification) error
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error)
	// GetOneByIDForUpdate locks the row until the surrounding transaction ends.
	GetOneByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Verification, error)
	GetOneByVendorSessionID(ctx context.Context, sessionID string) (*domain.Verification, error)
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*domain.Verification, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	// Update succeeds only if verification.Version matches the stored row and
	// bumps Version on success; otherwise it returns domain.ErrVersionConflict.
	Update(ctx context.Context, verification *domain.Verification) error
	List(ctx context.Context, filter domain.VerificationFilter) ([]*domain.Verification, int64, error)
}

// AuditLogs is append-only: there is no update or delete.
type AuditLogs interface {
	Append(ctx context.Context, entry *domain.AuditLog) error
	GetLatest(ctx context.Context, verificationID uuid.UUID) (*domain.AuditLog, error)
	// ExistsVendorDecision reports whether the vendor outcome action for
	// sessionID was already recorded on the verification.
	ExistsVendorDecision(ctx context.Context, verificationID uuid.UUID, sessionID string, action domain.AuditAction) (bool, error)
	// ListPage returns up to limit rows after cursor ordered by (created_at, id).
	ListPage(ctx context.Context, verificationID uuid.UUID, after *domain.AuditCursor, limit int) ([]*domain.AuditLog, error)
}
