package service

import (
	"context"
	"iter"
	"time"

	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/metrics"
	"github.com/pawsitter/backend/internal/repository"
	"github.com/pawsitter/backend/internal/storage"
	"github.com/pawsitter/backend/internal/veriff"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Services struct {
	Verifications Verifications
	Decisions     Decisions
	AuditLogs     AuditLogs
	Users         Users
	Documents     Documents
}

type Deps struct {
	Config   *config.Config
	Repos    *repository.Repositories
	Vendor   VendorClient
	Storage  storage.Storage
	Queue    TaskQueue
	Stale    StaleTracker
	Reporter AuditReporter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewServices(deps Deps) *Services {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	projector := newEligibilityProjector(deps.Stale, deps.Queue, deps.Metrics, deps.Logger)
	decisions := newDecisionEngine(deps.Repos, deps.Vendor, projector, deps.Queue, deps.Metrics, deps.Logger, deps.Now)

	return &Services{
		Verifications: newVerificationService(deps.Repos, deps.Vendor, projector, deps.Metrics, deps.Logger, deps.Config.Verification, deps.Now),
		Decisions:     decisions,
		AuditLogs:     newAuditLogService(deps.Repos.AuditLogs, deps.Repos.Verifications, deps.Reporter),
		Users:         newUserService(deps.Repos, projector, deps.Now),
		Documents:     newDocumentService(deps.Storage, deps.Repos.Verifications),
	}
}

// VendorClient is the part of the Veriff adapter the services call.
type VendorClient interface {
	CreateSession(ctx context.Context, in veriff.SessionRequest) (*veriff.Session, error)
	GetDecision(ctx context.Context, sessionID string) (*veriff.Decision, error)
}

// TaskQueue hands work to background workers. Failures are logged by callers
// and never undo a committed transition.
type TaskQueue interface {
	EnqueueDecisionNotification(ctx context.Context, n domain.DecisionNotification) error
	EnqueueEligibilitySync(ctx context.Context, userID uuid.UUID) error
}

// StaleTracker remembers users whose eligibility projection is behind.
type StaleTracker interface {
	MarkStale(ctx context.Context, userID uuid.UUID) error
	ClearStale(ctx context.Context, userID uuid.UUID) error
}

// AuditReporter renders the audit trail of one verification.
type AuditReporter interface {
	AuditReport(v *domain.Verification, entries []*domain.AuditLog) ([]byte, error)
}

// Actor describes who triggered a transition, for the audit trail.
type Actor struct {
	AdminID   *uuid.UUID
	IPAddress string
	UserAgent string
}

type Verifications interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error)
	GetStatus(ctx context.Context, userID uuid.UUID) (*VerificationStatus, error)
	List(ctx context.Context, filter domain.VerificationFilter) ([]*domain.Verification, int64, error)
}

type Decisions interface {
	ApplyVendorDecision(ctx context.Context, in VendorDecisionInput) (*DecisionResult, error)
	ApplyAdminDecision(ctx context.Context, in AdminDecisionInput) (*DecisionResult, error)
	AllowResubmission(ctx context.Context, in AllowResubmissionInput) (*DecisionResult, error)
	// RefreshFromVendor pulls the current vendor decision of a session and
	// applies it like a webhook delivery.
	RefreshFromVendor(ctx context.Context, verificationID uuid.UUID) (*DecisionResult, error)
	SyncEligibility(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type AuditLogs interface {
	ListFor(ctx context.Context, verificationID uuid.UUID) iter.Seq2[*domain.AuditLog, error]
	List(ctx context.Context, verificationID uuid.UUID) ([]*domain.AuditLog, error)
	Report(ctx context.Context, verificationID uuid.UUID) ([]byte, error)
}

type Users interface {
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) (*domain.User, error)
	MarkContactVerified(ctx context.Context, id uuid.UUID, channel domain.ContactChannel) (*domain.User, error)
}

type Documents interface {
	Upload(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error)
	Download(ctx context.Context, verificationID uuid.UUID) ([]byte, error)
}
