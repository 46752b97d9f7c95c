package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/service"
	emailProvider "github.com/pawsitter/backend/pkg/email"
	"go.uber.org/zap"
)

type Workers struct {
	Notifier          Notifier
	EligibilitySyncer EligibilitySyncer
}

type Deps struct {
	Services      *service.Services
	EmailProvider emailProvider.Sender
	Stale         StaleSet
	Config        *config.Config
	Logger        *zap.Logger
}

type Notifier interface {
	SendDecisionNotification(ctx context.Context, n domain.DecisionNotification) error
}

type EligibilitySyncer interface {
	Sync(ctx context.Context, userID uuid.UUID) error
	// ReconcileStale re-projects every user marked stale and returns how
	// many were repaired.
	ReconcileStale(ctx context.Context) (int, error)
}

// StaleSet is the store of users with a stale eligibility projection.
type StaleSet interface {
	Members(ctx context.Context) ([]uuid.UUID, error)
	ClearStale(ctx context.Context, userID uuid.UUID) error
}

func NewWorkers(deps Deps) *Workers {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Workers{
		Notifier:          newEmailNotifier(deps.EmailProvider, deps.Services, deps.Config.Email, log),
		EligibilitySyncer: newEligibilitySyncer(deps.Services, deps.Stale, log),
	}
}
