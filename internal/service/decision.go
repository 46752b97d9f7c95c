package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/metrics"
	"github.com/pawsitter/backend/internal/repository"
	"github.com/pawsitter/backend/internal/veriff"
	"go.uber.org/zap"
)

const (
	sourceVendor = "vendor"
	sourceAdmin  = "admin"
)

type VendorDecisionInput struct {
	Decision *veriff.Decision
	Actor    Actor
}

type AdminDecisionInput struct {
	VerificationID uuid.UUID
	AdminID        uuid.UUID
	Status         domain.VerificationStatus
	Reason         string
	Category       domain.RejectionCategory
	// AllowResubmission overrides the default derived from Category.
	AllowResubmission *bool
	Notes             string
	Actor             Actor
}

type AllowResubmissionInput struct {
	VerificationID uuid.UUID
	AdminID        uuid.UUID
	Reason         string
	Actor          Actor
}

// DecisionResult describes one committed (or skipped) transition.
type DecisionResult struct {
	Verification *domain.Verification
	// AuditLog is nil when the decision was an idempotent no-op.
	AuditLog *domain.AuditLog
	// User is the projected user; nil when nothing was projected.
	User *domain.User
	// Applied is false when the decision was only recorded, e.g. a vendor
	// decision arriving after an admin override.
	Applied          bool
	EligibilityStale bool
}

func (r *DecisionResult) NoOp() bool {
	return r.AuditLog == nil
}

// transition is what a step decided to do with a locked record. A nil entry
// means there is nothing to record.
type transition struct {
	entry   *domain.AuditLog
	mutated bool
	notify  bool
}

type stepFunc func(ctx context.Context, repos repository.TxRepositories, v *domain.Verification, now time.Time) (*transition, error)

type decisionEngine struct {
	transactor    repository.Transactor
	verifications repository.Verifications
	vendor        VendorClient
	projector     *eligibilityProjector
	queue         TaskQueue
	metrics       *metrics.Metrics
	log           *zap.Logger
	now           func() time.Time
}

func newDecisionEngine(
	repos *repository.Repositories,
	vendor VendorClient,
	projector *eligibilityProjector,
	queue TaskQueue,
	m *metrics.Metrics,
	log *zap.Logger,
	now func() time.Time,
) *decisionEngine {
	return &decisionEngine{
		transactor:    repos.Transactor,
		verifications: repos.Verifications,
		vendor:        vendor,
		projector:     projector,
		queue:         queue,
		metrics:       m,
		log:           log.Named("decision"),
		now:           now,
	}
}

func (e *decisionEngine) ApplyVendorDecision(ctx context.Context, in VendorDecisionInput) (*DecisionResult, error) {
	d := in.Decision
	if d == nil || d.SessionID == "" {
		return nil, veriff.ErrMalformedPayload
	}

	v, err := e.verifications.GetOneByVendorSessionID(ctx, d.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSession, d.SessionID)
		}
		return nil, fmt.Errorf("get verification by session failed: %w", err)
	}

	if !d.IsFinal() {
		e.log.Debug("non-final vendor status ignored",
			zap.String("session_id", d.SessionID),
			zap.String("vendor_status", d.VendorStatus),
		)
		return &DecisionResult{Verification: v}, nil
	}

	return e.run(ctx, v.ID, sourceVendor, func(ctx context.Context, repos repository.TxRepositories, v *domain.Verification, now time.Time) (*transition, error) {
		return e.vendorStep(ctx, repos, v, d, in.Actor, now)
	})
}

func (e *decisionEngine) vendorStep(ctx context.Context, repos repository.TxRepositories, v *domain.Verification, d *veriff.Decision, actor Actor, now time.Time) (*transition, error) {
	action := domain.AuditActionVendorApproved
	if d.Status == domain.VerificationStatusRejected {
		action = domain.AuditActionVendorRejected
	}

	recorded, err := repos.AuditLogs.ExistsVendorDecision(ctx, v.ID, d.SessionID, action)
	if err != nil {
		return nil, fmt.Errorf("check vendor decision replay failed: %w", err)
	}
	if recorded || (v.Status == d.Status && decidedByVendor(v)) {
		return &transition{}, nil
	}

	entry, err := newAuditEntry(v.ID, action, actor, now)
	if err != nil {
		return nil, err
	}
	entry.Metadata[domain.AuditMetaPreviousStatus] = string(v.Status)
	entry.Metadata[domain.AuditMetaVendorSessionID] = d.SessionID

	mismatch := false
	if d.DocumentType != "" {
		entry.Metadata[domain.AuditMetaDetectedType] = string(d.DocumentType)
		entry.Metadata[domain.AuditMetaDetectedCountry] = d.DocumentCountry
		mismatch = !veriff.SameDocumentFamily(v.DocumentType, d.DocumentType)
	}
	if mismatch {
		entry.Metadata[domain.AuditMetaTypeMismatch] = true
		e.log.Warn("vendor detected a different document type",
			zap.Stringer("verification_id", v.ID),
			zap.String("submitted", string(v.DocumentType)),
			zap.String("detected", string(d.DocumentType)),
			zap.String("country", d.DocumentCountry),
		)
	}
	if d.Score != nil {
		level := domain.ConfidenceFromScore(*d.Score)
		entry.ConfidenceLevel = &level
	}
	if d.Status == domain.VerificationStatusRejected {
		reason := d.Reason
		category := d.RejectionCategory
		entry.Reason = &reason
		entry.RejectionCategory = &category
	}

	// Only a pending record moves on a vendor outcome. A decided record keeps
	// its status until an admin changes it; the vendor outcome is kept for
	// the record.
	if v.Status != domain.VerificationStatusPending {
		entry.Metadata[domain.AuditMetaApplied] = false
		entry.Metadata[domain.AuditMetaNewStatus] = string(v.Status)
		e.log.Info("vendor decision recorded for a decided verification",
			zap.Stringer("verification_id", v.ID),
			zap.String("vendor_status", string(d.Status)),
			zap.String("current_status", string(v.Status)),
			zap.Bool("admin_decided", v.DecidedByAdmin()),
		)
		return &transition{entry: entry}, nil
	}

	switch d.Status {
	case domain.VerificationStatusApproved:
		v.Approve(now, nil, d.Score)
	case domain.VerificationStatusRejected:
		if err := v.Reject(now, nil, d.Reason, d.RejectionCategory, d.AllowResubmission); err != nil {
			return nil, err
		}
		if d.Score != nil {
			v.VerificationScore = d.Score
			v.ConfidenceLevel = entry.ConfidenceLevel
		}
	default:
		return nil, fmt.Errorf("%w: status %q", veriff.ErrMalformedPayload, d.Status)
	}

	v.ExtractedData = mergeExtracted(v.ExtractedData, d, mismatch)
	entry.Metadata[domain.AuditMetaApplied] = true
	entry.Metadata[domain.AuditMetaNewStatus] = string(v.Status)

	return &transition{entry: entry, mutated: true, notify: true}, nil
}

func (e *decisionEngine) ApplyAdminDecision(ctx context.Context, in AdminDecisionInput) (*DecisionResult, error) {
	switch in.Status {
	case domain.VerificationStatusApproved:
	case domain.VerificationStatusRejected:
		if strings.TrimSpace(in.Reason) == "" {
			return nil, domain.ErrRejectionReasonRequired
		}
	default:
		return nil, ErrInvalidDecision
	}

	category := in.Category
	if category == "" {
		category = domain.RejectionOther
	}

	actor := in.Actor
	adminID := in.AdminID
	actor.AdminID = &adminID

	return e.run(ctx, in.VerificationID, sourceAdmin, func(_ context.Context, _ repository.TxRepositories, v *domain.Verification, now time.Time) (*transition, error) {
		previous := v.Status

		var action domain.AuditAction
		switch in.Status {
		case domain.VerificationStatusApproved:
			action = domain.AuditActionManualApproved
			v.Approve(now, &adminID, nil)
		case domain.VerificationStatusRejected:
			action = domain.AuditActionManualRejected
			allow := category.IsRecoverable()
			if in.AllowResubmission != nil {
				allow = *in.AllowResubmission
			}
			if err := v.Reject(now, &adminID, in.Reason, category, allow); err != nil {
				return nil, err
			}
		}

		notes := strings.TrimSpace(in.Notes)
		if notes != "" {
			v.AdminNotes = &notes
		}

		entry, err := newAuditEntry(v.ID, action, actor, now)
		if err != nil {
			return nil, err
		}
		entry.ConfidenceLevel = v.ConfidenceLevel
		entry.RejectionCategory = v.RejectionCategory
		entry.Reason = v.RejectionReason
		if entry.Reason == nil && notes != "" {
			entry.Reason = &notes
		}
		entry.Metadata[domain.AuditMetaPreviousStatus] = string(previous)
		entry.Metadata[domain.AuditMetaNewStatus] = string(v.Status)
		entry.Metadata[domain.AuditMetaApplied] = true

		return &transition{entry: entry, mutated: true, notify: true}, nil
	})
}

func (e *decisionEngine) AllowResubmission(ctx context.Context, in AllowResubmissionInput) (*DecisionResult, error) {
	actor := in.Actor
	adminID := in.AdminID
	actor.AdminID = &adminID

	return e.run(ctx, in.VerificationID, sourceAdmin, func(_ context.Context, _ repository.TxRepositories, v *domain.Verification, now time.Time) (*transition, error) {
		if v.Status != domain.VerificationStatusRejected {
			return nil, ErrResubmissionRequiresReject
		}
		if v.RejectionCategory != nil && !v.RejectionCategory.IsRecoverable() {
			return nil, ErrResubmissionNotAllowed
		}
		if v.AllowResubmission {
			return &transition{}, nil
		}

		v.AllowResubmission = true

		entry, err := newAuditEntry(v.ID, domain.AuditActionResubmissionAllowed, actor, now)
		if err != nil {
			return nil, err
		}
		if reason := strings.TrimSpace(in.Reason); reason != "" {
			entry.Reason = &reason
		}
		entry.RejectionCategory = v.RejectionCategory
		entry.Metadata[domain.AuditMetaPreviousStatus] = string(v.Status)
		entry.Metadata[domain.AuditMetaNewStatus] = string(v.Status)
		entry.Metadata[domain.AuditMetaApplied] = true

		return &transition{entry: entry, mutated: true, notify: true}, nil
	})
}

func (e *decisionEngine) RefreshFromVendor(ctx context.Context, verificationID uuid.UUID) (*DecisionResult, error) {
	v, err := e.verifications.GetOneByID(ctx, verificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("get verification failed: %w", err)
	}
	if v.VendorSessionID == nil {
		return nil, ErrUnknownSession
	}

	start := time.Now()
	d, err := e.vendor.GetDecision(ctx, *v.VendorSessionID)
	e.metrics.ObserveVendor("get_decision", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	return e.ApplyVendorDecision(ctx, VendorDecisionInput{Decision: d})
}

func (e *decisionEngine) SyncEligibility(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user *domain.User
	err := e.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		u, err := e.projector.project(ctx, repos, userID, e.now())
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
		return nil, fmt.Errorf("sync eligibility failed: %w", err)
	}

	e.projector.synced(ctx, userID)

	return user, nil
}

// run executes step under the record lock. A version conflict is retried
// once; a second conflict is reported as ErrConflictingTransition.
func (e *decisionEngine) run(ctx context.Context, verificationID uuid.UUID, source string, step stepFunc) (*DecisionResult, error) {
	out, err := e.runOnce(ctx, verificationID, step)
	if errors.Is(err, domain.ErrVersionConflict) {
		e.metrics.IncConflictRetry()
		e.log.Info("transition conflicted, retrying",
			zap.Stringer("verification_id", verificationID),
			zap.String("source", source),
		)
		out, err = e.runOnce(ctx, verificationID, step)
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: %w", ErrConflictingTransition, err)
		}
	}
	if err != nil {
		return nil, err
	}

	res := out.result
	if res.NoOp() {
		e.log.Debug("transition is a no-op", zap.Stringer("verification_id", verificationID), zap.String("source", source))
		return res, nil
	}

	v := res.Verification
	e.metrics.IncTransition(source, string(v.Status), res.Applied)
	e.log.Info("verification transition committed",
		zap.Stringer("verification_id", v.ID),
		zap.String("action", string(res.AuditLog.Action)),
		zap.String("status", string(v.Status)),
		zap.Bool("applied", res.Applied),
	)

	if out.notify {
		e.notify(ctx, v)
	}

	if out.projectionErr != nil {
		res.EligibilityStale = true
		e.projector.degraded(ctx, v.UserID, out.projectionErr)
		return res, fmt.Errorf("%w: %w", ErrEligibilityProjection, out.projectionErr)
	}
	if res.Applied {
		e.projector.synced(ctx, v.UserID)
	}

	return res, nil
}

type runOutcome struct {
	result        *DecisionResult
	notify        bool
	projectionErr error
}

func (e *decisionEngine) runOnce(ctx context.Context, verificationID uuid.UUID, step stepFunc) (*runOutcome, error) {
	var out *runOutcome
	now := e.now()

	err := e.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		out = nil

		v, err := repos.Verifications.GetOneByIDForUpdate(ctx, verificationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return ErrVerificationNotFound
			}
			return fmt.Errorf("lock verification failed: %w", err)
		}

		tr, err := step(ctx, repos, v, now)
		if err != nil {
			return err
		}

		res := &DecisionResult{Verification: v}
		out = &runOutcome{result: res, notify: tr.notify}
		if tr.entry == nil {
			return nil
		}

		if tr.mutated {
			v.UpdatedAt = now
			if err := repos.Verifications.Update(ctx, v); err != nil {
				if errors.Is(err, domain.ErrVersionConflict) {
					return err
				}
				return fmt.Errorf("update verification failed: %w", err)
			}
		}

		if err := repos.AuditLogs.Append(ctx, tr.entry); err != nil {
			return fmt.Errorf("append audit log failed: %w", err)
		}
		res.AuditLog = tr.entry
		res.Applied = tr.mutated

		if !tr.mutated {
			return nil
		}

		// A failed projection keeps the decision; the caller reports it.
		user, err := e.projector.project(ctx, repos, v.UserID, now)
		if err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				return err
			}
			out.projectionErr = err
			return nil
		}
		res.User = user

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (e *decisionEngine) notify(ctx context.Context, v *domain.Verification) {
	if e.queue == nil {
		return
	}

	n := domain.DecisionNotification{
		VerificationID:    v.ID,
		UserID:            v.UserID,
		Status:            v.Status,
		AllowResubmission: v.AllowResubmission,
	}
	if v.RejectionReason != nil {
		n.Reason = *v.RejectionReason
	}

	if err := e.queue.EnqueueDecisionNotification(ctx, n); err != nil {
		e.log.Warn("enqueue decision notification failed", zap.Stringer("verification_id", v.ID), zap.Error(err))
	}
}

func newAuditEntry(verificationID uuid.UUID, action domain.AuditAction, actor Actor, now time.Time) (*domain.AuditLog, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate audit log id failed: %w", err)
	}

	entry := &domain.AuditLog{
		ID:             id,
		VerificationID: verificationID,
		AdminID:        actor.AdminID,
		Action:         action,
		Metadata:       domain.JSONMap{},
		CreatedAt:      now,
	}
	if actor.IPAddress != "" {
		ip := actor.IPAddress
		entry.IPAddress = &ip
	}
	if actor.UserAgent != "" {
		ua := actor.UserAgent
		entry.UserAgent = &ua
	}

	return entry, nil
}

func decidedByVendor(v *domain.Verification) bool {
	return !v.DecidedByAdmin() &&
		v.VerificationMethod != nil &&
		*v.VerificationMethod == domain.VerificationMethodVendor
}

func mergeExtracted(current domain.JSONMap, d *veriff.Decision, mismatch bool) domain.JSONMap {
	merged := maps.Clone(current)
	if merged == nil {
		merged = domain.JSONMap{}
	}
	maps.Copy(merged, d.ExtractedData)
	if d.DocumentType != "" {
		merged[domain.AuditMetaDetectedType] = string(d.DocumentType)
		merged[domain.AuditMetaDetectedCountry] = d.DocumentCountry
	}
	if mismatch {
		merged[domain.AuditMetaTypeMismatch] = true
	}
	if d.ReasonCode != nil {
		merged["reason_code"] = *d.ReasonCode
	}
	return merged
}
