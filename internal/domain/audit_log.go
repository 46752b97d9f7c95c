package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionSubmitted           AuditAction = "submitted"
	AuditActionVendorApproved      AuditAction = "vendor_approved"
	AuditActionVendorRejected      AuditAction = "vendor_rejected"
	AuditActionManualApproved      AuditAction = "manual_approved"
	AuditActionManualRejected      AuditAction = "manual_rejected"
	AuditActionResubmissionAllowed AuditAction = "resubmission_allowed"
)

// Metadata keys written on every audit row.
const (
	AuditMetaPreviousStatus  = "previous_status"
	AuditMetaNewStatus       = "new_status"
	AuditMetaVendorSessionID = "vendor_session_id"
	AuditMetaApplied         = "applied"
	AuditMetaDetectedType    = "detected_document_type"
	AuditMetaDetectedCountry = "detected_country"
	AuditMetaTypeMismatch    = "document_type_mismatch"
)

// AuditLog is an append-only record of one verification transition.
type AuditLog struct {
	ID                uuid.UUID          `db:"id" json:"id"`
	VerificationID    uuid.UUID          `db:"verification_id" json:"verification_id"`
	AdminID           *uuid.UUID         `db:"admin_id" json:"admin_id,omitempty"`
	Action            AuditAction        `db:"action" json:"action"`
	Reason            *string            `db:"reason" json:"reason,omitempty"`
	ConfidenceLevel   *ConfidenceLevel   `db:"confidence_level" json:"confidence_level,omitempty"`
	RejectionCategory *RejectionCategory `db:"rejection_category" json:"rejection_category,omitempty"`
	IPAddress         *string            `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent         *string            `db:"user_agent" json:"user_agent,omitempty"`
	Metadata          JSONMap            `db:"metadata" json:"metadata"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
}

// Applied is false for rows recorded without changing status, e.g. a vendor
// decision that arrived after an admin override.
func (a *AuditLog) Applied() bool {
	v, ok := a.Metadata[AuditMetaApplied]
	if !ok {
		return true
	}
	applied, isBool := v.(bool)
	return !isBool || applied
}

// ReplayStatus folds audit rows, oldest first, into the verification status
// they describe.
func ReplayStatus(entries []*AuditLog) VerificationStatus {
	status := VerificationStatus("")
	for _, e := range entries {
		if !e.Applied() {
			continue
		}
		switch e.Action {
		case AuditActionSubmitted:
			status = VerificationStatusPending
		case AuditActionVendorApproved, AuditActionManualApproved:
			status = VerificationStatusApproved
		case AuditActionVendorRejected, AuditActionManualRejected:
			status = VerificationStatusRejected
		}
	}
	return status
}

// AuditCursor is the keyset position after the last row of a page.
type AuditCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}
