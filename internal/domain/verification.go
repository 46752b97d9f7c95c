package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// IsTerminal reports whether the status was reached through a completed decision.
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationStatusApproved || s == VerificationStatusRejected
}

type VerificationMethod string

const (
	VerificationMethodManual VerificationMethod = "manual"
	VerificationMethodVendor VerificationMethod = "vendor"
)

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// ConfidenceFromScore buckets a 0-100 vendor score.
func ConfidenceFromScore(score float64) ConfidenceLevel {
	switch {
	case score >= 90:
		return ConfidenceHigh
	case score >= 70:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type RejectionCategory string

const (
	RejectionDocumentInvalid  RejectionCategory = "document_invalid"
	RejectionDocumentExpired  RejectionCategory = "document_expired"
	RejectionPoorImageQuality RejectionCategory = "poor_image_quality"
	RejectionDataMismatch     RejectionCategory = "data_mismatch"
	RejectionSuspectedFraud   RejectionCategory = "suspected_fraud"
	RejectionSessionExpired   RejectionCategory = "session_expired"
	RejectionOther            RejectionCategory = "other"
)

// IsRecoverable is false for categories after which the user may not resubmit.
func (c RejectionCategory) IsRecoverable() bool {
	return c != RejectionSuspectedFraud
}

func ParseRejectionCategory(s string) (RejectionCategory, error) {
	switch c := RejectionCategory(strings.TrimSpace(s)); c {
	case "":
		return RejectionOther, nil
	case RejectionDocumentInvalid, RejectionDocumentExpired, RejectionPoorImageQuality,
		RejectionDataMismatch, RejectionSuspectedFraud, RejectionSessionExpired, RejectionOther:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRejectionCategory, s)
	}
}

const (
	BadgeIDVerified     = "id_verified"
	BadgeHighConfidence = "high_confidence"
	BadgeGovernmentID   = "ph_government_id"
	BadgeAdminReviewed  = "admin_reviewed"
)

// StringList is a JSON encoded list column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	b, err := jsonBytes(value)
	if err != nil || b == nil {
		*l = nil
		return err
	}
	return json.Unmarshal(b, (*[]string)(l))
}

// JSONMap is a free-form JSON object column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	b, err := jsonBytes(value)
	if err != nil || b == nil {
		*m = nil
		return err
	}
	return json.Unmarshal(b, (*map[string]any)(m))
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type: %T", value)
	}
}

// Verification is one attempt by a user to prove identity with a document.
type Verification struct {
	ID               uuid.UUID    `db:"id" json:"id"`
	UserID           uuid.UUID    `db:"user_id" json:"user_id"`
	Attempt          int          `db:"attempt" json:"attempt"`
	DocumentType     DocumentType `db:"document_type" json:"document_type"`
	DocumentNumber   string       `db:"document_number" json:"document_number"`
	DocumentImage    string       `db:"document_image" json:"document_image"`
	IsPhilippineID   bool         `db:"is_philippine_id" json:"is_philippine_id"`
	ExtractedData    JSONMap      `db:"extracted_data" json:"extracted_data"`
	VendorSessionID  *string      `db:"vendor_session_id" json:"vendor_session_id,omitempty"`
	VendorSessionURL *string      `db:"vendor_session_url" json:"vendor_session_url,omitempty"`

	VerificationMethod *VerificationMethod `db:"verification_method" json:"verification_method,omitempty"`
	ConfidenceLevel    *ConfidenceLevel    `db:"confidence_level" json:"confidence_level,omitempty"`
	VerificationScore  *float64            `db:"verification_score" json:"verification_score,omitempty"`

	Status            VerificationStatus `db:"status" json:"status"`
	VerifiedAt        *time.Time         `db:"verified_at" json:"verified_at,omitempty"`
	VerifiedBy        *uuid.UUID         `db:"verified_by" json:"verified_by,omitempty"`
	RejectionReason   *string            `db:"rejection_reason" json:"rejection_reason,omitempty"`
	RejectionCategory *RejectionCategory `db:"rejection_category" json:"rejection_category,omitempty"`
	AllowResubmission bool               `db:"allow_resubmission" json:"allow_resubmission"`
	AdminNotes        *string            `db:"admin_notes" json:"admin_notes,omitempty"`
	BadgesEarned      StringList         `db:"badges_earned" json:"badges_earned"`

	Version   int       `db:"version" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DecidedByAdmin reports whether the current status comes from a manual decision.
func (v *Verification) DecidedByAdmin() bool {
	return v.VerifiedBy != nil
}

// Approve moves the record to approved. adminID is nil for vendor decisions.
func (v *Verification) Approve(now time.Time, adminID *uuid.UUID, score *float64) {
	method := VerificationMethodVendor
	if adminID != nil {
		method = VerificationMethodManual
	}
	v.Status = VerificationStatusApproved
	v.VerificationMethod = &method
	v.VerifiedBy = adminID
	v.VerifiedAt = &now
	v.RejectionReason = nil
	v.RejectionCategory = nil
	v.AllowResubmission = false
	if score != nil {
		level := ConfidenceFromScore(*score)
		v.VerificationScore = score
		v.ConfidenceLevel = &level
	}
	v.BadgesEarned = v.badges()
}

// Reject moves the record to rejected; reason must not be blank.
func (v *Verification) Reject(now time.Time, adminID *uuid.UUID, reason string, category RejectionCategory, allowResubmission bool) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectionReasonRequired
	}
	method := VerificationMethodVendor
	if adminID != nil {
		method = VerificationMethodManual
	}
	v.Status = VerificationStatusRejected
	v.VerificationMethod = &method
	v.VerifiedBy = adminID
	v.VerifiedAt = &now
	v.RejectionReason = &reason
	v.RejectionCategory = &category
	v.AllowResubmission = allowResubmission && category.IsRecoverable()
	v.BadgesEarned = nil
	return nil
}

func (v *Verification) badges() StringList {
	badges := StringList{BadgeIDVerified}
	if v.ConfidenceLevel != nil && *v.ConfidenceLevel == ConfidenceHigh {
		badges = append(badges, BadgeHighConfidence)
	}
	if v.IsPhilippineID {
		badges = append(badges, BadgeGovernmentID)
	}
	if v.VerifiedBy != nil {
		badges = append(badges, BadgeAdminReviewed)
	}
	return badges
}

// VerificationFilter narrows the moderation queue.
type VerificationFilter struct {
	Status *VerificationStatus
	UserID *uuid.UUID
	Page   int
	Limit  int
}
