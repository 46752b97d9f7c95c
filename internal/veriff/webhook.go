package veriff

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pawsitter/backend/internal/domain"
)

// Vendor session states.
const (
	StatusApproved              = "approved"
	StatusDeclined              = "declined"
	StatusResubmissionRequested = "resubmission_requested"
	StatusExpired               = "expired"
	StatusAbandoned             = "abandoned"
	StatusReview                = "review"
	StatusSubmitted             = "submitted"
	StatusStarted               = "started"
	StatusCreated               = "created"
)

// Declined reason codes. 1xx are fraud signals, 2xx are recoverable.
var reasonCodes = map[int]struct {
	category domain.RejectionCategory
	reason   string
}{
	102: {domain.RejectionSuspectedFraud, "Suspected document tampering"},
	103: {domain.RejectionSuspectedFraud, "Person showing the document does not match document photo"},
	105: {domain.RejectionSuspectedFraud, "Suspicious behaviour"},
	106: {domain.RejectionSuspectedFraud, "Known fraud"},
	108: {domain.RejectionSuspectedFraud, "Velocity/abuse duplicated user"},
	109: {domain.RejectionSuspectedFraud, "Velocity/abuse duplicated device"},
	201: {domain.RejectionPoorImageQuality, "Video and/or photos missing"},
	202: {domain.RejectionPoorImageQuality, "Face not clearly visible"},
	203: {domain.RejectionPoorImageQuality, "Full document not visible"},
	204: {domain.RejectionPoorImageQuality, "Poor image quality"},
	205: {domain.RejectionDocumentInvalid, "Document damaged"},
	206: {domain.RejectionDocumentInvalid, "Document type not supported"},
	207: {domain.RejectionDocumentExpired, "Document expired"},
}

type webhookPayload struct {
	Status       string               `json:"status"`
	Verification *verificationPayload `json:"verification"`
}

type verificationPayload struct {
	ID         string           `json:"id"`
	Code       int              `json:"code"`
	Status     string           `json:"status"`
	Reason     *string          `json:"reason"`
	ReasonCode *int             `json:"reasonCode"`
	Person     map[string]any   `json:"person"`
	Document   *documentPayload `json:"document"`
	// DecisionScore is a fraction in [0, 1].
	DecisionScore *float64   `json:"decisionScore"`
	VendorData    string     `json:"vendorData"`
	DecisionTime  *time.Time `json:"decisionTime"`
}

type documentPayload struct {
	Number  string `json:"number"`
	Type    string `json:"type"`
	Country string `json:"country"`
}

// Decision is a vendor outcome in internal vocabulary.
type Decision struct {
	SessionID         string
	VendorStatus      string
	Status            domain.VerificationStatus
	ReasonCode        *int
	Reason            string
	RejectionCategory domain.RejectionCategory
	AllowResubmission bool
	DocumentType      domain.DocumentType
	DocumentCountry   string
	DocumentNumber    string
	Score             *float64
	ExtractedData     domain.JSONMap
	DecisionTime      *time.Time
}

// IsFinal is false for in-progress states such as review.
func (d *Decision) IsFinal() bool {
	return d.Status.IsTerminal()
}

// ParseWebhook decodes and normalizes a decision webhook body.
func ParseWebhook(raw []byte) (*Decision, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return normalize(payload.Verification)
}

func normalize(v *verificationPayload) (*Decision, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: verification object missing", ErrMalformedPayload)
	}
	if strings.TrimSpace(v.ID) == "" {
		return nil, fmt.Errorf("%w: verification.id missing", ErrMalformedPayload)
	}

	d := &Decision{
		SessionID:    v.ID,
		VendorStatus: strings.ToLower(strings.TrimSpace(v.Status)),
		ReasonCode:   v.ReasonCode,
		Score:        normalizeScore(v.DecisionScore),
		DecisionTime: v.DecisionTime,
	}
	if v.Reason != nil {
		d.Reason = strings.TrimSpace(*v.Reason)
	}

	extracted := domain.JSONMap{}
	if len(v.Person) > 0 {
		extracted["person"] = v.Person
	}
	if v.Document != nil {
		d.DocumentCountry = strings.ToUpper(strings.TrimSpace(v.Document.Country))
		d.DocumentNumber = v.Document.Number
		d.DocumentType = ToInternalDocumentType(v.Document.Type, v.Document.Country)
		extracted["document"] = map[string]any{
			"number":  v.Document.Number,
			"type":    v.Document.Type,
			"country": d.DocumentCountry,
		}
	}
	d.ExtractedData = extracted

	switch d.VendorStatus {
	case StatusApproved:
		d.Status = domain.VerificationStatusApproved
	case StatusDeclined:
		d.Status = domain.VerificationStatusRejected
		d.applyReasonCode(domain.RejectionDocumentInvalid, "Declined by identity verification provider")
		d.AllowResubmission = d.RejectionCategory.IsRecoverable()
	case StatusResubmissionRequested:
		d.Status = domain.VerificationStatusRejected
		d.applyReasonCode(domain.RejectionPoorImageQuality, "Resubmission requested by identity verification provider")
		d.AllowResubmission = d.RejectionCategory.IsRecoverable()
	case StatusExpired, StatusAbandoned:
		d.Status = domain.VerificationStatusRejected
		d.RejectionCategory = domain.RejectionSessionExpired
		if d.Reason == "" {
			d.Reason = "Verification session " + d.VendorStatus
		}
		d.AllowResubmission = true
	case StatusReview, StatusSubmitted, StatusStarted, StatusCreated:
		d.Status = domain.VerificationStatusPending
	default:
		return nil, fmt.Errorf("%w: unknown verification.status %q", ErrMalformedPayload, v.Status)
	}

	return d, nil
}

func (d *Decision) applyReasonCode(fallback domain.RejectionCategory, fallbackReason string) {
	d.RejectionCategory = fallback
	if d.ReasonCode != nil {
		if rc, ok := reasonCodes[*d.ReasonCode]; ok {
			d.RejectionCategory = rc.category
			if d.Reason == "" {
				d.Reason = rc.reason
			}
		}
	}
	if d.Reason == "" {
		d.Reason = fallbackReason
	}
}

// normalizeScore maps the vendor fraction onto the 0-100 scale used for
// confidence levels.
func normalizeScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	s := min(max(*score, 0), 1) * 100
	return &s
}
