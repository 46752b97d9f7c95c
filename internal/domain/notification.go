package domain

import "github.com/google/uuid"

// DecisionNotification tells a user that their verification changed.
type DecisionNotification struct {
	VerificationID    uuid.UUID          `json:"verification_id"`
	UserID            uuid.UUID          `json:"user_id"`
	Status            VerificationStatus `json:"status"`
	Reason            string             `json:"reason,omitempty"`
	AllowResubmission bool               `json:"allow_resubmission"`
}
