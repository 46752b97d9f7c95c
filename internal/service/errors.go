package service

import (
	"errors"

	"github.com/pawsitter/backend/internal/domain"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrVerificationNotFound = errors.New("verification not found")
	ErrUnknownSession       = errors.New("unknown vendor session")

	// ErrConflictingTransition is returned when a transition still loses the
	// optimistic lock after one retry.
	ErrConflictingTransition = errors.New("conflicting verification transition")

	// ErrEligibilityProjection accompanies a committed decision whose user
	// eligibility could not be recomputed. The result is still returned.
	ErrEligibilityProjection = errors.New("eligibility projection failed")

	ErrVerificationInProgress = errors.New("verification already in progress")
	ErrAlreadyVerified        = errors.New("user is already verified")
	ErrResubmissionNotAllowed = errors.New("resubmission is not allowed")
	ErrAttemptsExhausted      = errors.New("verification attempts exhausted")
)

var (
	ErrInvalidDecision            = domain.NewValidationError("decision must be approved or rejected")
	ErrResubmissionRequiresReject = domain.NewValidationError("resubmission can only be allowed for a rejected verification")
	ErrDocumentImageRequired      = domain.NewValidationError("document image is required")
	ErrInvalidDocumentImage       = domain.NewValidationError("document image reference is invalid")
	ErrDocumentNotOwned           = domain.NewValidationError("document image was not uploaded by this user")
	ErrUnsupportedContentType     = domain.NewValidationError("unsupported document content type")
	ErrEmptyDocument              = domain.NewValidationError("document is empty")
)
