package domain

import "errors"

var (
	ErrDuplicateEntry  = errors.New("duplicate entry")
	ErrNotFound        = errors.New("not found")
	ErrNoRowsAffected  = errors.New("no rows affected")
	ErrVersionConflict = errors.New("version conflict")
)

// ErrValidation matches every ValidationError with errors.Is.
var ErrValidation = errors.New("validation error")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

var (
	ErrUnsupportedDocumentType  = &ValidationError{"unsupported document type"}
	ErrInvalidDocumentNumber    = &ValidationError{"invalid document number"}
	ErrUnknownRejectionCategory = &ValidationError{"unknown rejection category"}
	ErrRejectionReasonRequired  = &ValidationError{"reason required for rejection"}
	ErrInvalidUserStatus        = &ValidationError{"invalid user status"}
)
