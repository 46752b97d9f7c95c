package veriff

import "errors"

var (
	// ErrVendorUnavailable covers transport errors, timeouts and non-2xx
	// responses. Callers treat it as retryable, never as a decision.
	ErrVendorUnavailable = errors.New("verification vendor unavailable")
	ErrSignatureInvalid  = errors.New("webhook signature invalid")
	ErrMalformedPayload  = errors.New("malformed vendor payload")
)
