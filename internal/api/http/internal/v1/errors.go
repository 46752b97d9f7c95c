package v1

// Errors
const (
	UnknownErrorCode    = 0
	UnknownErrorMessage = "unknown error"

	UserNotFoundCode      = 1002
	UserNotFoundMessage   = "user not found"
	UnauthorizedCode      = 1005
	UnauthorizedMessage   = "unauthorized"
	ForbiddenCode         = 1006
	ForbiddenMessage      = "forbidden"
	InvalidIDCode         = 1007
	InvalidIDMessage      = "invalid id"
	InvalidRequestCode    = 1008
	InvalidRequestMessage = "invalid request body"

	VerificationNotFoundCode      = 2001
	VerificationNotFoundMessage   = "verification not found"
	VerificationInProgressCode    = 2002
	VerificationInProgressMessage = "verification already in progress"
	AlreadyVerifiedCode           = 2003
	AlreadyVerifiedMessage        = "user is already verified"
	ResubmissionNotAllowedCode    = 2004
	ResubmissionNotAllowedMessage = "resubmission is not allowed"
	AttemptsExhaustedCode         = 2005
	AttemptsExhaustedMessage      = "verification attempts exhausted"
	VendorUnavailableCode         = 2006
	VendorUnavailableMessage      = "verification provider is unavailable, please retry"
	ConflictingTransitionCode     = 2007
	ConflictingTransitionMessage  = "verification was changed concurrently, please retry"
	DocumentNotFoundCode          = 2009
	DocumentNotFoundMessage       = "document not found"
	DocumentTooLargeCode          = 2010
	DocumentTooLargeMessage       = "document is too large"
	ReportUnavailableCode         = 2011
	ReportUnavailableMessage      = "audit report is unavailable"

	InvalidSignatureCode    = 3001
	InvalidSignatureMessage = "invalid signature"
	MalformedPayloadCode    = 3002
	MalformedPayloadMessage = "malformed payload"

	ValidationErrorCode = 6000
)

type ErrorCode int
type ErrorMessage string

type ErrorStruct struct {
	ErrorCode    `json:"error_code"`
	ErrorMessage `json:"error_message"`
	Retryable    bool `json:"retryable,omitempty"`
} // @name ErrorStruct

type ValidationErrorStruct struct {
	ErrorCode    int               `json:"error_code"`
	ErrorMessage string            `json:"error_message"`
	Errors       []ValidationError `json:"validation_errors,omitempty"`
}

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

var errorMessages = map[ErrorCode]ErrorMessage{
	UserNotFoundCode:           UserNotFoundMessage,
	UnauthorizedCode:           UnauthorizedMessage,
	ForbiddenCode:              ForbiddenMessage,
	InvalidIDCode:              InvalidIDMessage,
	InvalidRequestCode:         InvalidRequestMessage,
	VerificationNotFoundCode:   VerificationNotFoundMessage,
	VerificationInProgressCode: VerificationInProgressMessage,
	AlreadyVerifiedCode:        AlreadyVerifiedMessage,
	ResubmissionNotAllowedCode: ResubmissionNotAllowedMessage,
	AttemptsExhaustedCode:      AttemptsExhaustedMessage,
	VendorUnavailableCode:      VendorUnavailableMessage,
	ConflictingTransitionCode:  ConflictingTransitionMessage,
	DocumentNotFoundCode:       DocumentNotFoundMessage,
	DocumentTooLargeCode:       DocumentTooLargeMessage,
	ReportUnavailableCode:      ReportUnavailableMessage,
	InvalidSignatureCode:       InvalidSignatureMessage,
	MalformedPayloadCode:       MalformedPayloadMessage,
}

func getErrorStruct(code ErrorCode) *ErrorStruct {
	msg, ok := errorMessages[code]
	if !ok {
		return &ErrorStruct{ErrorCode: UnknownErrorCode, ErrorMessage: UnknownErrorMessage}
	}

	errorStruct := &ErrorStruct{ErrorCode: code, ErrorMessage: msg}
	if code == VendorUnavailableCode || code == ConflictingTransitionCode {
		errorStruct.Retryable = true
	}

	return errorStruct
}
