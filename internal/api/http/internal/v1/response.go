package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/service"
	"github.com/pawsitter/backend/internal/storage"
	"github.com/pawsitter/backend/internal/veriff"
	"github.com/pawsitter/backend/pkg/pdf"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func errorResponse(c *gin.Context, status int, code ErrorCode) {
	c.AbortWithStatusJSON(status, getErrorStruct(code))
}

// validationErrorResponse reports binding errors field by field and domain
// validation errors with their message.
func validationErrorResponse(c *gin.Context, err error) {
	response := ValidationErrorStruct{
		ErrorCode:    ValidationErrorCode,
		ErrorMessage: "Validation error",
	}

	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		out := make([]ValidationError, len(verr))
		for i, ferr := range verr {
			out[i] = ValidationError{ferr.Field(), msgForTag(ferr.Tag(), ferr.Param())}
		}
		response.Errors = out
	case errors.Is(err, domain.ErrValidation):
		response.ErrorMessage = err.Error()
	default:
		errorResponse(c, http.StatusBadRequest, InvalidRequestCode)
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, response)
}

func msgForTag(tag string, value string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %v characters", value)
	case "max":
		return fmt.Sprintf("Must be at most %v characters", value)
	case "oneof":
		return fmt.Sprintf("Must be one of: %v", value)
	case "doctype":
		return "Unsupported document type"
	case "rejection_category":
		return "Unknown rejection category"
	}
	return tag
}

// serviceErrorResponse maps service errors onto HTTP statuses. Anything it
// does not recognize is logged and reported as 500.
func (h *Handler) serviceErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		validationErrorResponse(c, err)
	case errors.Is(err, service.ErrUserNotFound):
		errorResponse(c, http.StatusNotFound, UserNotFoundCode)
	case errors.Is(err, service.ErrVerificationNotFound), errors.Is(err, service.ErrUnknownSession):
		errorResponse(c, http.StatusNotFound, VerificationNotFoundCode)
	case errors.Is(err, storage.ErrNotFound):
		errorResponse(c, http.StatusNotFound, DocumentNotFoundCode)
	case errors.Is(err, service.ErrVerificationInProgress):
		errorResponse(c, http.StatusConflict, VerificationInProgressCode)
	case errors.Is(err, service.ErrAlreadyVerified):
		errorResponse(c, http.StatusConflict, AlreadyVerifiedCode)
	case errors.Is(err, service.ErrResubmissionNotAllowed):
		errorResponse(c, http.StatusForbidden, ResubmissionNotAllowedCode)
	case errors.Is(err, service.ErrAttemptsExhausted):
		errorResponse(c, http.StatusForbidden, AttemptsExhaustedCode)
	case errors.Is(err, service.ErrConflictingTransition):
		errorResponse(c, http.StatusConflict, ConflictingTransitionCode)
	case errors.Is(err, veriff.ErrVendorUnavailable):
		errorResponse(c, http.StatusServiceUnavailable, VendorUnavailableCode)
	case errors.Is(err, pdf.ErrFontNotLoaded):
		h.log.Error("audit report unavailable", zap.Error(err))
		errorResponse(c, http.StatusServiceUnavailable, ReportUnavailableCode)
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
	}
}

type decisionResponse struct {
	Verification *domain.Verification `json:"verification"`
	AuditLog     *domain.AuditLog     `json:"audit_log,omitempty"`
	Applied      bool                 `json:"applied"`
	// EligibilityStale means the decision is saved but the user's booking
	// eligibility is still being recomputed.
	EligibilityStale bool `json:"eligibility_stale"`
}

// decisionResult writes a decision outcome. A failed eligibility projection
// still counts as success since the decision itself committed.
func (h *Handler) decisionResult(c *gin.Context, res *service.DecisionResult, err error) {
	if err != nil && !(errors.Is(err, service.ErrEligibilityProjection) && res != nil) {
		h.serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, decisionResponse{
		Verification:     res.Verification,
		AuditLog:         res.AuditLog,
		Applied:          res.Applied,
		EligibilityStale: res.EligibilityStale,
	})
}
