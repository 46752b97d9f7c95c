package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/pawsitter/backend/internal/service"
	"github.com/pawsitter/backend/internal/veriff"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	signatureHeader         = "X-HMAC-SIGNATURE"
	fallbackSignatureHeader = "X-Signature"
	maxWebhookBody          = 1 << 20
)

type webhookResponse struct {
	Status           string `json:"status"`
	EligibilityStale bool   `json:"eligibility_stale,omitempty"`
}

// @Summary Vendor decision webhook
// @Tags verification
// @Accept json
// @Produce json
// @Param X-HMAC-SIGNATURE header string true "HMAC-SHA256 of the raw body"
// @Success 200 {object} webhookResponse
// @Failure 401 {object} ErrorStruct
// @Failure 422 {object} ErrorStruct
// @Failure 503 {object} ErrorStruct
// @Router /verification/vendor-webhook [post]
func (h *Handler) vendorWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, InvalidRequestCode)
		return
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" {
		signature = c.GetHeader(fallbackSignatureHeader)
	}
	if !h.webhook.ValidateSignature(body, signature) {
		h.metrics.IncWebhook("invalid_signature")
		h.log.Warn("rejected webhook with invalid signature", zap.String("ip", c.ClientIP()))
		errorResponse(c, http.StatusUnauthorized, InvalidSignatureCode)
		return
	}

	decision, err := veriff.ParseWebhook(body)
	if err != nil {
		h.metrics.IncWebhook("malformed")
		h.log.Warn("malformed webhook payload", zap.Error(err))
		errorResponse(c, http.StatusUnprocessableEntity, MalformedPayloadCode)
		return
	}

	res, err := h.services.Decisions.ApplyVendorDecision(c.Request.Context(), service.VendorDecisionInput{
		Decision: decision,
		Actor:    service.Actor{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()},
	})
	switch {
	case err == nil:
		status := "processed"
		if res.NoOp() {
			status = "ignored"
		}
		h.metrics.IncWebhook(status)
		c.JSON(http.StatusOK, webhookResponse{Status: status})
	case errors.Is(err, service.ErrUnknownSession):
		h.metrics.IncWebhook("unknown_session")
		h.log.Warn("webhook for unknown session", zap.String("session_id", decision.SessionID))
		c.JSON(http.StatusOK, webhookResponse{Status: "ignored"})
	case errors.Is(err, service.ErrEligibilityProjection) && res != nil:
		h.metrics.IncWebhook("processed")
		c.JSON(http.StatusOK, webhookResponse{Status: "processed", EligibilityStale: true})
	case errors.Is(err, service.ErrConflictingTransition):
		// The vendor redelivers on 5xx.
		h.metrics.IncWebhook("deferred")
		h.log.Warn("webhook deferred", zap.String("session_id", decision.SessionID), zap.Error(err))
		errorResponse(c, http.StatusServiceUnavailable, ConflictingTransitionCode)
	case errors.Is(err, veriff.ErrVendorUnavailable):
		h.metrics.IncWebhook("deferred")
		h.log.Warn("webhook deferred", zap.String("session_id", decision.SessionID), zap.Error(err))
		errorResponse(c, http.StatusServiceUnavailable, VendorUnavailableCode)
	default:
		h.metrics.IncWebhook("failed")
		h.log.Error("apply vendor decision failed", zap.String("session_id", decision.SessionID), zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
	}
}
