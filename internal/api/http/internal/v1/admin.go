package v1

import (
	"fmt"
	"net/http"

	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) initAdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin", h.userIdentityMiddleware, h.adminOnly)
	{
		verifications := admin.Group("/verifications")
		{
			verifications.GET("", h.listVerifications)
			verifications.GET("/:id", h.getVerification)
			verifications.GET("/:id/document", h.getVerificationDocument)
			verifications.POST("/:id/approve", h.approveVerification)
			verifications.POST("/:id/reject", h.rejectVerification)
			verifications.POST("/:id/allow-resubmission", h.allowResubmission)
			verifications.POST("/:id/refresh", h.refreshVerification)
			verifications.GET("/:id/audit-logs", h.listAuditLogs)
			verifications.GET("/:id/audit-logs/pdf", h.auditReport)
		}

		users := admin.Group("/users")
		{
			users.POST("/:id/status", h.updateUserStatus)
			users.POST("/:id/contact-verified", h.markContactVerified)
			users.POST("/:id/eligibility/sync", h.syncEligibility)
		}
	}
}

type listVerificationsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type listVerificationsResponse struct {
	Items []*domain.Verification `json:"items"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// @Summary Moderation queue
// @Security AdminAuth
// @Tags admin
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Param user_id query string false "user id"
// @Param page query int false "page, from 1"
// @Param limit query int false "page size"
// @Success 200 {object} listVerificationsResponse
// @Failure 400 {object} ValidationErrorStruct
// @Router /admin/verifications [get]
func (h *Handler) listVerifications(c *gin.Context) {
	var query listVerificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		validationErrorResponse(c, err)
		return
	}

	filter := domain.VerificationFilter{Page: max(query.Page, 1), Limit: query.Limit}
	if filter.Limit == 0 {
		filter.Limit = 20
	}
	if query.Status != "" {
		status := domain.VerificationStatus(query.Status)
		filter.Status = &status
	}
	if query.UserID != "" {
		userID := uuid.MustParse(query.UserID)
		filter.UserID = &userID
	}

	items, total, err := h.services.Verifications.List(c.Request.Context(), filter)
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}
	if items == nil {
		items = []*domain.Verification{}
	}

	c.JSON(http.StatusOK, listVerificationsResponse{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit})
}

// @Summary Get a verification
// @Security AdminAuth
// @Tags admin
// @Produce json
// @Param id path string true "verification id"
// @Success 200 {object} domain.Verification
// @Failure 404 {object} ErrorStruct
// @Router /admin/verifications/{id} [get]
func (h *Handler) getVerification(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	v, err := h.services.Verifications.GetOneByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

// @Summary Download the submitted ID image
// @Security AdminAuth
// @Tags admin
// @Produce octet-stream
// @Param id path string true "verification id"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorStruct
// @Router /admin/verifications/{id}/document [get]
func (h *Handler) getVerificationDocument(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	data, err := h.services.Documents.Download(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

type approveInput struct {
	Notes string `json:"notes" binding:"max=2000"`
} // @name ApproveInput

// @Summary Approve a verification
// @Security AdminAuth
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "verification id"
// @Param input body approveInput false "notes"
// @Success 200 {object} decisionResponse
// @Failure 404 {object} ErrorStruct
// @Failure 409 {object} ErrorStruct
// @Router /admin/verifications/{id}/approve [post]
func (h *Handler) approveVerification(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	adminID, ok := h.adminID(c)
	if !ok {
		return
	}

	var input approveInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			validationErrorResponse(c, err)
			return
		}
	}

	res, err := h.services.Decisions.ApplyAdminDecision(c.Request.Context(), service.AdminDecisionInput{
		VerificationID: id,
		AdminID:        adminID,
		Status:         domain.VerificationStatusApproved,
		Notes:          input.Notes,
		Actor:          h.adminActor(c, adminID),
	})
	h.decisionResult(c, res, err)
}

type rejectInput struct {
	Reason            string                   `json:"reason" binding:"max=500"`
	Category          domain.RejectionCategory `json:"category" binding:"rejection_category"`
	AllowResubmission *bool                    `json:"allow_resubmission"`
	Notes             string                   `json:"notes" binding:"max=2000"`
} // @name RejectInput

// @Summary Reject a verification
// @Security AdminAuth
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "verification id"
// @Param input body rejectInput true "reason"
// @Success 200 {object} decisionResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 404 {object} ErrorStruct
// @Failure 409 {object} ErrorStruct
// @Router /admin/verifications/{id}/reject [post]
func (h *Handler) rejectVerification(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	adminID, ok := h.adminID(c)
	if !ok {
		return
	}

	var input rejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	res, err := h.services.Decisions.ApplyAdminDecision(c.Request.Context(), service.AdminDecisionInput{
		VerificationID:    id,
		AdminID:           adminID,
		Status:            domain.VerificationStatusRejected,
		Reason:            input.Reason,
		Category:          input.Category,
		AllowResubmission: input.AllowResubmission,
		Notes:             input.Notes,
		Actor:             h.adminActor(c, adminID),
	})
	h.decisionResult(c, res, err)
}

type allowResubmissionInput struct {
	Reason string `json:"reason" binding:"max=500"`
} // @name AllowResubmissionInput

// @Summary Let a rejected user submit again
// @Security AdminAuth
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "verification id"
// @Param input body allowResubmissionInput false "reason"
// @Success 200 {object} decisionResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 403 {object} ErrorStruct
// @Router /admin/verifications/{id}/allow-resubmission [post]
func (h *Handler) allowResubmission(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	adminID, ok := h.adminID(c)
	if !ok {
		return
	}

	var input allowResubmissionInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			validationErrorResponse(c, err)
			return
		}
	}

	res, err := h.services.Decisions.AllowResubmission(c.Request.Context(), service.AllowResubmissionInput{
		VerificationID: id,
		AdminID:        adminID,
		Reason:         input.Reason,
		Actor:          h.adminActor(c, adminID),
	})
	h.decisionResult(c, res, err)
}

// @Summary Pull the vendor decision again
// @Security AdminAuth
// @Tags admin
// @Produce json
// @Param id path string true "verification id"
// @Success 200 {object} decisionResponse
// @Failure 503 {object} ErrorStruct
// @Router /admin/verifications/{id}/refresh [post]
func (h *Handler) refreshVerification(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	res, err := h.services.Decisions.RefreshFromVendor(c.Request.Context(), id)
	h.decisionResult(c, res, err)
}

// @Summary Audit trail of a verification
// @Security AdminAuth
// @Tags admin
// @Produce json
// @Param id path string true "verification id"
// @Success 200 {array} domain.AuditLog
// @Failure 404 {object} ErrorStruct
// @Router /admin/verifications/{id}/audit-logs [get]
func (h *Handler) listAuditLogs(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	entries, err := h.services.AuditLogs.List(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}
	if entries == nil {
		entries = []*domain.AuditLog{}
	}

	c.JSON(http.StatusOK, entries)
}

// @Summary Audit trail as PDF
// @Security AdminAuth
// @Tags admin
// @Produce application/pdf
// @Param id path string true "verification id"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorStruct
// @Failure 503 {object} ErrorStruct
// @Router /admin/verifications/{id}/audit-logs/pdf [get]
func (h *Handler) auditReport(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	report, err := h.services.AuditLogs.Report(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="verification-%s-audit.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", report)
}

type updateUserStatusInput struct {
	Status string `json:"status" binding:"required,oneof=active inactive suspended"`
} // @name UpdateUserStatusInput

// @Summary Change a user's account status
// @Security AdminAuth
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "user id"
// @Param input body updateUserStatusInput true "status"
// @Success 200 {object} domain.User
// @Failure 404 {object} ErrorStruct
// @Router /admin/users/{id}/status [post]
func (h *Handler) updateUserStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input updateUserStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	status, err := domain.ParseUserStatus(input.Status)
	if err != nil {
		validationErrorResponse(c, err)
		return
	}

	user, err := h.services.Users.UpdateStatus(c.Request.Context(), id, status)
	h.userResult(c, user, err)
}

type contactVerifiedInput struct {
	Channel domain.ContactChannel `json:"channel" binding:"required"`
} // @name ContactVerifiedInput

// @Summary Mark a contact channel as verified
// @Security AdminAuth
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "user id"
// @Param input body contactVerifiedInput true "email or phone"
// @Success 200 {object} domain.User
// @Failure 400 {object} ValidationErrorStruct
// @Router /admin/users/{id}/contact-verified [post]
func (h *Handler) markContactVerified(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input contactVerifiedInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	user, err := h.services.Users.MarkContactVerified(c.Request.Context(), id, input.Channel)
	h.userResult(c, user, err)
}

// @Summary Recompute a user's booking eligibility
// @Security AdminAuth
// @Tags admin
// @Produce json
// @Param id path string true "user id"
// @Success 200 {object} domain.User
// @Failure 404 {object} ErrorStruct
// @Router /admin/users/{id}/eligibility/sync [post]
func (h *Handler) syncEligibility(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := h.services.Decisions.SyncEligibility(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) userResult(c *gin.Context, user *domain.User, err error) {
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) adminID(c *gin.Context) (uuid.UUID, bool) {
	id, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, UnauthorizedCode)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) adminActor(c *gin.Context, adminID uuid.UUID) service.Actor {
	return service.Actor{AdminID: &adminID, IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
