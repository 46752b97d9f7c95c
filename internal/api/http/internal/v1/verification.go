package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) initVerificationRoutes(api *gin.RouterGroup) {
	verification := api.Group("/verification")
	{
		verification.POST("/vendor-webhook", h.vendorWebhook)

		authenticated := verification.Group("", h.userIdentityMiddleware)
		{
			authenticated.POST("/submit", h.submitVerification)
			authenticated.POST("/documents", h.uploadDocument)
			authenticated.GET("/status", h.verificationStatus)
		}
	}
}

type submitVerificationInput struct {
	DocumentType   domain.DocumentType `json:"document_type" binding:"required,doctype"`
	DocumentNumber string              `json:"document_number" binding:"required,max=64"`
	DocumentImage  string              `json:"document_image" binding:"required"`
} // @name SubmitVerificationInput

type submitVerificationResponse struct {
	Verification     *domain.Verification `json:"verification"`
	EligibilityStale bool                 `json:"eligibility_stale"`
}

// @Summary Submit an ID for verification
// @Security UserAuth
// @Tags verification
// @Accept json
// @Produce json
// @Param input body submitVerificationInput true "document"
// @Success 201 {object} submitVerificationResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 403 {object} ErrorStruct
// @Failure 409 {object} ErrorStruct
// @Failure 503 {object} ErrorStruct
// @Router /verification/submit [post]
func (h *Handler) submitVerification(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, UnauthorizedCode)
		return
	}

	var input submitVerificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationErrorResponse(c, err)
		return
	}

	res, err := h.services.Verifications.Submit(c.Request.Context(), service.SubmitInput{
		UserID:         userID,
		DocumentType:   input.DocumentType,
		DocumentNumber: input.DocumentNumber,
		DocumentImage:  input.DocumentImage,
		Actor:          service.Actor{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()},
	})
	if err != nil && !(errors.Is(err, service.ErrEligibilityProjection) && res != nil) {
		h.serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, submitVerificationResponse{
		Verification:     res.Verification,
		EligibilityStale: res.EligibilityStale,
	})
}

type uploadDocumentResponse struct {
	Reference string `json:"reference"`
}

// @Summary Upload an ID image
// @Security UserAuth
// @Tags verification
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JPEG, PNG or PDF"
// @Success 201 {object} uploadDocumentResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 413 {object} ErrorStruct
// @Router /verification/documents [post]
func (h *Handler) uploadDocument(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, UnauthorizedCode)
		return
	}

	maxSize := h.config.HttpServer.MaxUploadSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+4096)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(c, http.StatusRequestEntityTooLarge, DocumentTooLargeCode)
			return
		}
		errorResponse(c, http.StatusBadRequest, InvalidRequestCode)
		return
	}
	if header.Size > maxSize {
		errorResponse(c, http.StatusRequestEntityTooLarge, DocumentTooLargeCode)
		return
	}

	file, err := header.Open()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, InvalidRequestCode)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, InvalidRequestCode)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	ref, err := h.services.Documents.Upload(c.Request.Context(), userID, data, contentType)
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, uploadDocumentResponse{Reference: ref})
}

type verificationStatusResponse struct {
	Verification      *domain.Verification `json:"verification"`
	IDVerified        bool                 `json:"id_verified"`
	CanAcceptBookings bool                 `json:"can_accept_bookings"`
	Badges            []string             `json:"badges"`
	AttemptsLeft      int                  `json:"attempts_left"`
	CanResubmit       bool                 `json:"can_resubmit"`
}

// @Summary Current verification status
// @Security UserAuth
// @Tags verification
// @Produce json
// @Success 200 {object} verificationStatusResponse
// @Failure 404 {object} ErrorStruct
// @Router /verification/status [get]
func (h *Handler) verificationStatus(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, UnauthorizedCode)
		return
	}

	status, err := h.services.Verifications.GetStatus(c.Request.Context(), userID)
	if err != nil {
		h.serviceErrorResponse(c, err)
		return
	}

	badges := []string{}
	if status.Verification != nil && len(status.Verification.BadgesEarned) > 0 {
		badges = status.Verification.BadgesEarned
	}

	c.JSON(http.StatusOK, verificationStatusResponse{
		Verification:      status.Verification,
		IDVerified:        status.User.IDVerified,
		CanAcceptBookings: status.User.CanAcceptBookings,
		Badges:            badges,
		AttemptsLeft:      status.AttemptsLeft,
		CanResubmit:       status.CanResubmit,
	})
}
