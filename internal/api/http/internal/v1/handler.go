package v1

import (
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/metrics"
	"github.com/pawsitter/backend/internal/service"
	"github.com/pawsitter/backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Pawsitter Verification API
// @version 1.0
// @description Sitter identity verification and admin moderation

// @BasePath /api/v1

// @securityDefinitions.apikey AdminAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey UserAuth
// @in header
// @name Authorization

// WebhookVerifier authenticates vendor callbacks.
type WebhookVerifier interface {
	ValidateSignature(rawBody []byte, signature string) bool
}

type Handler struct {
	services     *service.Services
	tokenManager auth.TokenManager
	webhook      WebhookVerifier
	config       *config.Config
	metrics      *metrics.Metrics
	log          *zap.Logger
}

func NewHandler(
	services *service.Services,
	tokenManager auth.TokenManager,
	webhook WebhookVerifier,
	config *config.Config,
	metrics *metrics.Metrics,
	log *zap.Logger,
) *Handler {
	return &Handler{
		services:     services,
		tokenManager: tokenManager,
		webhook:      webhook,
		config:       config,
		metrics:      metrics,
		log:          log.Named("http"),
	}
}

func (h *Handler) Init(api *gin.RouterGroup) {
	v1 := api.Group("v1")

	h.initVerificationRoutes(v1)
	h.initAdminRoutes(v1)
}
