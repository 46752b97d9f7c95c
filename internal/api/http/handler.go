package apiHttp

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/pawsitter/backend/docs"
	"github.com/pawsitter/backend/pkg/auth"
	"github.com/pawsitter/backend/pkg/limiter"
	"github.com/pawsitter/backend/pkg/validator"

	internalV1 "github.com/pawsitter/backend/internal/api/http/internal/v1"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/metrics"
	"github.com/pawsitter/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services     *service.Services
	tokenManager auth.TokenManager
	webhook      internalV1.WebhookVerifier
	metrics      *metrics.Metrics
	gatherer     prometheus.Gatherer
	log          *zap.Logger
}

func NewHandlers(
	services *service.Services,
	tokenManager auth.TokenManager,
	webhook internalV1.WebhookVerifier,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	log *zap.Logger,
) *Handler {
	return &Handler{
		services:     services,
		tokenManager: tokenManager,
		webhook:      webhook,
		metrics:      m,
		gatherer:     gatherer,
		log:          log,
	}
}

func (h *Handler) Init(cfg *config.Config) *gin.Engine {
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	validator.RegisterGinValidator()

	router.Use(
		ginzap.Ginzap(h.log, time.RFC3339, true),
		limiter.Limit(cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Limiter.TTL),
		corsMiddleware(cfg.HttpServer.CORSOrigins),
	)
	router.Use(ginzap.RecoveryWithZap(h.log, true))

	if cfg.HttpServer.SwaggerEnabled {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.NewHandler(), ginSwagger.InstanceName("internal")))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	h.initAPI(router, cfg)

	return router
}

func (h *Handler) initAPI(router *gin.Engine, cfg *config.Config) {
	internalHandlersV1 := internalV1.NewHandler(h.services, h.tokenManager, h.webhook, cfg, h.metrics, h.log)
	api := router.Group("/api")
	internalHandlersV1.Init(api)
}
