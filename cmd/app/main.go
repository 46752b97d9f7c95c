package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apiHttp "github.com/pawsitter/backend/internal/api/http"
	"github.com/pawsitter/backend/internal/cache"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/db"
	"github.com/pawsitter/backend/internal/metrics"
	"github.com/pawsitter/backend/internal/queue/asynqserver"
	queueClient "github.com/pawsitter/backend/internal/queue/client"
	"github.com/pawsitter/backend/internal/repository"
	"github.com/pawsitter/backend/internal/server"
	"github.com/pawsitter/backend/internal/service"
	"github.com/pawsitter/backend/internal/storage"
	"github.com/pawsitter/backend/internal/veriff"
	"github.com/pawsitter/backend/internal/worker"
	"github.com/pawsitter/backend/pkg/auth"
	"github.com/pawsitter/backend/pkg/email/smtp"
	"github.com/pawsitter/backend/pkg/logger"
	"github.com/pawsitter/backend/pkg/pdf"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	appLogger := logger.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("starting verification api")
	appLogger.Debug("debug messages are enabled")

	// Init database
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		appLogger.Fatal("mysql connect problem", zap.Error(err))
	}
	defer func() {
		if err := dbMySQL.Close(); err != nil {
			appLogger.Error("error when closing mysql", zap.Error(err))
		}
	}()
	appLogger.Info("mysql connection done")

	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		appLogger.Fatal("redis connect problem", zap.Error(err))
	}
	defer redisClient.Close()

	documents, err := storage.New(cfg.Storage)
	if err != nil {
		appLogger.Fatal("document storage init failed", zap.Error(err))
	}

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	if err != nil {
		appLogger.Fatal("auth manager creation failed", zap.Error(err))
	}

	emailSender, err := smtp.NewSMTPSender(cfg.SMTP.From, cfg.SMTP.Pass, cfg.SMTP.Host, cfg.SMTP.Port)
	if err != nil {
		appLogger.Fatal("smtp sender creation failed", zap.Error(err))
	}

	reporter := pdf.NewGenerator(cfg.PDF.FontPath)
	if !reporter.HasFont() {
		appLogger.Warn("no pdf font found, audit reports are disabled", zap.String("font_path", cfg.PDF.FontPath))
	}

	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	vendor := veriff.NewClient(cfg.Veriff, nil, appLogger)
	stale := cache.NewStaleProjections(redisClient)

	asynqClient := asynq.NewClient(asynqserver.RedisOptions(cfg.Cache))
	defer asynqClient.Close()
	enqueuer := queueClient.NewEnqueuer(asynqClient, cfg.Queue.MaxRetry, appLogger)

	// Services, Repos & API Handlers
	repos := repository.NewRepositories(dbMySQL)
	services := service.NewServices(service.Deps{
		Config:   cfg,
		Repos:    repos,
		Vendor:   vendor,
		Storage:  documents,
		Queue:    enqueuer,
		Stale:    stale,
		Reporter: reporter,
		Metrics:  appMetrics,
		Logger:   appLogger,
	})
	handlers := apiHttp.NewHandlers(services, tokenManager, vendor, appMetrics, prometheus.DefaultGatherer, appLogger)

	// Background workers
	workers := worker.NewWorkers(worker.Deps{
		Services:      services,
		EmailProvider: emailSender,
		Stale:         stale,
		Config:        cfg,
		Logger:        appLogger,
	})
	taskServer, mux := asynqserver.New(cfg, workers)
	scheduler, err := asynqserver.NewScheduler(cfg)
	if err != nil {
		appLogger.Fatal("scheduler init failed", zap.Error(err))
	}
	background := server.NewBackground(taskServer, mux, scheduler)
	if err := background.Start(); err != nil {
		appLogger.Fatal("background workers failed to start", zap.Error(err))
	}

	// HTTP Server
	srv := server.NewServer(cfg, handlers.Init(cfg), appLogger)
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	appLogger.Info("server started", zap.String("port", cfg.HttpServer.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 10 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	if err := srv.Stop(ctx); err != nil {
		appLogger.Error("failed to stop server", zap.Error(err))
	}
	if err := background.Stop(ctx); err != nil {
		appLogger.Error("failed to stop background workers", zap.Error(err))
	}

	appLogger.Info("app stopped")
}
