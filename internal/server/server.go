package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/pawsitter/backend/internal/config"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.Config, handler http.Handler, log *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.HttpServer.Port,
			Handler:           handler,
			ReadHeaderTimeout: cfg.HttpServer.Timeout,
			ReadTimeout:       cfg.HttpServer.Timeout,
			WriteTimeout:      cfg.HttpServer.Timeout,
			IdleTimeout:       cfg.HttpServer.IdleTimeout,
			ErrorLog:          zap.NewStdLog(log.Named("http")),
		},
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Background runs the task workers and the periodic scheduler next to the
// HTTP server.
type Background struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

func NewBackground(server *asynq.Server, mux *asynq.ServeMux, scheduler *asynq.Scheduler) *Background {
	return &Background{server: server, mux: mux, scheduler: scheduler}
}

func (b *Background) Start() error {
	if err := b.server.Start(b.mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	if b.scheduler != nil {
		if err := b.scheduler.Start(); err != nil {
			b.server.Shutdown()
			return fmt.Errorf("start scheduler: %w", err)
		}
	}
	return nil
}

// Stop waits for in-flight tasks; the context only bounds the wait.
func (b *Background) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		if b.scheduler != nil {
			b.scheduler.Shutdown()
		}
		b.server.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("background shutdown timed out"), ctx.Err())
	}
}
