package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nutrisched/nutrisched/internal/config"
	"github.com/nutrisched/nutrisched/internal/scheduler"
)

// Server wraps the HTTP server hosting the scheduling API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewRouter builds the gin engine with middleware and all routes mounted
// under /v1.
func NewRouter(sched *scheduler.Scheduler, cfg config.ServerConfig, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(RateLimit(cfg.RateLimit, cfg.RateBurst))

	h := NewHandlers(sched, logger)
	router.GET("/healthz", h.HandleHealthz)
	RegisterRoutes(router.Group("/v1"), h)
	return router
}

// NewServer creates an HTTP server for the scheduling API.
func NewServer(sched *scheduler.Scheduler, cfg config.ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           NewRouter(sched, cfg, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// ListenAndServe runs the server until it fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api shutting down")
	return s.httpServer.Shutdown(ctx)
}
