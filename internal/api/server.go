// Package api exposes the assessment pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/config"
	"github.com/pharmgx-twin-server/internal/guidelines"
	"github.com/pharmgx-twin-server/internal/middleware"
	"github.com/pharmgx-twin-server/internal/repository"
	"github.com/pharmgx-twin-server/internal/service"
)

// Server is the HTTP server wrapping the assessment pipeline.
type Server struct {
	cfg        *config.Config
	assessment *service.AssessmentService
	dataset    *guidelines.Dataset
	audit      *repository.AuditRepository
	log        *logrus.Logger

	router *gin.Engine
	server *http.Server
}

// NewServer creates the HTTP server. audit may be nil when the database is
// disabled.
func NewServer(
	cfg *config.Config,
	assessment *service.AssessmentService,
	dataset *guidelines.Dataset,
	audit *repository.AuditRepository,
	logger *logrus.Logger,
) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateBurst))
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	s := &Server{
		cfg:        cfg,
		assessment: assessment,
		dataset:    dataset,
		audit:      audit,
		log:        logger,
		router:     router,
	}
	s.setupRoutes()

	return s
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assess", s.handleAssess)
		v1.GET("/drugs", s.handleListDrugs)
		v1.GET("/dataset", s.handleDatasetInfo)
	}
}
