// Package server exposes the scaffold pipeline over HTTP: image upload,
// analysis, optimization and meshing.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scaffoldstudio/pkg/config"
	"scaffoldstudio/pkg/logging"
)

// Server wires the HTTP routes to the pipeline packages
type Server struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *Metrics
	engine  *gin.Engine
	version string
	started time.Time
}

// New creates a server using cfg for defaults and storage locations
func New(cfg *config.Config, logger logging.Logger, version string) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger.Named("server"),
		metrics: NewMetrics(),
		version: version,
		started: time.Now(),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger, s.metrics))
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	api.POST("/upload", s.upload)
	api.POST("/analyze", s.analyze)
	api.POST("/optimize", s.optimize)
	api.POST("/mesh", s.mesh)
	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", logging.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
