package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/reelverse/upload-service/internal/logger"
	"github.com/reelverse/upload-service/pkg/config"
)

// Server is the upload service's HTTP server. It supports graceful shutdown
// with a configurable timeout.
type Server struct {
	server       *http.Server
	cfg          config.ServerConfig
	shutdownOnce sync.Once
}

// NewServer wraps router behind an *http.Server bound to cfg.Address. The
// server is created in a stopped state; call Start to begin serving.
func NewServer(cfg config.ServerConfig, router http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:    cfg.Address,
			Handler: router,
		},
		cfg: cfg,
	}
}

// Start serves requests until ctx is cancelled, then gracefully shuts down
// within cfg.ShutdownTimeout. Returns nil on a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("upload service listening", "address", s.cfg.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("server shutdown initiated")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			logger.Error("server shutdown error", logger.Err(err))
		} else {
			logger.Info("server stopped gracefully")
		}
	})
	return shutdownErr
}
