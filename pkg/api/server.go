package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/serverless-otel/ingestd/internal/logger"
	"github.com/serverless-otel/ingestd/pkg/ingest"
	"github.com/serverless-otel/ingestd/pkg/lease"
)

// Server provides the ingest HTTP front door: POST /v1/ingest plus health
// and metrics endpoints. It supports graceful shutdown with a configurable
// timeout.
type Server struct {
	server       *http.Server
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server in a stopped state. Call Start()
// to begin serving requests.
func NewServer(config APIConfig, ingestHandler *ingest.Handler, leaseManager lease.Manager) *Server {
	config.applyDefaults()

	router := NewRouter(ingestHandler, leaseManager)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{server: server, config: config}
}

// Start starts the API HTTP server and blocks until the context is
// cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server. Safe to call more
// than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
