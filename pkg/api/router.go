package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/serverless-otel/ingestd/internal/logger"
	"github.com/serverless-otel/ingestd/pkg/api/handlers"
	"github.com/serverless-otel/ingestd/pkg/ingest"
	"github.com/serverless-otel/ingestd/pkg/lease"
	"github.com/serverless-otel/ingestd/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Routes:
//   - POST /v1/ingest - accepts a telemetry record and writes it into its segment
//   - GET /health - liveness probe
//   - GET /health/ready - readiness probe
//   - GET /metrics - Prometheus exposition, present only when metrics are enabled
func NewRouter(ingestHandler *ingest.Handler, leaseManager lease.Manager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(leaseManager)
	ingestAPIHandler := handlers.NewIngestHandler(ingestHandler)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ingest", ingestAPIHandler.Ingest)
	})

	if metrics.IsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	return r
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
