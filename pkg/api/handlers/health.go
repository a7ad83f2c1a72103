package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/serverless-otel/ingestd/pkg/lease"
)

// HealthCheckTimeout is the maximum time allowed for a readiness self-check.
const HealthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	lease lease.Manager
}

// NewHealthHandler creates a new health handler backed by the process's
// active lease manager.
func NewHealthHandler(leaseManager lease.Manager) *HealthHandler {
	return &HealthHandler{lease: leaseManager}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive; it performs no
// backend checks and is designed for Kubernetes liveness probes.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ingestd"})
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK if the configured lease backend passes its self-check
// (for the filesystem variant: base directory statable and writable; for
// the object-store variant: HeadBucket succeeds). Returns 503 otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.lease.Ready(ctx); err != nil {
		ServiceUnavailable(w, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
