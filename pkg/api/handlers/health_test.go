package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serverless-otel/ingestd/internal/clock"
	"github.com/serverless-otel/ingestd/pkg/lease"
)

type fakeLeaseManager struct {
	readyErr error
}

func (f *fakeLeaseManager) Initialize(ctx context.Context, dataset, instance, segment string) error {
	return nil
}

func (f *fakeLeaseManager) Acquire(ctx context.Context, dataset, segment, instance string, now clock.Nanos) (*lease.Handle, error) {
	return &lease.Handle{}, nil
}

func (f *fakeLeaseManager) Release(ctx context.Context, dataset, segment, instance string, handle *lease.Handle) error {
	return nil
}

func (f *fakeLeaseManager) Ready(ctx context.Context) error {
	return f.readyErr
}

func TestHealthHandler_Liveness_AlwaysOK(t *testing.T) {
	h := NewHealthHandler(&fakeLeaseManager{readyErr: errors.New("irrelevant to liveness")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Liveness(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHealthHandler_Readiness_HealthyLeaseBackend(t *testing.T) {
	h := NewHealthHandler(&fakeLeaseManager{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Readiness(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHealthHandler_Readiness_UnhealthyLeaseBackend(t *testing.T) {
	h := NewHealthHandler(&fakeLeaseManager{readyErr: errors.New("base directory not accessible")})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	h.Readiness(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
