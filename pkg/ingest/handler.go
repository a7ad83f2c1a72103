// Package ingest wires record parsing, segment derivation, lease
// acquisition, and segment writing into a single request-scoped
// operation.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/serverless-otel/ingestd/internal/clock"
	"github.com/serverless-otel/ingestd/internal/logger"
	"github.com/serverless-otel/ingestd/pkg/lease"
	"github.com/serverless-otel/ingestd/pkg/metrics"
	"github.com/serverless-otel/ingestd/pkg/record"
	"github.com/serverless-otel/ingestd/pkg/segment"
	"github.com/serverless-otel/ingestd/pkg/writer"
)

// Result describes the outcome of a single ingest call.
type Result struct {
	Dataset string
	Segment string
	Status  int
}

// Handler parses, leases, and writes a single telemetry record body.
// One Handler is constructed per process and shared across requests; it
// holds no per-request state.
type Handler struct {
	InstanceID string
	Lease      lease.Manager
	LeaseKind  lease.Kind
	Writer     writer.SegmentWriter
	WriterKind writer.Kind
	Now        clock.Nanos

	BucketMinutes int

	LeaseMetrics  metrics.LeaseMetrics
	WriterMetrics metrics.WriterMetrics
}

// Ingest runs the full parse -> segment -> lease -> write pipeline for a
// raw record body and maps the outcome to an HTTP-style status code.
//
// Lease release always runs, even when the write fails, so a lease is
// never left held past a failed write; release errors are logged but
// never surfaced, since the record has already been durably written (or
// definitively failed to write) by the time release runs.
func (h *Handler) Ingest(ctx context.Context, body string) (Result, error) {
	rec, err := record.Parse(body)
	if err != nil {
		return Result{Status: 400}, err
	}

	dataset := rec.DatasetID()
	timestampNanos, err := rec.TimestampNanos()
	if err != nil {
		return Result{Status: 400}, err
	}
	segmentID := segment.ID(timestampNanos, h.BucketMinutes)

	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithSegment(dataset, segmentID).WithCorrelation(rec.CorrelationID()))

	if err := h.Lease.Initialize(ctx, dataset, h.InstanceID, segmentID); err != nil {
		return Result{Dataset: dataset, Segment: segmentID, Status: 500}, &lease.SegmentLockError{Segment: segmentID, Reason: err.Error()}
	}

	acquireStart := time.Now()
	handle, err := h.Lease.Acquire(ctx, dataset, segmentID, h.InstanceID, h.Now)
	if h.LeaseMetrics != nil {
		h.LeaseMetrics.ObserveAcquire(string(h.LeaseKind), time.Since(acquireStart), err)
	}
	if err != nil {
		return Result{Dataset: dataset, Segment: segmentID, Status: 500}, err
	}

	writeErr := h.write(ctx, dataset, segmentID, rec)

	h.release(ctx, dataset, segmentID, handle)

	if writeErr != nil {
		return Result{Dataset: dataset, Segment: segmentID, Status: 500}, writeErr
	}

	return Result{Dataset: dataset, Segment: segmentID, Status: 201}, nil
}

func (h *Handler) write(ctx context.Context, dataset, segmentID string, rec record.Record) error {
	start := time.Now()
	err := h.Writer.Write(ctx, dataset, segmentID, rec)
	if h.WriterMetrics != nil {
		h.WriterMetrics.ObserveWrite(string(h.WriterKind), time.Since(start), err)
	}
	return err
}

func (h *Handler) release(ctx context.Context, dataset, segmentID string, handle *lease.Handle) {
	releaseErr := h.Lease.Release(ctx, dataset, segmentID, h.InstanceID, handle)
	if h.LeaseMetrics != nil {
		h.LeaseMetrics.ObserveRelease(string(h.LeaseKind), releaseErr)
	}
	if releaseErr == nil {
		return
	}

	var unlockErr *lease.SegmentUnlockError
	if errors.As(releaseErr, &unlockErr) {
		logger.ErrorCtx(ctx, "segment lease release rejected", logger.SegmentID(unlockErr.Segment), "reason", unlockErr.Reason)
		return
	}
	logger.ErrorCtx(ctx, "failed to release segment lease", "error", releaseErr.Error())
}
