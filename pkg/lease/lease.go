// Package lease implements the distributed segment-lease subsystem: two
// interchangeable mechanisms for granting at-most-one-writer exclusivity
// over a segment across an uncoordinated fleet of handler instances.
package lease

import (
	"context"
	"fmt"

	"github.com/serverless-otel/ingestd/internal/clock"
)

// SegmentLockError indicates a lease could not be acquired. It is surfaced
// to callers as HTTP 500; the caller may retry the whole request.
type SegmentLockError struct {
	Segment string
	Reason  string
}

func (e *SegmentLockError) Error() string {
	return fmt.Sprintf("cannot lock segment %s: %s", e.Segment, e.Reason)
}

// SegmentUnlockError indicates a held lease could not be released cleanly.
// It is logged but never surfaced to the caller: the write under the lease
// already completed, and surfacing a failure here would cause retries that
// double-write the record.
type SegmentUnlockError struct {
	Segment string
	Reason  string
}

func (e *SegmentUnlockError) Error() string {
	return fmt.Sprintf("cannot unlock segment %s: %s", e.Segment, e.Reason)
}

// Handle is an opaque proof of lease ownership, returned by Acquire and
// consumed by Release. Exactly one of Lockfile (filesystem lease) or ETag
// (object-store lease) is set, matching whichever Manager produced it.
type Handle struct {
	Lockfile  string
	ETag      string
	Timestamp int64
}

// Manager grants and revokes exclusive, segment-scoped leases. Filesystem
// and object-store variants share this shape but hold no state in common;
// exactly one implementation is active per process, selected by
// configuration.
type Manager interface {
	// Initialize prepares whatever directory/sentinel state Acquire needs
	// for a given (dataset, instance, segment) triple. It is idempotent
	// and safe to call before every Acquire.
	Initialize(ctx context.Context, dataset, instance, segment string) error

	// Acquire blocks, retrying on conflict, until it holds the lease for
	// segment or the configured timeout elapses.
	Acquire(ctx context.Context, dataset, segment, instance string, now clock.Nanos) (*Handle, error)

	// Release relinquishes a previously acquired lease. handle must be the
	// value returned by the matching Acquire call.
	Release(ctx context.Context, dataset, segment, instance string, handle *Handle) error

	// Ready performs a lightweight, segment-agnostic self-check of the
	// lease backend, used by the readiness probe.
	Ready(ctx context.Context) error
}

// Kind names a lease manager implementation, used in logging and metrics.
type Kind string

const (
	KindFilesystem Kind = "filesystem"
	KindObjectStore Kind = "s3"
)
