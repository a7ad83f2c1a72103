// Package writer appends a validated telemetry record to a segment's
// backing store, under a lease already held by the caller.
package writer

import (
	"context"

	"github.com/serverless-otel/ingestd/pkg/record"
)

// SegmentWriter persists a record into the segment identified by
// (dataset, segment). Implementations perform their own file or database
// I/O; they assume the caller holds the segment's lease for the duration
// of the call.
type SegmentWriter interface {
	Write(ctx context.Context, dataset, segment string, rec record.Record) error
}

// Kind names a writer implementation, used in logging and metrics.
type Kind string

const (
	KindColumnFile Kind = "columnfile"
	KindSQLite     Kind = "sqlite"
)

// LineFormatter renders a single data-column line for the column-file
// writer. Implementations must return a string including any trailing
// newline-free payload; Write appends "\n" itself.
type LineFormatter func(correlationID, timestamp, value string) string
