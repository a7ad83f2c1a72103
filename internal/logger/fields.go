package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Ingest Domain
	// ========================================================================
	KeyDatasetID     = "dataset_id"     // Dataset identifier from the record body
	KeySegmentID     = "segment_id"     // Derived segment identifier
	KeyCorrelationID = "correlation_id" // Caller-supplied correlation identifier
	KeyInstanceID    = "instance_id"    // Process instance identifier
	KeyTimestampNs   = "timestamp_ns"   // Record timestamp, nanoseconds since epoch
	KeyBucketMinutes = "bucket_minutes" // Configured segment bucket width

	// ========================================================================
	// Lease
	// ========================================================================
	KeyLeaseKind  = "lease_kind"  // filesystem or s3
	KeyLockfile   = "lockfile"    // Instance sentinel path (filesystem lease)
	KeyETag       = "etag"        // Object entity tag (object-store lease)
	KeyAttempt    = "attempt"     // Acquire attempt number
	KeyHeldMs     = "held_ms"     // Lease hold duration in milliseconds

	// ========================================================================
	// Writer
	// ========================================================================
	KeyWriterKind = "writer_kind" // columnfile or sqlite
	KeyColumnKey  = "column_key"  // Data column key being written
	KeyRowCount   = "row_count"   // Rows written in this operation

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyPath      = "path"      // Filesystem path
	KeyBucket    = "bucket"    // Cloud bucket name (S3)
	KeyKey       = "key"       // Object key in cloud storage
	KeyRegion    = "region"    // Cloud region

	// ========================================================================
	// HTTP
	// ========================================================================
	KeyMethod     = "method"      // HTTP method
	KeyRoute      = "route"       // HTTP route pattern
	KeyStatus     = "status"      // HTTP response status code
	KeyRequestID  = "request_id"  // chi request id
	KeyClientIP   = "client_ip"   // Client IP address
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyError     = "error"      // Error message
	KeyErrorCode = "error_code" // Numeric error code
	KeyMaxRetries = "max_retries" // Maximum retry attempts
)

// DatasetID returns a slog.Attr for the dataset identifier.
func DatasetID(id string) slog.Attr {
	return slog.String(KeyDatasetID, id)
}

// SegmentID returns a slog.Attr for the derived segment identifier.
func SegmentID(id string) slog.Attr {
	return slog.String(KeySegmentID, id)
}

// CorrelationID returns a slog.Attr for the caller-supplied correlation identifier.
func CorrelationID(id string) slog.Attr {
	return slog.String(KeyCorrelationID, id)
}

// InstanceID returns a slog.Attr for the process instance identifier.
func InstanceID(id string) slog.Attr {
	return slog.String(KeyInstanceID, id)
}

// TimestampNs returns a slog.Attr for a record timestamp in nanoseconds.
func TimestampNs(ns int64) slog.Attr {
	return slog.Int64(KeyTimestampNs, ns)
}

// BucketMinutes returns a slog.Attr for the configured segment bucket width.
func BucketMinutes(minutes int) slog.Attr {
	return slog.Int(KeyBucketMinutes, minutes)
}

// LeaseKind returns a slog.Attr identifying which lease manager handled a request.
func LeaseKind(kind string) slog.Attr {
	return slog.String(KeyLeaseKind, kind)
}

// Lockfile returns a slog.Attr for an instance sentinel path.
func Lockfile(path string) slog.Attr {
	return slog.String(KeyLockfile, path)
}

// ETag returns a slog.Attr for an object entity tag.
func ETag(tag string) slog.Attr {
	return slog.String(KeyETag, tag)
}

// Attempt returns a slog.Attr for an acquire attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// HeldMs returns a slog.Attr for lease hold duration.
func HeldMs(ms float64) slog.Attr {
	return slog.Float64(KeyHeldMs, ms)
}

// WriterKind returns a slog.Attr identifying which writer handled a request.
func WriterKind(kind string) slog.Attr {
	return slog.String(KeyWriterKind, kind)
}

// ColumnKey returns a slog.Attr for a data column key.
func ColumnKey(key string) slog.Attr {
	return slog.String(KeyColumnKey, key)
}

// RowCount returns a slog.Attr for the number of rows written.
func RowCount(n int) slog.Attr {
	return slog.Int(KeyRowCount, n)
}

// Path returns a slog.Attr for a filesystem path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Bucket returns a slog.Attr for a cloud bucket name.
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an object key in cloud storage.
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Region returns a slog.Attr for a cloud region.
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Method returns a slog.Attr for an HTTP method.
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Route returns a slog.Attr for an HTTP route pattern.
func Route(r string) slog.Attr {
	return slog.String(KeyRoute, r)
}

// Status returns a slog.Attr for an HTTP response status code.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// RequestID returns a slog.Attr for the chi request id.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a slog.Attr for a client IP address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// MaxRetries returns a slog.Attr for the maximum retry attempts.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
