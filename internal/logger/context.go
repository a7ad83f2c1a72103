package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single ingest request.
type LogContext struct {
	TraceID       string // OpenTelemetry trace ID
	SpanID        string // OpenTelemetry span ID
	RequestID     string // chi request id
	DatasetID     string // Dataset identifier from the record body
	SegmentID     string // Derived segment identifier
	CorrelationID string // Caller-supplied correlation identifier
	ClientIP      string // Client IP address (without port)
	StartTime     time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given client IP
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithSegment returns a copy with the dataset/segment identifiers set
func (lc *LogContext) WithSegment(datasetID, segmentID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.DatasetID = datasetID
		clone.SegmentID = segmentID
	}
	return clone
}

// WithCorrelation returns a copy with the correlation id set
func (lc *LogContext) WithCorrelation(correlationID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.CorrelationID = correlationID
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
