// Package record parses and validates the newline-delimited key=value
// telemetry bodies accepted by the ingest endpoint.
package record

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxCorrelationIDLength is the maximum accepted length of correlation-id.
const MaxCorrelationIDLength = 60

const (
	keyDatasetID     = "dataset-id"
	keyCorrelationID = "correlation-id"
	keyTimestampNs   = "timestamp-ns"
	keyTimestampMs   = "timestamp-ms"
)

// ReservedKeys are never stored as data columns.
var ReservedKeys = map[string]bool{
	keyTimestampMs:   true,
	keyTimestampNs:   true,
	keyCorrelationID: true,
	keyDatasetID:     true,
}

// AllowedTypeSuffixes are the recognized type annotations for data columns.
var AllowedTypeSuffixes = []string{".int64", ".varchar", ".float64", ".bool", ".datetime"}

// BodyError indicates the request body failed parsing or validation. It is
// always surfaced as an HTTP 400 and is never retried.
type BodyError struct {
	Reason string
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("invalid body: %s", e.Reason)
}

func bodyErrorf(format string, args ...any) error {
	return &BodyError{Reason: fmt.Sprintf(format, args...)}
}

// Record is the validated telemetry record parsed from a request body.
type Record map[string]string

// DatasetID returns the required dataset-id field.
func (r Record) DatasetID() string { return r[keyDatasetID] }

// CorrelationID returns the required correlation-id field.
func (r Record) CorrelationID() string { return r[keyCorrelationID] }

// TimestampNanos returns the parsed timestamp-ns field.
func (r Record) TimestampNanos() (int64, error) {
	return strconv.ParseInt(r[keyTimestampNs], 10, 64)
}

// DataColumns returns the subset of keys eligible for storage as a data
// column: not reserved, and carrying one of the recognized type suffixes.
func (r Record) DataColumns() map[string]string {
	cols := make(map[string]string)
	for key, value := range r {
		if ReservedKeys[key] {
			continue
		}
		if !hasAllowedSuffix(key) {
			continue
		}
		cols[key] = value
	}
	return cols
}

func hasAllowedSuffix(key string) bool {
	for _, suffix := range AllowedTypeSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// Parse splits a raw request body into key=value lines, validates the
// required fields, and normalizes the timestamp pair. Keys are case-folded
// to lowercase. Lines that do not contain exactly one "=" are silently
// skipped.
//
// When both timestamp-ns and timestamp-ms are present, timestamp-ms wins:
// the nanosecond value is overwritten as timestamp-ms * 1e6. This mirrors
// the historical behavior of the ingest path this service replaced and is
// preserved deliberately rather than treated as an ambiguity to resolve
// either way.
func Parse(body string) (Record, error) {
	fields := make(Record)

	for _, line := range strings.Split(body, "\n") {
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}
		fields[strings.ToLower(parts[0])] = parts[1]
	}

	if fields[keyDatasetID] == "" {
		return nil, bodyErrorf("no dataset-id specified")
	}

	_, hasNs := fields[keyTimestampNs]
	_, hasMs := fields[keyTimestampMs]
	if !hasNs && !hasMs {
		return nil, bodyErrorf("no timestamp specified")
	}

	var nanos, millis int64

	if hasNs {
		v, err := strconv.ParseInt(fields[keyTimestampNs], 10, 64)
		if err != nil {
			return nil, bodyErrorf("timestamp-ns is not an integer: %v", err)
		}
		nanos = v
		millis = v / 1_000_000
	}

	if hasMs {
		v, err := strconv.ParseInt(fields[keyTimestampMs], 10, 64)
		if err != nil {
			return nil, bodyErrorf("timestamp-ms is not an integer: %v", err)
		}
		millis = v
		nanos = v * 1_000_000
	}

	fields[keyTimestampNs] = strconv.FormatInt(nanos, 10)
	fields[keyTimestampMs] = strconv.FormatInt(millis, 10)

	if fields[keyCorrelationID] == "" {
		return nil, bodyErrorf("no correlation-id specified")
	}
	if len(fields[keyCorrelationID]) > MaxCorrelationIDLength {
		return nil, bodyErrorf("correlation-id exceeds %d characters", MaxCorrelationIDLength)
	}

	return fields, nil
}
