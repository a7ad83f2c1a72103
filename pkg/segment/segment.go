// Package segment derives the time-bucketed segment identifier that gates
// writer-lease acquisition for a telemetry record.
package segment

import "fmt"

// NanosPerMinute is the number of nanoseconds in one minute.
const NanosPerMinute = int64(60) * 1_000_000_000

// ID computes the segment identifier for a record timestamp, given a bucket
// width in minutes. The identifier depends only on the record's own
// timestamp, never on arrival time, so late-arriving data lands in its
// historical segment rather than whichever segment is currently open.
func ID(timestampNanos int64, bucketMinutes int) string {
	bucketWidth := int64(bucketMinutes) * NanosPerMinute
	bucketStart := (timestampNanos / bucketWidth) * bucketWidth
	return fmt.Sprintf("segment-%d", bucketStart)
}
