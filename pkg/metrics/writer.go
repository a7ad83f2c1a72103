package metrics

import "time"

// WriterMetrics records segment writer outcomes.
type WriterMetrics interface {
	ObserveWrite(kind string, duration time.Duration, err error)
}

var newWriterMetrics func() WriterMetrics

// RegisterWriterMetricsConstructor is called by pkg/metrics/prometheus
// during package initialization.
func RegisterWriterMetricsConstructor(constructor func() WriterMetrics) {
	newWriterMetrics = constructor
}

// NewWriterMetrics returns the process's WriterMetrics implementation, or
// nil if metrics are not enabled.
func NewWriterMetrics() WriterMetrics {
	if !IsEnabled() || newWriterMetrics == nil {
		return nil
	}
	return newWriterMetrics()
}
