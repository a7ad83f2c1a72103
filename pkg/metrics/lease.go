package metrics

import "time"

// LeaseMetrics records lease acquisition and release outcomes.
// NewLeaseMetrics returns a nil interface value when instrumentation is
// disabled, so callers must guard every call site with a nil check rather
// than relying on the concrete implementation's nil-receiver methods.
type LeaseMetrics interface {
	ObserveAcquire(kind string, duration time.Duration, err error)
	ObserveRelease(kind string, err error)
	RecordConflict(kind string)
	RecordTimeout(kind string)
}

// newLeaseMetrics is registered by pkg/metrics/prometheus to avoid an
// import cycle between this package and the concrete implementation.
var newLeaseMetrics func() LeaseMetrics

// RegisterLeaseMetricsConstructor is called by pkg/metrics/prometheus
// during package initialization.
func RegisterLeaseMetricsConstructor(constructor func() LeaseMetrics) {
	newLeaseMetrics = constructor
}

// NewLeaseMetrics returns the process's LeaseMetrics implementation, or
// nil if metrics are not enabled.
func NewLeaseMetrics() LeaseMetrics {
	if !IsEnabled() || newLeaseMetrics == nil {
		return nil
	}
	return newLeaseMetrics()
}
