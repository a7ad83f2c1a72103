// Package metrics provides process-wide Prometheus instrumentation for the
// ingest path. Instrumentation is opt-in: until InitRegistry is called,
// IsEnabled reports false and NewLeaseMetrics/NewWriterMetrics in this
// package return nil, giving zero-overhead metric calls everywhere they're
// threaded through.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once     sync.Once
	registry *prometheus.Registry
	enabled  bool
	mu       sync.RWMutex
)

// InitRegistry creates the process-wide Prometheus registry. Safe to call
// more than once; only the first call takes effect.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		registry = prometheus.NewRegistry()
		enabled = true
	})
	return GetRegistry()
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the process-wide registry, or nil if InitRegistry
// has not been called.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
