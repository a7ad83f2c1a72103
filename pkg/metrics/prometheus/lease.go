// Package prometheus provides the concrete Prometheus-backed
// implementations of the metrics interfaces declared in pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/serverless-otel/ingestd/pkg/metrics"
)

func init() {
	metrics.RegisterLeaseMetricsConstructor(newLeaseMetrics)
}

type leaseMetrics struct {
	acquireTotal    *prometheus.CounterVec
	acquireDuration *prometheus.HistogramVec
	conflictsTotal  *prometheus.CounterVec
	timeoutsTotal   *prometheus.CounterVec
	releaseTotal    *prometheus.CounterVec
}

func newLeaseMetrics() metrics.LeaseMetrics {
	reg := metrics.GetRegistry()

	return &leaseMetrics{
		acquireTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_lease_acquire_total",
				Help: "Total lease acquisition attempts by lease kind and outcome",
			},
			[]string{"kind", "status"},
		),
		acquireDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_lease_acquire_duration_milliseconds",
				Help:    "Duration of lease acquisition in milliseconds",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000, 300000},
			},
			[]string{"kind"},
		),
		conflictsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_lease_conflicts_total",
				Help: "Total lease acquisition conflicts observed while polling",
			},
			[]string{"kind"},
		),
		timeoutsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_lease_timeouts_total",
				Help: "Total lease acquisitions that gave up after timing out",
			},
			[]string{"kind"},
		),
		releaseTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_lease_release_total",
				Help: "Total lease release attempts by lease kind and outcome",
			},
			[]string{"kind", "status"},
		),
	}
}

func (m *leaseMetrics) ObserveAcquire(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.acquireTotal.WithLabelValues(kind, status).Inc()
	m.acquireDuration.WithLabelValues(kind).Observe(duration.Seconds() * 1000)
}

func (m *leaseMetrics) ObserveRelease(kind string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.releaseTotal.WithLabelValues(kind, status).Inc()
}

func (m *leaseMetrics) RecordConflict(kind string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(kind).Inc()
}

func (m *leaseMetrics) RecordTimeout(kind string) {
	if m == nil {
		return
	}
	m.timeoutsTotal.WithLabelValues(kind).Inc()
}
