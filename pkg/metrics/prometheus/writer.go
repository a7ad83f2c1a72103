package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/serverless-otel/ingestd/pkg/metrics"
)

func init() {
	metrics.RegisterWriterMetricsConstructor(newWriterMetrics)
}

type writerMetrics struct {
	writeTotal    *prometheus.CounterVec
	writeDuration *prometheus.HistogramVec
}

func newWriterMetrics() metrics.WriterMetrics {
	reg := metrics.GetRegistry()

	return &writerMetrics{
		writeTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_writer_write_total",
				Help: "Total segment write attempts by writer kind and outcome",
			},
			[]string{"kind", "status"},
		),
		writeDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_writer_write_duration_milliseconds",
				Help:    "Duration of segment writes in milliseconds",
				Buckets: []float64{0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"kind"},
		),
	}
}

func (m *writerMetrics) ObserveWrite(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.writeTotal.WithLabelValues(kind, status).Inc()
	m.writeDuration.WithLabelValues(kind).Observe(duration.Seconds() * 1000)
}
