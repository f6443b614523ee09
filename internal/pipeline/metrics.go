package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the pipeline's prometheus instruments. A nil *Metrics disables
// instrumentation, which tests rely on to avoid registry collisions.
type Metrics struct {
	results  *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "results_total",
			Help:      "Pipeline results by terminal decision.",
		}, []string{"decision", "source"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "concierge",
			Name:      "request_duration_seconds",
			Help:      "End-to-end duration of one collection request.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	reg.MustRegister(m.results, m.duration)
	return m
}

func (m *Metrics) observe(decision, source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(decision, source).Inc()
	m.duration.Observe(elapsed.Seconds())
}
