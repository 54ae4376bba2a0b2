package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRankingsComputedTotal  = "rankings_computed_total"
	MetricRankingComputeDuration = "ranking_compute_duration_seconds"
)

// Metrics contains Prometheus metrics for ranking computation.
// All operations are thread-safe.
type Metrics struct {
	rankingsComputed prometheus.Counter
	computeDuration  prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rankingsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankingsComputedTotal,
			Help: "Total number of ranking computations served",
		}),
		computeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankingComputeDuration,
			Help:    "Histogram of ranking computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.rankingsComputed,
		m.computeDuration,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRankingsComputed increments the computations counter.
func (m *Metrics) IncRankingsComputed() {
	m.rankingsComputed.Inc()
}

// ObserveComputeDuration records a computation duration sample.
func (m *Metrics) ObserveComputeDuration(seconds float64) {
	m.computeDuration.Observe(seconds)
}
