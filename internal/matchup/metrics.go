package matchup

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricMatchupsServedTotal    = "matchups_served_total"
	MetricMatchupsSubmittedTotal = "matchups_submitted_total"
	MetricMatchupApplyDuration   = "matchup_apply_duration_seconds"
)

// Metrics contains Prometheus metrics for the matchup flow.
// All operations are thread-safe.
type Metrics struct {
	served        prometheus.Counter
	submitted     *prometheus.CounterVec
	applyDuration prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		served: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricMatchupsServedTotal,
			Help: "Total number of matchup pairs served",
		}),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricMatchupsSubmittedTotal,
			Help: "Total number of matchup submissions by outcome",
		}, []string{"outcome"}),
		applyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricMatchupApplyDuration,
			Help:    "Histogram of Elo apply duration per submission in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.served,
		m.submitted,
		m.applyDuration,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncServed increments the served-pairs counter.
func (m *Metrics) IncServed() {
	m.served.Inc()
}

// IncSubmitted increments the submissions counter for an outcome
// ("decisive" or "skip").
func (m *Metrics) IncSubmitted(outcome string) {
	m.submitted.WithLabelValues(outcome).Inc()
}

// ObserveApplyDuration records an Elo apply duration sample.
func (m *Metrics) ObserveApplyDuration(seconds float64) {
	m.applyDuration.Observe(seconds)
}
