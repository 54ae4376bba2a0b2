package elo

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricEloUpdatesTotal      = "elo_updates_total"
	MetricEloUpdateDuration    = "elo_update_duration_seconds"
	MetricEloApplyRetriesTotal = "elo_apply_retries_total"
)

// Metrics contains Prometheus metrics for Elo rating updates.
// All operations are thread-safe.
type Metrics struct {
	updatesTotal   prometheus.Counter
	updateDuration prometheus.Histogram
	applyRetries   prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		updatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEloUpdatesTotal,
			Help: "Total number of committed Elo rating updates",
		}),
		updateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricEloUpdateDuration,
			Help:    "Histogram of Elo update duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		applyRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEloApplyRetriesTotal,
			Help: "Total number of Elo update retries after transaction conflicts",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.updatesTotal,
		m.updateDuration,
		m.applyRetries,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncUpdatesTotal increments the committed updates counter.
func (m *Metrics) IncUpdatesTotal() {
	m.updatesTotal.Inc()
}

// ObserveUpdateDuration records an update duration sample.
func (m *Metrics) ObserveUpdateDuration(seconds float64) {
	m.updateDuration.Observe(seconds)
}

// IncApplyRetries increments the retry counter.
func (m *Metrics) IncApplyRetries() {
	m.applyRetries.Inc()
}
