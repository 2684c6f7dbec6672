package orchestrator

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the prometheus collectors emitted by analysis passes.
type Metrics struct {
	PassesTotal           prometheus.Counter
	PassDurationSec       prometheus.Histogram
	ProviderFailuresTotal *prometheus.CounterVec
	ProviderDurationSec   *prometheus.HistogramVec
	FindingsTotal         *prometheus.CounterVec
}

// NewMetrics creates and registers the pass collectors.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		PassesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doctord_passes_total",
			Help: "Total number of analysis passes executed.",
		}),
		PassDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "doctord_pass_duration_seconds",
			Help:    "Analysis pass duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		ProviderFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "doctord_provider_failures_total",
			Help: "Total number of provider invocations that errored, panicked, or timed out.",
		}, []string{"provider"}),
		ProviderDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doctord_provider_duration_seconds",
			Help:    "Individual provider invocation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		FindingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "doctord_findings_total",
			Help: "Total number of diagnostic findings by severity.",
		}, []string{"severity"}),
	}

	registry.MustRegister(
		m.PassesTotal,
		m.PassDurationSec,
		m.ProviderFailuresTotal,
		m.ProviderDurationSec,
		m.FindingsTotal,
	)

	return m
}
