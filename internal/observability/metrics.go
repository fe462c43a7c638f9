package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meteor_sim"

// Metrics holds the Prometheus counters, histograms, and gauges for the simulator.
type Metrics struct {
	SimulationsStarted prometheus.Counter
	StartsRejected     prometheus.Counter
	SimulationRunning  prometheus.Gauge

	// Timeline metrics.
	PhaseTransitions *prometheus.CounterVec // labels: phase
	StaleTransitions prometheus.Counter

	// Report metrics.
	ReportsGenerated *prometheus.CounterVec // labels: source={provider,fallback}
	ReportsDiscarded prometheus.Counter
	AnalysisDuration *prometheus.HistogramVec // labels: provider
	ReportsPublished *prometheus.CounterVec   // labels: outcome={success,error}

	// Asteroid lookup metrics.
	AsteroidLookups *prometheus.CounterVec // labels: outcome={success,not_found,error}
	AsteroidCache   *prometheus.CounterVec // labels: result={hit,miss}

	// Location naming.
	GeocodeLookups *prometheus.CounterVec // labels: direction={forward,reverse}, outcome={success,no_match,error}
}

func newMetrics(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}
	return &Metrics{
		SimulationsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_started_total",
			Help:      h("Total simulation runs started."),
		}),
		StartsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_starts_rejected_total",
			Help:      h("Start requests rejected because a run was already active."),
		}),
		SimulationRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_running",
			Help:      h("1 while a run is between approach and complete, 0 otherwise."),
		}),
		PhaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      h("Applied timeline phase transitions by phase."),
		}, []string{"phase"}),
		StaleTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_transitions_dropped_total",
			Help:      h("Transitions dropped because their run was no longer active."),
		}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      h("Reports synthesized by narrative source."),
		}, []string{"source"}),
		ReportsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_discarded_total",
			Help:      h("Reports dropped because their run was reset or superseded."),
		}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_provider_duration_seconds",
			Help:      h("Narrative provider request duration in seconds."),
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"provider"}),
		ReportsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      h("Report events written to the event stream by outcome."),
		}, []string{"outcome"}),
		AsteroidLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asteroid_lookups_total",
			Help:      h("NeoWs lookups by outcome."),
		}, []string{"outcome"}),
		AsteroidCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asteroid_cache_total",
			Help:      h("Asteroid cache lookups by result."),
		}, []string{"result"}),
		GeocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      h("Mapbox geocoding requests by direction and outcome."),
		}, []string{"direction", "outcome"}),
	}
}

// NewMetrics creates and registers all simulator metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.SimulationsStarted,
		m.StartsRejected,
		m.SimulationRunning,
		m.PhaseTransitions,
		m.StaleTransitions,
		m.ReportsGenerated,
		m.ReportsDiscarded,
		m.AnalysisDuration,
		m.ReportsPublished,
		m.AsteroidLookups,
		m.AsteroidCache,
		m.GeocodeLookups,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

// NewUnregisteredMetrics creates Metrics that are never exposed, for one-shot
// commands that share components with the service.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics(true)
}
