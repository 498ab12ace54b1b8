package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for location and weather resolution.
type Metrics struct {
	Resolutions *prometheus.CounterVec // labels: outcome={success,no_usable_location,geocoding_miss,provider_failure,canceled}

	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error,circuit_open}
	ProviderDuration *prometheus.HistogramVec // labels: endpoint

	// Geocoding metrics.
	GeocodeVariants *prometheus.CounterVec // labels: attempt={1,2,3}

	// Tracker metrics.
	TrackerSuperseded prometheus.Counter
	TrackerFallbacks  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Resolutions,
		m.ProviderRequests,
		m.ProviderDuration,
		m.GeocodeVariants,
		m.TrackerSuperseded,
		m.TrackerFallbacks,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherlab",
			Name:      "resolutions_total",
			Help:      "Weather resolutions by outcome.",
		}, []string{"outcome"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherlab",
			Name:      "provider_requests_total",
			Help:      "Outbound provider requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weatherlab",
			Name:      "provider_request_duration_seconds",
			Help:      "Outbound provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		GeocodeVariants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherlab",
			Name:      "geocode_variant_attempts_total",
			Help:      "Forward geocoding attempts by variant position.",
		}, []string{"attempt"}),
		TrackerSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weatherlab",
			Name:      "tracker_superseded_total",
			Help:      "Tracked resolutions discarded because a newer one started.",
		}),
		TrackerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weatherlab",
			Name:      "tracker_default_fallbacks_total",
			Help:      "Tracked resolutions that fell back to the default location.",
		}),
	}
}
