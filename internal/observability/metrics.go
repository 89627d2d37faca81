package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floodplan"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboards.
type Metrics struct {
	JitterTicks      *prometheus.CounterVec // labels: dashboard
	SchedulerRunning *prometheus.GaugeVec   // labels: dashboard
	TrackedAtRisk    *prometheus.GaugeVec   // labels: dashboard

	// Live refresh metrics.
	Refreshes        *prometheus.CounterVec   // labels: dashboard, outcome={live,synthetic,fallback,stale,busy}
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider

	// Snapshot sink metrics.
	SnapshotsPublished *prometheus.CounterVec // labels: sink, outcome={success,error}

	RenderFallbacks *prometheus.CounterVec // labels: dashboard

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.JitterTicks,
		m.SchedulerRunning,
		m.TrackedAtRisk,
		m.Refreshes,
		m.ProviderRequests,
		m.ProviderDuration,
		m.SnapshotsPublished,
		m.RenderFallbacks,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		JitterTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jitter_ticks_total",
			Help:      "Jitter passes applied to a dashboard catalog.",
		}, []string{"dashboard"}),
		SchedulerRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while a dashboard's periodic task is active, 0 once stopped.",
		}, []string{"dashboard"}),
		TrackedAtRisk: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "people_at_risk",
			Help:      "Sum of at-risk counters across a dashboard catalog.",
		}, []string{"dashboard"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"dashboard", "outcome"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "External data provider requests by outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "External data provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Dashboard snapshots written to a sink, by outcome.",
		}, []string{"sink", "outcome"}),
		RenderFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_fallbacks_total",
			Help:      "Chart renders that degraded to the placeholder page.",
		}, []string{"dashboard"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when click geocoding is enabled, 0 otherwise.",
		}),
	}
}
