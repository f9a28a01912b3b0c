package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covid_stats"

// Metrics holds the Prometheus counters, histograms, and gauges for the fetch pipeline.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec // labels: outcome={success,failure,stale}
	CycleDuration   prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Source client metrics.
	SourceRequests        *prometheus.CounterVec   // labels: category, outcome={success,error}
	SourceRequestDuration *prometheus.HistogramVec // labels: category
	CoercionFailures      *prometheus.CounterVec   // labels: category, field={lat,long,total}

	// Geometry backfill metrics.
	GeocodeRequests   *prometheus.CounterVec // labels: outcome={found,not_found,error}
	GeocodeCacheHits  prometheus.Counter
	GeometryBackfills *prometheus.CounterVec // labels: outcome={filled,unresolved}

	// Snapshot metrics.
	SnapshotCountries     prometheus.Gauge
	SnapshotCycle         prometheus.Gauge
	SnapshotPublishErrors prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cycles_total",
			Help:      "Fetch cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-merge-derive cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "OData category requests by category and outcome.",
		}, []string{"category", "outcome"}),
		SourceRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "OData category request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"category"}),
		CoercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coercion_failures_total",
			Help:      "Source fields that could not be parsed as numbers.",
		}, []string{"category", "field"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Mapbox forward geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_hits_total",
			Help:      "Geocoding lookups served from the in-memory cache.",
		}),
		GeometryBackfills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geometry_backfills_total",
			Help:      "Countries without source coordinates, by backfill outcome.",
		}, []string{"outcome"}),
		SnapshotCountries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_countries",
			Help:      "Countries in the currently published snapshot.",
		}),
		SnapshotCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_cycle",
			Help:      "Sequence number of the currently published snapshot.",
		}),
		SnapshotPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publish_errors_total",
			Help:      "Failures writing a snapshot to the Kafka sink.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.PipelineRunning,
		m.SourceRequests,
		m.SourceRequestDuration,
		m.CoercionFailures,
		m.GeocodeRequests,
		m.GeocodeCacheHits,
		m.GeometryBackfills,
		m.SnapshotCountries,
		m.SnapshotCycle,
		m.SnapshotPublishErrors,
	)

	return m
}

// NewUnregisteredMetrics creates Metrics that are never exposed, for
// one-shot commands that have no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
