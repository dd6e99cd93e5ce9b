// Package metrics provides Prometheus metrics for the courtline projection service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the courtline service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Projection metrics
	projections       *prometheus.CounterVec
	projectionErrors  *prometheus.CounterVec
	projectionLatency prometheus.Histogram
	fallbacks         *prometheus.CounterVec
	plays             *prometheus.CounterVec

	// Simulation metrics
	simulationLatency prometheus.Histogram
	simulationSamples prometheus.Counter

	// Feed and dataset metrics
	feedFetches        *prometheus.CounterVec
	feedFetchLatency   *prometheus.HistogramVec
	feedRows           *prometheus.GaugeVec
	datasetRefreshes   *prometheus.CounterVec
	datasetTeams       prometheus.Gauge
	datasetLastRefresh prometheus.Gauge

	// Saved prediction metrics
	predictionsStored prometheus.Gauge

	// Worker metrics
	workerJobs        *prometheus.CounterVec
	workerJobDuration prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "courtline",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.projections = m.counterVec("projections_total", "Matchup projections computed, by mode", "mode")
	m.projectionErrors = m.counterVec("projection_errors_total", "Matchup projections aborted, by error kind", "kind")
	m.projectionLatency = m.histogram("projection_latency_milliseconds", "End-to-end projection latency in milliseconds")
	m.fallbacks = m.counterVec("fallbacks_total", "Rating fields substituted by a lower ranked source", "field", "source")
	m.plays = m.counterVec("plays_total", "Recommendations produced, by market and play", "market", "play")

	m.simulationLatency = m.histogram("simulation_latency_milliseconds", "Monte Carlo simulation latency in milliseconds")
	m.simulationSamples = promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "simulation_samples_total",
		Help:        "Monte Carlo trials drawn",
		ConstLabels: m.customLabels,
	})

	m.feedFetches = m.counterVec("feed_fetches_total", "Feed fetch attempts by feed and status", "feed", "status")
	m.feedFetchLatency = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "feed_fetch_latency_milliseconds",
		Help:        "Feed fetch latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"feed"})
	m.feedRows = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "feed_teams",
		Help:        "Teams extracted from the last fetch of each feed",
		ConstLabels: m.customLabels,
	}, []string{"feed"})
	m.datasetRefreshes = m.counterVec("dataset_refreshes_total", "Dataset refresh attempts by status", "status")
	m.datasetTeams = m.gauge("dataset_teams", "Teams in the active rating dataset")
	m.datasetLastRefresh = m.gauge("dataset_last_refresh_unix", "Unix time of the last successful dataset swap")

	m.predictionsStored = m.gauge("predictions_stored", "Saved predictions in the store")

	m.workerJobs = m.counterVec("worker_jobs_total", "Pool jobs run, by pool", "pool")
	m.workerJobDuration = m.histogram("worker_job_duration_milliseconds", "Pool job duration in milliseconds")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Current goroutine count")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// Projection metrics.

func RecordProjection(mode string) {
	if globalManager.enabled {
		globalManager.projections.WithLabelValues(mode).Inc()
	}
}

func RecordProjectionError(kind string) {
	if globalManager.enabled {
		globalManager.projectionErrors.WithLabelValues(kind).Inc()
	}
}

func RecordProjectionLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.projectionLatency.Observe(latencyMs)
	}
}

func RecordFallback(field, source string) {
	if globalManager.enabled {
		globalManager.fallbacks.WithLabelValues(field, source).Inc()
	}
}

func RecordPlay(market, play string) {
	if globalManager.enabled {
		globalManager.plays.WithLabelValues(market, play).Inc()
	}
}

// Simulation metrics.

func RecordSimulationLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.simulationLatency.Observe(latencyMs)
	}
}

func RecordSimulationSamples(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.simulationSamples.Add(float64(n))
	}
}

// Feed and dataset metrics.

func RecordFeedFetch(feed, status string) {
	if globalManager.enabled {
		globalManager.feedFetches.WithLabelValues(feed, status).Inc()
	}
}

func RecordFeedFetchLatency(feed string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.feedFetchLatency.WithLabelValues(feed).Observe(latencyMs)
	}
}

func UpdateFeedTeams(feed string, count int) {
	if globalManager.enabled {
		globalManager.feedRows.WithLabelValues(feed).Set(float64(count))
	}
}

func RecordDatasetRefresh(status string) {
	if globalManager.enabled {
		globalManager.datasetRefreshes.WithLabelValues(status).Inc()
	}
}

func UpdateDatasetTeams(count int) {
	if globalManager.enabled {
		globalManager.datasetTeams.Set(float64(count))
	}
}

func UpdateDatasetLastRefresh(t time.Time) {
	if globalManager.enabled {
		globalManager.datasetLastRefresh.Set(float64(t.Unix()))
	}
}

// Saved prediction metrics.

func UpdatePredictionsStored(count int64) {
	if globalManager.enabled {
		globalManager.predictionsStored.Set(float64(count))
	}
}

// Worker metrics.

func RecordWorkerJob(pool string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerJobs.WithLabelValues(pool).Inc()
		globalManager.workerJobDuration.Observe(latencyMs)
	}
}

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// RefreshInterval is how often the process gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom registry served at /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
