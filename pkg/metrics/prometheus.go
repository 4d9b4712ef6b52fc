// Package metrics provides Prometheus metrics for the sniped service.
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

// Manager manages all Prometheus metrics for the sniped service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Pipeline metrics
	lookups          *prometheus.CounterVec
	lookupLatency    prometheus.Histogram
	analyses         *prometheus.CounterVec
	analysisLatency  prometheus.Histogram
	snipesFound      prometheus.Histogram
	matchesAnalyzed  prometheus.Histogram
	selfMatches      *prometheus.CounterVec
	searchesStale    prometheus.Counter
	activeSessions   prometheus.Gauge
	wsConnections    prometheus.Gauge
	searchesStarted  prometheus.Counter
	searchesFinished *prometheus.CounterVec

	// Upstream (game-data provider) metrics
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamRetries  *prometheus.CounterVec
	rateLimitWait    prometheus.Histogram

	// Worker pool metrics
	workerTasks       *prometheus.CounterVec
	workerTaskLatency *prometheus.HistogramVec

	// Cache metrics
	cacheOps *prometheus.CounterVec

	// Champion registry metrics
	championCount     prometheus.Gauge
	championRefreshes *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sniped",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.lookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "lookups_total",
		Help:        "Live game lookups by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.lookupLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "lookup_latency_milliseconds",
		Help:        "Live game lookup latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "analyses_total",
		Help:        "Snipe analyses by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "analysis_latency_milliseconds",
		Help:        "Snipe analysis latency in milliseconds, history fetch included",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.snipesFound = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "snipes_found",
		Help:        "Number of lobby members found in recent history per analysis",
		Buckets:     []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 15},
		ConstLabels: labels,
	})

	m.matchesAnalyzed = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "matches_analyzed",
		Help:        "Number of history matches fetched per analysis",
		Buckets:     []float64{0, 10, 20, 40, 60, 80, 100},
		ConstLabels: labels,
	})

	m.selfMatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "self_identification_total",
		Help:        "How the searching player was located in the lobby",
		ConstLabels: labels,
	}, []string{"method"})

	m.searchesStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "searches_started_total",
		Help:        "Searches started by live sessions",
		ConstLabels: labels,
	})

	m.searchesFinished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "searches_finished_total",
		Help:        "Searches committed by live sessions, by final status",
		ConstLabels: labels,
	}, []string{"status"})

	m.searchesStale = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "stale_results_discarded_total",
		Help:        "Results dropped because a newer search superseded them",
		ConstLabels: labels,
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "active_sessions",
		Help:        "Live sessions currently open",
		ConstLabels: labels,
	})

	m.wsConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "websocket_connections",
		Help:        "Open websocket connections",
		ConstLabels: labels,
	})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "upstream_requests_total",
		Help:        "Requests to the game-data provider by endpoint and status",
		ConstLabels: labels,
	}, []string{"endpoint", "status_code"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "upstream_latency_milliseconds",
		Help:        "Game-data provider request latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint"})

	m.upstreamRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "upstream_retries_total",
		Help:        "Requests retried after a rate limit response",
		ConstLabels: labels,
	}, []string{"endpoint"})

	m.rateLimitWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "rate_limit_wait_milliseconds",
		Help:        "Time spent waiting on the client-side rate limiter",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.workerTasks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "worker_tasks_total",
		Help:        "Tasks run by worker pools, by pool and result",
		ConstLabels: labels,
	}, []string{"pool", "result"})

	m.workerTaskLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "worker_task_latency_milliseconds",
		Help:        "Worker task latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"pool"})

	m.cacheOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "cache_operations_total",
		Help:        "Cache operations by backend, operation and result",
		ConstLabels: labels,
	}, []string{"backend", "op", "result"})

	m.championCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "champions_known",
		Help:        "Champions currently resolvable by name",
		ConstLabels: labels,
	})

	m.championRefreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "champion_refresh_total",
		Help:        "Champion data refreshes by result",
		ConstLabels: labels,
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "errors_by_component_total",
			Help:        "Errors by component and type",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "errors_by_type_total",
			Help:        "Errors by type and severity",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "errors_by_endpoint_total",
			Help:        "Errors by endpoint, method and type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Enabled reports whether recording is active on this manager.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval returns the interval for refreshing gauge metrics.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Configure replaces the global manager with one built from opts. The new
// manager records into a fresh registry, which GetRegistry returns from then
// on. Call it once at startup, before any handler reads the registry.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
	return globalManager
}

// Enabled reports whether the global manager records anything.
func Enabled() bool { return globalManager.enabled }

// RefreshInterval returns the gauge refresh interval of the global manager.
func RefreshInterval() time.Duration { return globalManager.refreshInterval }

// Pipeline Metrics Functions.

// RecordLookup records the outcome and latency of a live game lookup.
func RecordLookup(outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.lookups.WithLabelValues(outcome).Inc()
	globalManager.lookupLatency.Observe(latencyMs)
}

// RecordAnalysis records the outcome and latency of a snipe analysis.
func RecordAnalysis(outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.analyses.WithLabelValues(outcome).Inc()
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordSnipesFound records how many lobby members matched history.
func RecordSnipesFound(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.snipesFound.Observe(float64(count))
}

// RecordMatchesAnalyzed records how many history matches were fetched.
func RecordMatchesAnalyzed(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.matchesAnalyzed.Observe(float64(count))
}

// RecordSelfIdentification counts how the searching player was located.
func RecordSelfIdentification(method string) {
	if !globalManager.enabled {
		return
	}
	globalManager.selfMatches.WithLabelValues(method).Inc()
}

// RecordSearchStarted increments the live session search counter.
func RecordSearchStarted() {
	if !globalManager.enabled {
		return
	}
	globalManager.searchesStarted.Inc()
}

// RecordSearchFinished counts a committed search by its final status.
func RecordSearchFinished(status string) {
	if !globalManager.enabled {
		return
	}
	globalManager.searchesFinished.WithLabelValues(status).Inc()
}

// RecordStaleResult counts a result discarded after being superseded.
func RecordStaleResult() {
	if !globalManager.enabled {
		return
	}
	globalManager.searchesStale.Inc()
}

// UpdateActiveSessions adds delta to the live session gauge.
func UpdateActiveSessions(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.activeSessions.Add(float64(delta))
}

// UpdateWebsocketConnections adds delta to the websocket connection gauge.
func UpdateWebsocketConnections(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.wsConnections.Add(float64(delta))
}

// Upstream Metrics Functions.

// RecordUpstreamRequest records a provider request and its latency.
func RecordUpstreamRequest(endpoint, statusCode string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRequests.WithLabelValues(endpoint, statusCode).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordUpstreamRetry counts a retried provider request.
func RecordUpstreamRetry(endpoint string) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRetries.WithLabelValues(endpoint).Inc()
}

// RecordRateLimitWait records time spent blocked on the rate limiter.
func RecordRateLimitWait(waitMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.rateLimitWait.Observe(waitMs)
}

// Worker Pool Metrics Functions.

// RecordWorkerTask records one finished pool task.
func RecordWorkerTask(pool, result string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerTasks.WithLabelValues(pool, result).Inc()
	globalManager.workerTaskLatency.WithLabelValues(pool).Observe(latencyMs)
}

// Cache Metrics Functions.

// RecordCacheOperation counts a cache operation.
func RecordCacheOperation(backend, op, result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheOps.WithLabelValues(backend, op, result).Inc()
}

// Champion Metrics Functions.

// UpdateChampionCount sets the number of known champions.
func UpdateChampionCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.championCount.Set(float64(count))
}

// RecordChampionRefresh counts a champion data refresh attempt.
func RecordChampionRefresh(result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.championRefreshes.WithLabelValues(result).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
