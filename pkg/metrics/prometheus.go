// Package metrics provides Prometheus metrics for the festboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the festboard service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Upstream API metrics
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Aggregation metrics
	aggregations         *prometheus.CounterVec
	aggregationLatency   *prometheus.HistogramVec
	aggregationsInFlight *prometheus.GaugeVec
	fanoutBatchSize      *prometheus.HistogramVec
	fanoutFailures       *prometheus.CounterVec
	missingReferences    *prometheus.CounterVec
	viewStates           *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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

// Configure rebuilds the global manager on a fresh registry with opts. Call it
// once at startup, before any metric is recorded or the registry is served.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "festboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.upstreamRequests = m.counterVec("upstream_requests_total",
		"Total number of upstream API requests by endpoint and outcome", "endpoint", "status")
	m.upstreamLatency = m.histogramVec("upstream_request_duration_milliseconds",
		"Upstream API request duration in milliseconds", m.histogramBuckets, "endpoint")

	m.aggregations = m.counterVec("aggregations_total",
		"Total number of page aggregations by operation and outcome", "operation", "outcome")
	m.aggregationLatency = m.histogramVec("aggregation_duration_milliseconds",
		"End-to-end aggregation duration in milliseconds", m.histogramBuckets, "operation")
	m.aggregationsInFlight = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "aggregations_in_flight",
		Help:        "Number of aggregations currently running",
		ConstLabels: m.constLabels,
	}, []string{"operation"})
	m.fanoutBatchSize = m.histogramVec("fanout_batch_size",
		"Number of concurrent sub-requests issued per fan-out", []float64{0, 1, 2, 4, 8, 16, 32, 64, 128}, "operation")
	m.fanoutFailures = m.counterVec("fanout_failures_total",
		"Total number of failed sub-requests inside a fan-out", "operation")
	m.missingReferences = m.counterVec("missing_references_total",
		"Total number of referenced records that could not be resolved", "operation")
	m.viewStates = m.counterVec("view_states_total",
		"Total number of page states produced by view and state", "view", "state")

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds (user experience)", m.histogramBuckets, "endpoint", "method", "status_code")

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds",
		"Latency of operations that resulted in errors", m.histogramBuckets, "component", "error_type")

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Upstream Metrics Functions.

// RecordUpstreamRequest counts one upstream request; status is the HTTP
// status code or "transport_error".
func RecordUpstreamRequest(endpoint, status string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// Aggregation Metrics Functions.

// RecordAggregation records one finished aggregation.
func RecordAggregation(operation, outcome string, latencyMs float64) {
	globalManager.aggregations.WithLabelValues(operation, outcome).Inc()
	globalManager.aggregationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// IncAggregationsInFlight marks an aggregation as started.
func IncAggregationsInFlight(operation string) {
	globalManager.aggregationsInFlight.WithLabelValues(operation).Inc()
}

// DecAggregationsInFlight marks an aggregation as finished.
func DecAggregationsInFlight(operation string) {
	globalManager.aggregationsInFlight.WithLabelValues(operation).Dec()
}

// RecordFanout records the size of a fan-out and how many of its sub-requests failed.
func RecordFanout(operation string, size, failed int) {
	globalManager.fanoutBatchSize.WithLabelValues(operation).Observe(float64(size))
	if failed > 0 {
		globalManager.fanoutFailures.WithLabelValues(operation).Add(float64(failed))
	}
}

// RecordMissingReferences counts references that resolved to nothing.
func RecordMissingReferences(operation string, count int) {
	if count <= 0 {
		return
	}
	globalManager.missingReferences.WithLabelValues(operation).Add(float64(count))
}

// RecordViewState counts a page state handed to a client.
func RecordViewState(view, state string) {
	globalManager.viewStates.WithLabelValues(view, state).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
