// Package metrics provides Prometheus metrics for the careboard analytics API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the careboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Query Layer Metrics
	queriesTotal *prometheus.CounterVec
	queryFaults  *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
	rowsReturned *prometheus.CounterVec

	// Connection Pool Metrics
	dbOpenConnections prometheus.Gauge
	dbInUse           prometheus.Gauge
	dbIdle            prometheus.Gauge
	dbWaitCount       prometheus.Gauge
	dbReady           prometheus.Gauge

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
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
		namespace:        "careboard",
		subsystem:        "analytics",
		histogramBuckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
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
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() {
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.queriesTotal = m.counterVec("queries_total",
		"Total number of aggregation queries executed by operation",
		"operation")
	m.queryFaults = m.counterVec("query_faults_total",
		"Total number of aggregation queries that faulted and were answered empty",
		"operation")
	m.queryLatency = m.histogramVec("query_latency_milliseconds",
		"Aggregation query round-trip latency in milliseconds",
		m.histogramBuckets, "operation")
	m.rowsReturned = m.counterVec("rows_returned_total",
		"Total number of rows returned by aggregation queries",
		"operation")

	m.dbOpenConnections = m.gauge("db_open_connections", "Established database connections (in use + idle)")
	m.dbInUse = m.gauge("db_in_use_connections", "Database connections currently in use")
	m.dbIdle = m.gauge("db_idle_connections", "Idle database connections")
	m.dbWaitCount = m.gauge("db_wait_count", "Cumulative number of connections waited for")
	m.dbReady = m.gauge("db_ready", "1 when the last readiness ping succeeded, 0 otherwise")

	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds",
		"Latency of operations that resulted in errors",
		m.histogramBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordQuery counts one executed query and its latency.
func (m *Manager) RecordQuery(operation string, latencyMs float64, rows int) {
	m.queriesTotal.WithLabelValues(operation).Inc()
	m.queryLatency.WithLabelValues(operation).Observe(latencyMs)
	m.rowsReturned.WithLabelValues(operation).Add(float64(rows))
}

// RecordQueryFault counts a query that was absorbed as an empty result.
func (m *Manager) RecordQueryFault(operation string, latencyMs float64) {
	m.queryFaults.WithLabelValues(operation).Inc()
	m.errorLatency.WithLabelValues("query", "query_fault").Observe(latencyMs)
}

// UpdatePool copies connection pool counters into gauges.
func (m *Manager) UpdatePool(open, inUse, idle int, waitCount int64) {
	m.dbOpenConnections.Set(float64(open))
	m.dbInUse.Set(float64(inUse))
	m.dbIdle.Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
}

// SetReady records the outcome of the last readiness check.
func (m *Manager) SetReady(ready bool) {
	if ready {
		m.dbReady.Set(1)
		return
	}
	m.dbReady.Set(0)
}

// RecordQuery records a successful query on the global manager.
func RecordQuery(operation string, latencyMs float64, rows int) {
	globalManager.RecordQuery(operation, latencyMs, rows)
}

// RecordQueryFault records a faulted query on the global manager.
func RecordQueryFault(operation string, latencyMs float64) {
	globalManager.RecordQueryFault(operation, latencyMs)
}

// UpdatePool sets the connection pool gauges.
func UpdatePool(open, inUse, idle int, waitCount int64) {
	globalManager.UpdatePool(open, inUse, idle, waitCount)
}

// SetReady sets the readiness gauge.
func SetReady(ready bool) {
	globalManager.SetReady(ready)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
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
