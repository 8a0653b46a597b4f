// Package metrics provides Prometheus metrics for the bingo board service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultSystemInterval = 10 * time.Second

// Manager manages all Prometheus metrics for the bingo service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	drawBuckets    []float64
	enabled        bool
	systemInterval time.Duration
	constLabels    map[string]string
	namePrefix     string
	registry       prometheus.Registerer

	// Generation metrics
	boardsGenerated   *prometheus.CounterVec
	generationErrors  *prometheus.CounterVec
	generationLatency prometheus.Histogram
	drawAttempts      prometheus.Histogram
	tagRejections     *prometheus.CounterVec
	exhaustedGoals    prometheus.Counter

	// Catalog and session state
	catalogGoals   *prometheus.GaugeVec
	activeSessions prometheus.Gauge

	// Board history
	historySize            prometheus.Gauge
	historyCapacity        prometheus.Gauge
	historyEvictions       prometheus.Counter
	repositorySaveLatency  prometheus.Histogram
	repositoryQueryLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
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
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "bingo",
		subsystem:      "boards",
		latencyBuckets: prometheus.DefBuckets,
		drawBuckets:    prometheus.ExponentialBuckets(1, 2, 12),
		enabled:        true,
		systemInterval: defaultSystemInterval,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// SystemInterval is the period used by the system collector.
func (m *Manager) SystemInterval() time.Duration {
	return m.systemInterval
}

func (m *Manager) name(n string) string {
	if m.namePrefix == "" {
		return n
	}
	return m.namePrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Generation metrics
	m.boardsGenerated = auto.NewCounterVec(
		m.counterOpts("generated_total", "Total number of boards generated by mode"),
		[]string{"mode"},
	)
	m.generationErrors = auto.NewCounterVec(
		m.counterOpts("generation_errors_total", "Total number of failed generations by error kind"),
		[]string{"kind"},
	)
	m.generationLatency = auto.NewHistogram(
		m.histogramOpts("generation_latency_milliseconds", "Board generation latency in milliseconds", m.latencyBuckets),
	)
	m.drawAttempts = auto.NewHistogram(
		m.histogramOpts("draw_attempts", "Random draws needed per generated board", m.drawBuckets),
	)
	m.tagRejections = auto.NewCounterVec(
		m.counterOpts("tag_rejections_total", "Candidates rejected because an exclusive tag was already on the board"),
		[]string{"tag"},
	)
	m.exhaustedGoals = auto.NewCounter(
		m.counterOpts("exhausted_goals_total", "Goals exhausted by single-use tags across all sessions"),
	)

	// Catalog and session state
	m.catalogGoals = auto.NewGaugeVec(
		m.gaugeOpts("catalog_goals", "Goals in the loaded catalog by difficulty bucket"),
		[]string{"bucket"},
	)
	m.activeSessions = auto.NewGauge(
		m.gaugeOpts("active_sessions", "Number of open generation sessions"),
	)

	// Board history
	m.historySize = auto.NewGauge(
		m.gaugeOpts("history_size", "Number of boards retained in history"),
	)
	m.historyCapacity = auto.NewGauge(
		m.gaugeOpts("history_capacity", "Maximum number of boards retained in history"),
	)
	m.historyEvictions = auto.NewCounter(
		m.counterOpts("history_evictions_total", "Boards evicted from history to make room"),
	)
	m.repositorySaveLatency = auto.NewHistogram(
		m.histogramOpts("repository_save_latency_milliseconds", "Board history save latency in milliseconds", m.latencyBuckets),
	)
	m.repositoryQueryLatency = auto.NewHistogram(
		m.histogramOpts("repository_query_latency_milliseconds", "Board history query latency in milliseconds", m.latencyBuckets),
	)

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.latencyBuckets),
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Generation Metrics Functions.

// RecordBoardGenerated counts a board generated in mode ("stateless" or "session").
func RecordBoardGenerated(mode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.boardsGenerated.WithLabelValues(mode).Inc()
}

// RecordGenerationError counts a failed generation by error kind.
func RecordGenerationError(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.generationErrors.WithLabelValues(kind).Inc()
}

// RecordGenerationLatency records generation latency in milliseconds.
func RecordGenerationLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.generationLatency.Observe(latencyMs)
}

// RecordDrawAttempts records the number of draws one board needed.
func RecordDrawAttempts(attempts int) {
	if !globalManager.enabled {
		return
	}
	globalManager.drawAttempts.Observe(float64(attempts))
}

// RecordTagRejections adds per-tag rejection counts.
func RecordTagRejections(rejections map[string]int) {
	if !globalManager.enabled {
		return
	}
	for tag, n := range rejections {
		globalManager.tagRejections.WithLabelValues(tag).Add(float64(n))
	}
}

// RecordExhaustedGoals adds n newly exhausted goals.
func RecordExhaustedGoals(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.exhaustedGoals.Add(float64(n))
}

// UpdateCatalogGoals sets the goal count for a bucket.
func UpdateCatalogGoals(bucket string, count int) {
	globalManager.catalogGoals.WithLabelValues(bucket).Set(float64(count))
}

// UpdateActiveSessions sets the number of open sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// History Metrics Functions.

// UpdateHistorySize sets the number of retained boards.
func UpdateHistorySize(count int) {
	globalManager.historySize.Set(float64(count))
}

// UpdateHistoryCapacity sets the history bound.
func UpdateHistoryCapacity(capacity int) {
	globalManager.historyCapacity.Set(float64(capacity))
}

// RecordHistoryEviction counts an evicted board.
func RecordHistoryEviction() {
	if !globalManager.enabled {
		return
	}
	globalManager.historyEvictions.Inc()
}

// RecordRepositorySaveLatency records history save latency.
func RecordRepositorySaveLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.repositorySaveLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records history query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.repositoryQueryLatency.Observe(latencyMs)
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

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
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

// CollectSystemMetrics samples runtime memory, goroutine and GC figures once.
func CollectSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.Alloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		RecordSystemGCPauseTime(float64(last) / float64(time.Millisecond))
	}
}

// StartSystemCollector samples system metrics every refresh interval until
// ctx is done.
func StartSystemCollector(ctx context.Context) {
	interval := globalManager.systemInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		CollectSystemMetrics()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CollectSystemMetrics()
			}
		}
	}()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
