// Package metrics provides Prometheus metrics for the projection service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine
	projections       prometheus.Counter
	projectionErrors  *prometheus.CounterVec
	projectionLatency prometheus.Histogram
	matchups          prometheus.Counter
	degraded          *prometheus.CounterVec

	// Weights
	weightUpdates prometheus.Counter
	weightVersion prometheus.Gauge

	// Prediction history
	predictionsSaved     prometheus.Counter
	predictionsDuplicate prometheus.Counter
	resultsRecorded      prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount   prometheus.Gauge
	workerActive  prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Process
	memoryBytes prometheus.Gauge
	goroutines  prometheus.Gauge
	gcPause     prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record*/Update* helpers

// customRegistry keeps Go runtime collectors out of the exported set.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mlb",
		subsystem:        "projection",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.projections = m.counter("projections_total", "Game projections completed")
	m.projectionErrors = m.counterVec("projection_errors_total", "Game projections rejected, by reason", "reason")
	m.projectionLatency = m.histogram("projection_latency_milliseconds", "End-to-end projection latency in milliseconds")
	m.matchups = m.counter("matchups_evaluated_total", "Hitter versus pitcher matchups evaluated")
	m.degraded = m.counterVec("degraded_fallbacks_total", "Fallbacks taken because input data was missing", "kind")

	m.weightUpdates = m.counter("weight_updates_total", "Model weight sets installed")
	m.weightVersion = m.gauge("weight_version", "Version of the active model weight set")

	m.predictionsSaved = m.counter("predictions_saved_total", "Predictions persisted")
	m.predictionsDuplicate = m.counter("predictions_duplicate_total", "Predictions dropped as duplicates of a game already saved")
	m.resultsRecorded = m.counter("results_recorded_total", "Actual game results attached to predictions")

	m.queueSize = m.gauge("queue_size", "Predictions waiting to be persisted")
	m.queueCapacity = m.gauge("queue_capacity", "Prediction queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Predictions enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Predictions dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Predictions rejected because the queue was full or closed")

	m.workerCount = m.gauge("worker_count", "Prediction writer workers running")
	m.workerActive = m.gauge("worker_active", "Prediction writer workers currently busy")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Time to persist one prediction in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Predictions that failed to persist")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency in milliseconds", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint, type and severity", "endpoint", "error_type", "severity")

	m.memoryBytes = m.gauge("memory_alloc_bytes", "Bytes of allocated heap objects")
	m.goroutines = m.gauge("goroutines", "Goroutines currently running")
	m.gcPause = m.histogram("gc_pause_milliseconds", "Average GC pause in milliseconds, sampled")
}

// RecordProjection counts a completed projection and its latency.
func RecordProjection(latencyMs float64) {
	globalManager.projections.Inc()
	globalManager.projectionLatency.Observe(latencyMs)
}

// RecordProjectionError counts a rejected projection.
func RecordProjectionError(reason string) {
	globalManager.projectionErrors.WithLabelValues(reason).Inc()
}

// RecordMatchups adds n evaluated matchups.
func RecordMatchups(n int) { globalManager.matchups.Add(float64(n)) }

// RecordDegraded counts one fallback of the given kind.
func RecordDegraded(kind string) { globalManager.degraded.WithLabelValues(kind).Inc() }

// RecordWeightUpdate counts a weight swap and publishes the new version.
func RecordWeightUpdate(version int64) {
	globalManager.weightUpdates.Inc()
	globalManager.weightVersion.Set(float64(version))
}

// RecordPredictionSaved counts a persisted prediction.
func RecordPredictionSaved() { globalManager.predictionsSaved.Inc() }

// RecordPredictionDuplicate counts a deduplicated prediction.
func RecordPredictionDuplicate() { globalManager.predictionsDuplicate.Inc() }

// RecordResult counts an actual result attached to a prediction.
func RecordResult() { globalManager.resultsRecorded.Inc() }

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueue.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// AddWorkerActive moves the busy-worker gauge by delta.
func AddWorkerActive(delta int) { globalManager.workerActive.Add(float64(delta)) }

// RecordWorkerProcessingLatency records the time spent on one record.
func RecordWorkerProcessingLatency(latencyMs float64) { globalManager.workerLatency.Observe(latencyMs) }

// RecordWorkerError counts a failed record.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordStoreLatency records one store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.memoryBytes.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) { globalManager.goroutines.Set(float64(n)) }

// RecordSystemGCPauseTime records a sampled average GC pause.
func RecordSystemGCPauseTime(ms float64) { globalManager.gcPause.Observe(ms) }

// GetRegistry returns the registry the global manager exports on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
