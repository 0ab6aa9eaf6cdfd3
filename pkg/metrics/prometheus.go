// Package metrics provides Prometheus metrics for the outreach service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the outreach service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Filing pipeline
	filingsIngested       prometheus.Counter
	filingsDuplicate      prometheus.Counter
	filingsRejected       *prometheus.CounterVec
	filingsTotal          prometheus.Gauge
	classificationLatency prometheus.Histogram
	routesAssigned        *prometheus.CounterVec
	priorityLabels        *prometheus.CounterVec
	consultantDetections  *prometheus.CounterVec
	bulkRetagSize         prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency *prometheus.HistogramVec
	workerErrors            *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Outbound calls (open data API, webhooks)
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "outreach",
		subsystem:        "filings",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.filingsIngested = m.counter("ingested_total", "Total number of filings classified and stored")
	m.filingsDuplicate = m.counter("duplicate_total", "Total number of filings rejected as duplicates of a stored dedup hash")
	m.filingsRejected = m.counterVec("rejected_total", "Total number of filings rejected before classification", "reason")
	m.filingsTotal = m.gauge("stored", "Number of filings currently stored")
	m.classificationLatency = m.histogram("classification_latency_milliseconds", "Time spent running the classification pipeline", m.histogramBuckets)
	m.routesAssigned = m.counterVec("routes_assigned_total", "Outreach routes assigned, by route", "route")
	m.priorityLabels = m.counterVec("priority_labels_total", "Priority labels assigned, by label", "label")
	m.consultantDetections = m.counterVec("consultant_detections_total", "Consultant classifications, by detection method", "method")
	m.bulkRetagSize = m.histogram("bulk_retag_filings", "Number of sibling filings updated by one manual consultant tag",
		[]float64{0, 1, 2, 5, 10, 25, 50, 100, 250})

	m.queueSize = m.gauge("queue_size", "Current size of the job queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue failures")

	m.workerCount = m.gauge("worker_count", "Number of running workers")
	m.workerProcessingLatency = m.histogramVec("worker_processing_latency_milliseconds", "Job processing latency by job kind", "kind")
	m.workerErrors = m.counterVec("worker_errors_total", "Job failures by job kind", "kind")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.upstreamRequests = m.counterVec("upstream_requests_total", "Outbound calls by service and outcome", "service", "outcome")
	m.upstreamLatency = m.histogramVec("upstream_latency_milliseconds", "Outbound call latency by service", "service")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordFilingIngested increments the ingested filings counter.
func RecordFilingIngested() { globalManager.filingsIngested.Inc() }

// RecordFilingDuplicate increments the duplicate filings counter.
func RecordFilingDuplicate() { globalManager.filingsDuplicate.Inc() }

// RecordFilingRejected counts a filing rejected for reason.
func RecordFilingRejected(reason string) { globalManager.filingsRejected.WithLabelValues(reason).Inc() }

// UpdateFilingsTotal sets the number of stored filings.
func UpdateFilingsTotal(count int) { globalManager.filingsTotal.Set(float64(count)) }

// RecordClassificationLatency records pipeline latency in milliseconds.
func RecordClassificationLatency(latencyMs float64) {
	globalManager.classificationLatency.Observe(latencyMs)
}

// RecordClassification counts the route, label and consultant method of one classification.
func RecordClassification(route, label, method string) {
	globalManager.routesAssigned.WithLabelValues(route).Inc()
	globalManager.priorityLabels.WithLabelValues(label).Inc()
	if method != "" {
		globalManager.consultantDetections.WithLabelValues(method).Inc()
	}
}

// RecordConsultantDetection counts a consultant classification by method.
func RecordConsultantDetection(method string) {
	globalManager.consultantDetections.WithLabelValues(method).Inc()
}

// RecordBulkRetag observes how many siblings one manual tag updated.
func RecordBulkRetag(updated int) { globalManager.bulkRetagSize.Observe(float64(updated)) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records job latency for a job kind.
func RecordWorkerProcessingLatency(kind string, latencyMs float64) {
	globalManager.workerProcessingLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError(kind string) { globalManager.workerErrors.WithLabelValues(kind).Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordUpstreamRequest counts an outbound call; outcome is "ok", "retry" or "error".
func RecordUpstreamRequest(service, outcome string) {
	globalManager.upstreamRequests.WithLabelValues(service, outcome).Inc()
}

// RecordUpstreamLatency records outbound call latency.
func RecordUpstreamLatency(service string, latencyMs float64) {
	globalManager.upstreamLatency.WithLabelValues(service).Observe(latencyMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
