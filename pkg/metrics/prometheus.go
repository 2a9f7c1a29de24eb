// Package metrics provides Prometheus metrics for the momentum service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// pipelineBuckets covers sub-millisecond pipeline runs up to slow recomputes.
var pipelineBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100}

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	samplesIngested  *prometheus.CounterVec
	samplesDuplicate prometheus.Counter
	samplesRejected  *prometheus.CounterVec

	// Pipeline
	pipelineRuns    *prometheus.CounterVec
	pipelineErrors  *prometheus.CounterVec
	pipelineLatency prometheus.Histogram
	domainScore     *prometheus.GaugeVec
	domainPhase     *prometheus.GaugeVec
	trackedDomains  prometheus.Gauge

	// Store
	storedSamples prometheus.Gauge
	storeLatency  *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount  prometheus.Gauge
	workerErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "momentum",
		subsystem:        "signals",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.samplesIngested = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "samples_ingested_total",
		Help:      "Total number of raw samples accepted for processing",
	}, []string{"domain"})

	m.samplesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "samples_duplicate_total",
		Help:      "Total number of samples dropped as duplicates",
	})

	m.samplesRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "samples_rejected_total",
		Help:      "Total number of samples rejected before processing",
	}, []string{"reason"})

	m.pipelineRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_runs_total",
		Help:      "Total number of completed momentum pipeline runs",
	}, []string{"domain"})

	m.pipelineErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_errors_total",
		Help:      "Total number of pipeline runs that failed a precondition",
	}, []string{"reason"})

	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_latency_milliseconds",
		Help:      "Duration of a single domain pipeline run in milliseconds",
		Buckets:   pipelineBuckets,
	})

	m.domainScore = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "domain_momentum_score",
		Help:      "Latest 0-100 momentum score per domain",
	}, []string{"domain"})

	m.domainPhase = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "domain_phase",
		Help:      "Current phase per domain (1 for the active phase)",
	}, []string{"domain", "phase"})

	m.trackedDomains = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_domains",
		Help:      "Number of domains with at least one sample",
	})

	m.storedSamples = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stored_samples",
		Help:      "Number of raw samples held in the history store",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_operation_milliseconds",
		Help:      "History store operation latency in milliseconds",
		Buckets:   pipelineBuckets,
	}, []string{"operation"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of samples waiting in the ingestion queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum capacity of the ingestion queue",
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueued_total",
		Help:      "Total number of samples enqueued",
	})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeued_total",
		Help:      "Total number of samples handed to workers",
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of failed enqueue attempts",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of ingestion workers",
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of samples a worker failed to process",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordSampleIngested counts an accepted sample for domain.
func RecordSampleIngested(domain string) {
	globalManager.samplesIngested.WithLabelValues(domain).Inc()
}

// RecordSampleDuplicate counts a sample dropped by deduplication.
func RecordSampleDuplicate() {
	globalManager.samplesDuplicate.Inc()
}

// RecordSampleRejected counts a sample rejected for reason.
func RecordSampleRejected(reason string) {
	globalManager.samplesRejected.WithLabelValues(reason).Inc()
}

// RecordPipelineRun counts a completed pipeline run and its latency.
func RecordPipelineRun(domain string, latencyMs float64) {
	globalManager.pipelineRuns.WithLabelValues(domain).Inc()
	globalManager.pipelineLatency.Observe(latencyMs)
}

// RecordPipelineError counts a failed pipeline run.
func RecordPipelineError(reason string) {
	globalManager.pipelineErrors.WithLabelValues(reason).Inc()
}

// UpdateDomainScore sets the latest momentum score for domain.
func UpdateDomainScore(domain string, score float64) {
	globalManager.domainScore.WithLabelValues(domain).Set(score)
}

// UpdateDomainPhase marks phase as the only active phase of domain.
func UpdateDomainPhase(domain, phase string) {
	globalManager.domainPhase.DeletePartialMatch(prometheus.Labels{"domain": domain})
	globalManager.domainPhase.WithLabelValues(domain, phase).Set(1)
}

// UpdateTrackedDomains sets the number of tracked domains.
func UpdateTrackedDomains(count int) {
	globalManager.trackedDomains.Set(float64(count))
}

// UpdateStoredSamples sets the number of samples held by the store.
func UpdateStoredSamples(count int) {
	globalManager.storedSamples.Set(float64(count))
}

// RecordStoreLatency observes the latency of a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a failed enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
