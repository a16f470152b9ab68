package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the counters below.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
)

// Manager manages all Prometheus metrics for the talentradar service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring
	scoringLatency   prometheus.Histogram
	candidatesScored prometheus.Counter
	candidatesByTier *prometheus.GaugeVec
	totalCandidates  prometheus.Gauge

	// Enrichment
	enrichments       *prometheus.CounterVec
	collaboratorCalls *prometheus.CounterVec
	insightMerges     *prometheus.CounterVec
	duplicateAnchors  prometheus.Counter

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerJobs         *prometheus.CounterVec
	workerLatency      prometheus.Histogram

	// Repository
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Cache and events
	cacheRequests   *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "talentradar",
		histogramBuckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 250, 500, 1000, 5000},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.scoringLatency = m.histogram("scoring_latency_milliseconds",
		"Histogram of candidate scoring latency in milliseconds")
	m.candidatesScored = m.counter("candidates_scored_total",
		"Total number of candidates scored")
	m.candidatesByTier = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "candidates_by_tier", Help: "Number of stored candidates per priority tier",
	}, []string{"tier"})
	m.totalCandidates = m.gauge("candidates_total",
		"Total number of stored candidates")

	m.enrichments = m.counterVec("enrichments_total",
		"Total number of enrichment runs by anchor platform and outcome", "platform", "outcome")
	m.collaboratorCalls = m.counterVec("collaborator_fetches_total",
		"Total number of collaborator fetches by collaborator and outcome", "collaborator", "outcome")
	m.insightMerges = m.counterVec("insight_merges_total",
		"Total number of career insight suggestions by outcome", "outcome")
	m.duplicateAnchors = m.counter("duplicate_anchors_total",
		"Total number of discovery anchors dropped as duplicates")

	m.queueSize = m.gauge("queue_depth", "Current number of pending enrichment jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum enrichment queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.workerCount = m.gauge("worker_count", "Current number of enrichment workers")
	m.workerJobs = m.counterVec("worker_jobs_total",
		"Total number of enrichment jobs processed by outcome", "outcome")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds",
		"Enrichment job processing latency in milliseconds")

	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds",
		"Repository update operation latency in milliseconds")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds",
		"Repository query operation latency in milliseconds")

	m.cacheRequests = m.counterVec("cache_requests_total",
		"Total number of fetch cache lookups by result", "result")
	m.eventsPublished = m.counterVec("events_published_total",
		"Total number of scored candidate events by outcome", "outcome")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
	globalManager.candidatesScored.Inc()
}

// UpdateTierDistribution replaces the per tier candidate gauges.
func UpdateTierDistribution(counts map[string]int) {
	total := 0
	for tier, n := range counts {
		globalManager.candidatesByTier.WithLabelValues(tier).Set(float64(n))
		total += n
	}
	globalManager.totalCandidates.Set(float64(total))
}

// RecordEnrichment counts one enrichment run.
func RecordEnrichment(platform, outcome string) {
	globalManager.enrichments.WithLabelValues(platform, outcome).Inc()
}

// RecordCollaboratorFetch counts one collaborator call.
func RecordCollaboratorFetch(collaborator, outcome string) {
	globalManager.collaboratorCalls.WithLabelValues(collaborator, outcome).Inc()
}

// RecordInsightMerge counts one insight suggestion outcome.
func RecordInsightMerge(outcome string) {
	globalManager.insightMerges.WithLabelValues(outcome).Inc()
}

// RecordDuplicateAnchor increments the duplicate anchor counter.
func RecordDuplicateAnchor() {
	globalManager.duplicateAnchors.Inc()
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

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerJob counts one processed job and its latency.
func RecordWorkerJob(outcome string, latencyMs float64) {
	globalManager.workerJobs.WithLabelValues(outcome).Inc()
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordRepositoryUpdateLatency records repository update operation latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository query operation latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordCacheRequest counts a cache hit or miss.
func RecordCacheRequest(result string) {
	globalManager.cacheRequests.WithLabelValues(result).Inc()
}

// RecordEventPublished counts one published scored candidate event.
func RecordEventPublished(outcome string) {
	globalManager.eventsPublished.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
