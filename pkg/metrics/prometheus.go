// Package metrics provides Prometheus metrics for the nameswap ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the nameswap service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Voting
	votesRecorded  *prometheus.CounterVec
	votesRejected  *prometheus.CounterVec
	votesDuplicate prometheus.Counter

	// Replay
	replayDuration *prometheus.HistogramVec
	replayVotes    *prometheus.CounterVec

	// Universe and groups
	itemsTotal  *prometheus.GaugeVec
	groupsTotal prometheus.Gauge

	// Sampling
	pairsSampled  *prometheus.CounterVec
	pairsRepeated *prometheus.CounterVec

	// Repository
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Persistence
	persistWrites  *prometheus.CounterVec
	persistLatency prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
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
		namespace:        "nameswap",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
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

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.votesRecorded = m.counterVec("votes_recorded_total", "Votes appended to the log by scope kind", "scope")
	m.votesRejected = m.counterVec("votes_rejected_total", "Votes rejected before reaching the log by reason", "reason")
	m.votesDuplicate = m.counter("votes_duplicate_total", "Vote submissions ignored because their submission id was already seen")

	m.replayDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "replay_duration_milliseconds",
		Help:        "Duration of scoped replays in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"scope"})
	m.replayVotes = m.counterVec("replay_votes_total", "Votes visited by replays by scope kind and result", "scope", "result")

	m.itemsTotal = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "items_total",
		Help:        "Items in the loaded universe by category",
		ConstLabels: m.constLabels,
	}, []string{"category"})
	m.groupsTotal = m.gauge("groups_total", "Groups known to the membership store")

	m.pairsSampled = m.counterVec("pairs_sampled_total", "Pairs offered for comparison by category", "category")
	m.pairsRepeated = m.counterVec("pairs_repeated_total", "Pairs that repeated the previous pair after retries ran out", "category")

	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Rating index update latency in milliseconds")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Rating index query latency in milliseconds")

	m.persistWrites = m.counterVec("persist_writes_total", "Writes to the persistence backend by key and result", "key", "result")
	m.persistLatency = m.histogram("persist_latency_milliseconds", "Persistence write latency in milliseconds")

	m.queueSize = m.gauge("queue_size", "Current size of the persistence queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the persistence queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Persistence queue utilization ratio (0-1)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Jobs enqueued for persistence")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Jobs dequeued for persistence")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs that could not be enqueued")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated by the process")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of running goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// RecordVote increments the recorded votes counter for a scope kind.
func RecordVote(scope string) {
	globalManager.votesRecorded.WithLabelValues(scope).Inc()
}

// RecordVoteRejected increments the rejected votes counter.
func RecordVoteRejected(reason string) {
	globalManager.votesRejected.WithLabelValues(reason).Inc()
}

// RecordVoteDuplicate increments the duplicate submissions counter.
func RecordVoteDuplicate() {
	globalManager.votesDuplicate.Inc()
}

// RecordReplay records one scoped replay.
func RecordReplay(scope string, durationMs float64, applied, skipped int) {
	globalManager.replayDuration.WithLabelValues(scope).Observe(durationMs)
	globalManager.replayVotes.WithLabelValues(scope, "applied").Add(float64(applied))
	globalManager.replayVotes.WithLabelValues(scope, "skipped").Add(float64(skipped))
}

// UpdateItemsTotal sets the number of items of a category.
func UpdateItemsTotal(category string, count int) {
	globalManager.itemsTotal.WithLabelValues(category).Set(float64(count))
}

// UpdateGroupsTotal sets the number of groups.
func UpdateGroupsTotal(count int) {
	globalManager.groupsTotal.Set(float64(count))
}

// RecordPairSampled counts an offered pair and whether it was a forced repeat.
func RecordPairSampled(category string, repeated bool) {
	globalManager.pairsSampled.WithLabelValues(category).Inc()
	if repeated {
		globalManager.pairsRepeated.WithLabelValues(category).Inc()
	}
}

// RecordRepositoryUpdateLatency records rating index update latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records rating index query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordPersistWrite counts a persistence write by key and result.
func RecordPersistWrite(key, result string) {
	globalManager.persistWrites.WithLabelValues(key, result).Inc()
}

// RecordPersistLatency records persistence write latency.
func RecordPersistLatency(latencyMs float64) {
	globalManager.persistLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
