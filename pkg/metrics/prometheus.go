// Package metrics provides Prometheus metrics for the apuntia service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Business metrics
	notesCreated  prometheus.Counter
	votes         prometheus.Counter
	noteDownloads prometheus.Counter

	// Ranking metrics
	rankingRequests    *prometheus.CounterVec
	rankingLatency     prometheus.Histogram
	rankingCacheHits   prometheus.Counter
	rankingCacheMisses prometheus.Counter

	// Moderation metrics
	moderationTransitions *prometheus.CounterVec
	reportsFiled          prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// Operational gauges
	totalNotes           prometheus.Gauge
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "apuntia",
		subsystem:        "notes",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.notesCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notes_created_total",
		Help:      "Total number of notes created",
	})

	m.votes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_total",
		Help:      "Total number of rating votes accepted (including revotes)",
	})

	m.noteDownloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "note_downloads_total",
		Help:      "Total number of note downloads recorded",
	})

	m.rankingRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "ranking_requests_total",
			Help:      "Total number of ranking computations by metric",
		},
		[]string{"metric"},
	)

	m.rankingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_latency_milliseconds",
		Help:      "Histogram of ranking computation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.rankingCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_cache_hits_total",
		Help:      "Total number of ranking responses served from cache",
	})

	m.rankingCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_cache_misses_total",
		Help:      "Total number of ranking cache misses",
	})

	m.moderationTransitions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "moderation_transitions_total",
			Help:      "Total number of moderation state transitions by entity and target state",
		},
		[]string{"entity", "to_state"},
	)

	m.reportsFiled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_filed_total",
		Help:      "Total number of content reports filed",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "type"},
	)

	m.totalNotes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_notes",
		Help:      "Total number of notes in the store",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording on the global manager.

// RecordNoteCreated counts a created note.
func RecordNoteCreated() {
	if globalManager.enabled {
		globalManager.notesCreated.Inc()
	}
}

// RecordVote counts an accepted rating vote.
func RecordVote() {
	if globalManager.enabled {
		globalManager.votes.Inc()
	}
}

// RecordNoteDownload counts a note download.
func RecordNoteDownload() {
	if globalManager.enabled {
		globalManager.noteDownloads.Inc()
	}
}

// RecordRankingRequest counts a ranking computation for a metric.
func RecordRankingRequest(metric string) {
	if globalManager.enabled {
		globalManager.rankingRequests.WithLabelValues(metric).Inc()
	}
}

// RecordRankingLatency observes a ranking computation duration.
func RecordRankingLatency(ms float64) {
	if globalManager.enabled {
		globalManager.rankingLatency.Observe(ms)
	}
}

// RecordRankingCacheHit counts a ranking response served from cache.
func RecordRankingCacheHit() {
	if globalManager.enabled {
		globalManager.rankingCacheHits.Inc()
	}
}

// RecordRankingCacheMiss counts a ranking cache miss.
func RecordRankingCacheMiss() {
	if globalManager.enabled {
		globalManager.rankingCacheMisses.Inc()
	}
}

// RecordModerationTransition counts a state change for a note or comment.
func RecordModerationTransition(entity, toState string) {
	if globalManager.enabled {
		globalManager.moderationTransitions.WithLabelValues(entity, toState).Inc()
	}
}

// RecordReportFiled counts a filed content report.
func RecordReportFiled() {
	if globalManager.enabled {
		globalManager.reportsFiled.Inc()
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
	}
}

// RecordErrorByComponent counts an error for a component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateTotalNotes sets the note count gauge.
func UpdateTotalNotes(n int) {
	if globalManager.enabled {
		globalManager.totalNotes.Set(float64(n))
	}
}

// UpdateSystemMemoryUsage sets the allocated-memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(n))
	}
}
