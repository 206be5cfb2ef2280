// Package metrics provides Prometheus instrumentation for the bot core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Queue metrics
	QueueDepth          prometheus.Gauge
	QueueAdmissionTotal *prometheus.CounterVec

	// Orchestration metrics
	SourceAttemptsTotal *prometheus.CounterVec
	ResponsePathTotal   *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	RefreshSeconds   *prometheus.HistogramVec

	// LLM metrics
	LLMCallsTotal   *prometheus.CounterVec
	LLMRetriesTotal *prometheus.CounterVec

	// Session metrics
	ActiveSessions prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportbot_webhook_requests_total",
				Help: "Total number of webhook events by type and status",
			},
			[]string{"event_type", "status"},
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "supportbot_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"event_type"},
		),

		QueueDepth: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "supportbot_queue_depth",
				Help: "Current number of requests waiting in the sequencer",
			},
		),

		QueueAdmissionTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportbot_queue_admission_total",
				Help: "Queue admission decisions",
			},
			[]string{"decision"}, // accepted, rejected
		),

		SourceAttemptsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportbot_source_attempts_total",
				Help: "Answer-source attempts by source and outcome",
			},
			[]string{"source", "outcome"}, // outcome: accepted, rejected, error
		),

		ResponsePathTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportbot_response_path_total",
				Help: "Which orchestration path produced the final response",
			},
			[]string{"path"}, // keyword, document, generative, heuristic, default
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportbot_cache_hits_total",
				Help: "Total number of cache hits by store",
			},
			[]string{"store"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportbot_cache_misses_total",
				Help: "Total number of cache misses by store",
			},
			[]string{"store"},
		),

		RefreshSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "supportbot_refresh_duration_seconds",
				Help:    "Data source refresh duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"store"},
		),

		LLMCallsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportbot_llm_calls_total",
				Help: "LLM API calls by provider, operation and status",
			},
			[]string{"provider", "operation", "status"},
		),

		LLMRetriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportbot_llm_retries_total",
				Help: "LLM retry attempts by provider and reason",
			},
			[]string{"provider", "reason"},
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "supportbot_active_sessions",
				Help: "Number of live user sessions",
			},
		),
	}
}

// RecordWebhook records a webhook event observation.
func (m *Metrics) RecordWebhook(eventType, status string, seconds float64) {
	if m == nil {
		return
	}
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	if seconds > 0 {
		m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(seconds)
	}
}

// RecordSourceAttempt records one source attempt outcome.
func (m *Metrics) RecordSourceAttempt(source, outcome string) {
	if m == nil {
		return
	}
	m.SourceAttemptsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordResponsePath records which pipeline path answered.
func (m *Metrics) RecordResponsePath(path string) {
	if m == nil {
		return
	}
	m.ResponsePathTotal.WithLabelValues(path).Inc()
}

// RecordCacheHit records a cache hit for the named store.
func (m *Metrics) RecordCacheHit(store string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(store).Inc()
}

// RecordCacheMiss records a cache miss for the named store.
func (m *Metrics) RecordCacheMiss(store string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(store).Inc()
}

// RecordRefresh records a refresh duration for the named store.
func (m *Metrics) RecordRefresh(store string, seconds float64) {
	if m == nil {
		return
	}
	m.RefreshSeconds.WithLabelValues(store).Observe(seconds)
}

// RecordLLMCall records an LLM call outcome.
func (m *Metrics) RecordLLMCall(provider, operation, status string) {
	if m == nil {
		return
	}
	m.LLMCallsTotal.WithLabelValues(provider, operation, status).Inc()
}

// RecordLLMRetry records an LLM retry attempt.
func (m *Metrics) RecordLLMRetry(provider, reason string) {
	if m == nil {
		return
	}
	m.LLMRetriesTotal.WithLabelValues(provider, reason).Inc()
}

// SetQueueDepth updates the queue depth gauge.
func (m *Metrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}

// RecordAdmission records a queue admission decision.
func (m *Metrics) RecordAdmission(decision string) {
	if m == nil {
		return
	}
	m.QueueAdmissionTotal.WithLabelValues(decision).Inc()
}

// SetActiveSessions updates the live session gauge.
func (m *Metrics) SetActiveSessions(count int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(count))
}
