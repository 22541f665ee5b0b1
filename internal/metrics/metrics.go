package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guru_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guru_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
		[]string{"method", "route"},
	)

	// Chat metrics
	ChatStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guru_chat_streams_total",
			Help: "Chat streams by outcome",
		},
		[]string{"outcome"}, // "completed", "cancelled", "rejected"
	)

	ChatChunksEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guru_chat_chunks_emitted_total",
			Help: "Total stream chunks emitted, sentinels included",
		},
	)

	ChatGenerationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guru_chat_generation_failures_total",
			Help: "Character replies that fell back after a generator error",
		},
	)

	AssistantPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guru_assistant_persist_failures_total",
			Help: "Assistant messages that could not be stored",
		},
	)

	// News metrics
	NewsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guru_news_cache_lookups_total",
			Help: "News cache lookups",
		},
		[]string{"result"}, // "hit" or "miss"
	)
)
