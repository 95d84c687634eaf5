// Package metrics defines the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TMDBCacheHits counts TMDB responses served from the cache.
	TMDBCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelog_tmdb_cache_hits_total",
		Help: "TMDB responses served from the cache.",
	})

	// TMDBCacheMisses counts TMDB lookups that required an upstream call.
	TMDBCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelog_tmdb_cache_misses_total",
		Help: "TMDB lookups that went upstream.",
	})

	// TMDBUpstreamErrors counts failed upstream TMDB calls, labelled by kind
	// (rate_limited, transport, status).
	TMDBUpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelog_tmdb_upstream_errors_total",
		Help: "Failed upstream TMDB calls.",
	}, []string{"kind"})

	// RuntimeResolutions counts runtime-resolver outcomes, labelled by source
	// (movie, cache, upstream, missing).
	RuntimeResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelog_runtime_resolutions_total",
		Help: "Movie runtime resolutions by source.",
	}, []string{"source"})

	// StatsDuration observes aggregation latency per operation.
	StatsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelog_stats_duration_seconds",
		Help:    "Statistics aggregation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// HTTPRequests counts handled HTTP requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelog_http_requests_total",
		Help: "Handled HTTP requests.",
	}, []string{"route", "status"})
)
