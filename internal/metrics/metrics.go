package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitedTotal    *prometheus.CounterVec

	// Cache metrics, labelled by cache name (post, profile)
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// Latest posts window
	LatestWindowHits     prometheus.Counter
	LatestWindowMisses   prometheus.Counter
	LatestWindowRebuilds prometheus.Counter
	LatestWindowSize     prometheus.Gauge

	// Reply trees
	ReplyScans       prometheus.Counter
	VersionConflicts prometheus.Counter

	// Background tasks
	CleanupRemovedTotal *prometheus.CounterVec
	TaskRunsTotal       *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			RateLimitedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_rate_limited_total",
					Help: "Requests rejected by a rate limiter",
				},
				[]string{"limiter"},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of entity cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of entity cache misses",
				},
				[]string{"cache"},
			),
			CacheErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_errors_total",
					Help: "Cache backend failures, all of which were downgraded to a miss or skipped write",
				},
				[]string{"cache", "operation"},
			),

			LatestWindowHits: promauto.NewCounter(prometheus.CounterOpts{
				Name: "latest_window_hits_total",
				Help: "Latest posts pages served from the in-process window",
			}),
			LatestWindowMisses: promauto.NewCounter(prometheus.CounterOpts{
				Name: "latest_window_misses_total",
				Help: "Latest posts pages served from the database",
			}),
			LatestWindowRebuilds: promauto.NewCounter(prometheus.CounterOpts{
				Name: "latest_window_rebuilds_total",
				Help: "Times the latest posts window was refilled from the database",
			}),
			LatestWindowSize: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "latest_window_size",
				Help: "Posts currently held in the latest posts window",
			}),

			ReplyScans: promauto.NewCounter(prometheus.CounterOpts{
				Name: "reply_owner_scans_total",
				Help: "Full scans over comment reply trees to locate a reply",
			}),
			VersionConflicts: promauto.NewCounter(prometheus.CounterOpts{
				Name: "comment_replies_version_conflicts_total",
				Help: "Conditional replaces of a reply tree that lost a race and were retried",
			}),

			CleanupRemovedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cleanup_removed_total",
					Help: "Rows removed by the cleanup task",
				},
				[]string{"kind"},
			),
			TaskRunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "task_runs_total",
					Help: "Background task runs by outcome",
				},
				[]string{"task", "outcome"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, registering it on first use
func Get() *Metrics {
	return Initialize()
}
