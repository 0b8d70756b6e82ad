// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts read-through cache lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_lookups_total",
		Help: "Cache lookups by key family and result (hit, miss, error)",
	}, []string{"family", "result"})

	// ModerationBlocks counts entities flipped to blocked by the profanity filter.
	ModerationBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_moderation_blocks_total",
		Help: "Content items blocked by the moderation filter",
	}, []string{"entity"})

	// ModerationScoreLatency records how long scoring a text takes.
	ModerationScoreLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inkwell_moderation_score_seconds",
		Help:    "Time spent scoring a single text for profanity",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	// JobsEnqueued counts delayed jobs pushed to the queue.
	JobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_jobs_enqueued_total",
		Help: "Delayed jobs enqueued by name",
	}, []string{"job"})

	// JobsProcessed counts executed jobs by name and outcome.
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_jobs_processed_total",
		Help: "Delayed jobs executed by name and outcome (ok, failed, unknown)",
	}, []string{"job", "outcome"})

	// JobLag records the delay between a job's due time and its execution.
	JobLag = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_job_lag_seconds",
		Help:    "Seconds between a job becoming due and being picked up",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	// AuthFailures counts rejected authentication attempts by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_auth_failures_total",
		Help: "Rejected authentication attempts by reason",
	}, []string{"reason"})
)

// ObserveSince records the elapsed time since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
