// Package telemetry exposes prometheus metrics for the sync engine
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	SyncSuccesses    = prometheus.NewCounter(prometheus.CounterOpts{Name: "feedsync_sync_success_total", Help: "Provider sync cycles that succeeded"})
	SyncFailures     = prometheus.NewCounter(prometheus.CounterOpts{Name: "feedsync_sync_failure_total", Help: "Provider sync cycles that failed"})
	QuotaDenials     = prometheus.NewCounter(prometheus.CounterOpts{Name: "feedsync_quota_denied_total", Help: "Outbound reservations denied by the quota guard"})
	RateLimitRejects = prometheus.NewCounter(prometheus.CounterOpts{Name: "feedsync_rate_limit_rejects_total", Help: "Requests rejected by the inbound rate limiter"})
	JobsEnqueued     = prometheus.NewCounter(prometheus.CounterOpts{Name: "feedsync_jobs_enqueued_total", Help: "Background jobs enqueued"})
	JobsCompleted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "feedsync_jobs_completed_total", Help: "Background jobs completed successfully"})
	JobsFailed       = prometheus.NewCounter(prometheus.CounterOpts{Name: "feedsync_jobs_failed_total", Help: "Background jobs that failed"})
	JobRetries       = prometheus.NewCounter(prometheus.CounterOpts{Name: "feedsync_job_retries_total", Help: "Administrative job retries"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			SyncSuccesses,
			SyncFailures,
			QuotaDenials,
			RateLimitRejects,
			JobsEnqueued,
			JobsCompleted,
			JobsFailed,
			JobRetries,
		)
	})
	return promhttp.Handler()
}
