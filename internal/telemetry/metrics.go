package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsCompleted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_jobs_completed_total", Help: "Campaign jobs finished with all recipients handled"})
	JobsFailed       = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_jobs_failed_total", Help: "Campaign jobs that ended in terminal failure"})
	JobsRetried      = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_jobs_retried_total", Help: "Retry attempts scheduled for campaign jobs"})
	JobsTimedOut     = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_jobs_timed_out_total", Help: "Claimed jobs rescheduled after exceeding the processing timeout"})
	ClaimsLost       = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_claims_lost_total", Help: "Claim attempts that lost the race to another worker"})
	RecipientsSent   = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_recipients_sent_total", Help: "Recipients successfully handed to a provider"})
	RecipientsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_recipients_failed_total", Help: "Recipients rejected by a provider"})
	FailoverAttempts = prometheus.NewCounter(prometheus.CounterOpts{Name: "campaign_failover_attempts_total", Help: "WhatsApp provider attempts that produced zero successes"})
)

// Handler exposes /metrics with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsCompleted,
			JobsFailed,
			JobsRetried,
			JobsTimedOut,
			ClaimsLost,
			RecipientsSent,
			RecipientsFailed,
			FailoverAttempts,
		)
	})
	return promhttp.Handler()
}
