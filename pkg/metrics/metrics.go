package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EmailsSent counts scheduled emails dispatched successfully.
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_scheduled_emails_sent_total",
			Help: "Total scheduled emails sent",
		},
	)

	// EmailsFailed counts scheduled emails that ended in failed status.
	EmailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_scheduled_emails_failed_total",
			Help: "Total scheduled emails that failed to send",
		},
	)

	// ClaimConflicts counts due records already claimed by a concurrent pass.
	ClaimConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_dispatch_claim_conflicts_total",
			Help: "Total claim attempts lost to a concurrent dispatcher pass",
		},
	)

	// DispatchPasses counts completed dispatcher polling passes.
	DispatchPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_dispatch_passes_total",
			Help: "Total dispatcher polling passes",
		},
	)
)

// Init registers all collectors. Call once at startup.
func Init() {
	prometheus.MustRegister(EmailsSent, EmailsFailed, ClaimConflicts, DispatchPasses)
}
