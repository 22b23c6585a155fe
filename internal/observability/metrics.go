package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the verification flow and the
// report feed.
type Metrics struct {
	CodesIssued    prometheus.Counter
	IssueFailures  *prometheus.CounterVec // labels: reason={validation,lookup,storage}
	Redemptions    *prometheus.CounterVec // labels: outcome={success,not_found,expired,mismatch,error}
	StatusPolls    *prometheus.CounterVec // labels: outcome={pending,verified,not_found}
	ReportsCreated prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		CodesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathercraft",
			Name:      "verification_codes_issued_total",
			Help:      "Total verification codes issued.",
		}),
		IssueFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weathercraft",
			Name:      "verification_issue_failures_total",
			Help:      "Failed issuance attempts by reason.",
		}, []string{"reason"}),
		Redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weathercraft",
			Name:      "verification_redemptions_total",
			Help:      "Webhook redemption attempts by outcome.",
		}, []string{"outcome"}),
		StatusPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weathercraft",
			Name:      "verification_status_polls_total",
			Help:      "Status poll requests by outcome.",
		}, []string{"outcome"}),
		ReportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathercraft",
			Name:      "reports_created_total",
			Help:      "Total weather reports submitted.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CodesIssued,
		m.IssueFailures,
		m.Redemptions,
		m.StatusPolls,
		m.ReportsCreated,
	)
	return m
}

// NewMetricsForTesting creates Metrics backed by unregistered collectors so
// parallel tests don't collide on the default registry.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
