package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Transitions by source (vendor, admin), resulting status and whether
	// the status actually changed
	Transitions *prometheus.CounterVec

	// Webhook deliveries by result: processed, noop, unknown_session,
	// signature_invalid, malformed, error
	Webhooks *prometheus.CounterVec

	VendorLatency *prometheus.HistogramVec

	ConflictRetries    prometheus.Counter
	ProjectionFailures prometheus.Counter
	Submissions        *prometheus.CounterVec
}

// New registers every metric with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_transitions_total",
			Help: "Verification decisions by source, resulting status and applied flag",
		}, []string{"source", "status", "applied"}),

		Webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_webhooks_total",
			Help: "Vendor webhook deliveries by result",
		}, []string{"result"}),

		VendorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verification_vendor_request_duration_seconds",
			Help:    "Duration of vendor API calls by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "result"}),

		ConflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "verification_conflict_retries_total",
			Help: "Transitions retried after an optimistic lock conflict",
		}),

		ProjectionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "verification_eligibility_projection_failures_total",
			Help: "Committed decisions whose eligibility projection failed",
		}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_submissions_total",
			Help: "Verification submissions by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncTransition(source, status string, applied bool) {
	if m != nil {
		a := "true"
		if !applied {
			a = "false"
		}
		m.Transitions.WithLabelValues(source, status, a).Inc()
	}
}

func (m *Metrics) IncWebhook(result string) {
	if m != nil {
		m.Webhooks.WithLabelValues(result).Inc()
	}
}

// ObserveVendor records the duration of one vendor API call.
func (m *Metrics) ObserveVendor(operation string, err error, d time.Duration) {
	if m != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		m.VendorLatency.WithLabelValues(operation, result).Observe(d.Seconds())
	}
}

func (m *Metrics) IncConflictRetry() {
	if m != nil {
		m.ConflictRetries.Inc()
	}
}

func (m *Metrics) IncProjectionFailure() {
	if m != nil {
		m.ProjectionFailures.Inc()
	}
}

func (m *Metrics) IncSubmission(result string) {
	if m != nil {
		m.Submissions.WithLabelValues(result).Inc()
	}
}
