package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncTransition("vendor", "approved", true)
		m.IncWebhook("processed")
		m.ObserveVendor("create_session", nil, time.Second)
		m.IncConflictRetry()
		m.IncProjectionFailure()
		m.IncSubmission("ok")
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncTransition("admin", "rejected", true)
	m.IncTransition("vendor", "approved", false)
	m.IncWebhook("signature_invalid")
	m.IncConflictRetry()
	m.ObserveVendor("create_session", errors.New("down"), 10*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Transitions.WithLabelValues("admin", "rejected", "true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Transitions.WithLabelValues("vendor", "approved", "false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Webhooks.WithLabelValues("signature_invalid")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ConflictRetries), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.VendorLatency))
}
