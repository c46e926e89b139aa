package publicverify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts public verification outcomes. The not-verified counter is
// the one to alert on; a spike usually means someone is enumerating IDs.
type Metrics struct {
	Verified    prometheus.Counter
	NotVerified prometheus.Counter
	RateLimited prometheus.Counter
}

// NewMetrics creates a Metrics instance with all counters registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Verified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_public_verify_success_total",
			Help: "Total number of successful public verifications",
		}),
		NotVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_public_verify_failure_total",
			Help: "Total number of failed public verifications",
		}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_public_verify_rate_limited_total",
			Help: "Total number of rate limited public verification attempts",
		}),
	}
}

// IncVerified records a successful verification.
func (m *Metrics) IncVerified() { m.Verified.Inc() }

// IncNotVerified records a failed verification.
func (m *Metrics) IncNotVerified() { m.NotVerified.Inc() }

// IncRateLimited records a throttled attempt.
func (m *Metrics) IncRateLimited() { m.RateLimited.Inc() }
