package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the degree lifecycle. Issue duration
// sits on the critical path for bulk convocation uploads, so it gets a
// histogram; the transitions are plain counters.
type Metrics struct {
	Issued        prometheus.Counter
	Verified      prometheus.Counter
	Attested      prometheus.Counter
	Rejected      prometheus.Counter
	IssueDuration prometheus.Histogram
}

// New creates a Metrics instance with all degree module metrics registered.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_degrees_issued_total",
			Help: "Total number of degree records issued",
		}),
		Verified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_degrees_verified_total",
			Help: "Total number of degree records verified",
		}),
		Attested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_degrees_attested_total",
			Help: "Total number of degree records attested by the regulator",
		}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_degrees_rejected_total",
			Help: "Total number of degree records rejected",
		}),
		IssueDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sanad_degree_issue_duration_seconds",
			Help:    "Duration of IssueDegree operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncIssued records a successful issuance.
func (m *Metrics) IncIssued() { m.Issued.Inc() }

// IncVerified records a successful verification.
func (m *Metrics) IncVerified() { m.Verified.Inc() }

// IncAttested records a successful attestation.
func (m *Metrics) IncAttested() { m.Attested.Inc() }

// IncRejected records a rejection.
func (m *Metrics) IncRejected() { m.Rejected.Inc() }

// ObserveIssue records the duration of an IssueDegree operation. Call with
// time.Now() captured at the start.
func (m *Metrics) ObserveIssue(start time.Time) {
	m.IssueDuration.Observe(time.Since(start).Seconds())
}
