package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module. Tracks directory
// growth across the regulator and the universities it oversees.
type Metrics struct {
	UniversitiesRegistered prometheus.Counter
	UniversitiesSuspended  prometheus.Counter
	StaffCreated           prometheus.Counter
	EmployeesCreated       prometheus.Counter
}

// New creates a Metrics instance with all registry module metrics registered.
func New() *Metrics {
	return &Metrics{
		UniversitiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_universities_registered_total",
			Help: "Total number of universities registered",
		}),
		UniversitiesSuspended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_universities_suspended_total",
			Help: "Total number of university suspensions",
		}),
		StaffCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_staff_created_total",
			Help: "Total number of university staff accounts created",
		}),
		EmployeesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sanad_employees_created_total",
			Help: "Total number of regulator employee accounts created",
		}),
	}
}

// IncUniversitiesRegistered records a successful university registration.
func (m *Metrics) IncUniversitiesRegistered() {
	m.UniversitiesRegistered.Inc()
}

// IncUniversitiesSuspended records a university suspension.
func (m *Metrics) IncUniversitiesSuspended() {
	m.UniversitiesSuspended.Inc()
}

// IncStaffCreated records a staff account creation.
func (m *Metrics) IncStaffCreated() {
	m.StaffCreated.Inc()
}

// IncEmployeesCreated records an employee account creation.
func (m *Metrics) IncEmployeesCreated() {
	m.EmployeesCreated.Inc()
}
