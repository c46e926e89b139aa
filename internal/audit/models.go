// Package audit captures who did what to which record. Lifecycle
// transitions and registry mutations emit events here; the approval trail on
// a degree record is the tamper-evident log, this stream is the operational
// one.
package audit

import "time"

// Action names an audited operation.
type Action string

const (
	ActionUniversityRegistered  Action = "university_registered"
	ActionUniversitySuspended   Action = "university_suspended"
	ActionUniversityReactivated Action = "university_reactivated"
	ActionStaffCreated          Action = "staff_created"
	ActionStaffUpdated          Action = "staff_updated"
	ActionStaffDeactivated      Action = "staff_deactivated"
	ActionStaffActivated        Action = "staff_activated"
	ActionEmployeeCreated       Action = "employee_created"
	ActionEmployeeUpdated       Action = "employee_updated"
	ActionEmployeeDeactivated   Action = "employee_deactivated"
	ActionDegreeIssued          Action = "degree_issued"
	ActionDegreeVerified        Action = "degree_verified"
	ActionDegreeAttested        Action = "degree_attested"
	ActionDegreeRejected        Action = "degree_rejected"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role,omitempty"`
	Action    Action    `json:"action"`
	EntityID  string    `json:"entity_id"`
	Scope     string    `json:"scope,omitempty"` // owning university, when applicable
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}
