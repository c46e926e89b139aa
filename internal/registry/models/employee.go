package models

import (
	"strings"
	"time"

	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// ValidEmployeeRole reports whether r is a role the regulator may assign.
func ValidEmployeeRole(r domain.Role) bool {
	return r == domain.RoleAdmin || r == domain.RoleEmployee
}

// Employee is HEC staff: same shape as StaffUser but regulator-scoped, so it
// carries no university and a narrower role set.
type Employee struct {
	ID          domain.EmployeeID   `json:"id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone,omitempty"`
	Role        domain.Role         `json:"role"`
	Department  string              `json:"department,omitempty"`
	Permissions []domain.Permission `json:"permissions"`
	Status      domain.ActorStatus  `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	CreatedBy   string              `json:"created_by"`
	UpdatedAt   time.Time           `json:"updated_at"`
	UpdatedBy   string              `json:"updated_by,omitempty"`
}

// NewEmployee constructs an ACTIVE HEC employee.
func NewEmployee(id domain.EmployeeID, name, email string, role domain.Role, perms []domain.Permission, createdBy string, now time.Time) (*Employee, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "employee name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if !ValidEmployeeRole(role) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown employee role %q", role)
	}
	return &Employee{
		ID:          id,
		Name:        name,
		Email:       email,
		Role:        role,
		Permissions: perms,
		Status:      domain.ActorActive,
		CreatedAt:   now,
		CreatedBy:   createdBy,
		UpdatedAt:   now,
	}, nil
}

// IsActive reports whether the employee may act.
func (e *Employee) IsActive() bool { return e.Status == domain.ActorActive }

// CanDeactivate checks the ACTIVE → INACTIVE transition.
func (e *Employee) CanDeactivate() error {
	if e.Status == domain.ActorInactive {
		return dErrors.New(dErrors.CodeInvariantViolation, "employee is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions to INACTIVE.
func (e *Employee) ApplyDeactivation(by string, now time.Time) {
	e.Status = domain.ActorInactive
	e.UpdatedAt = now
	e.UpdatedBy = by
}

// Actor projects the employee into the assertion shape for authorization.
func (e *Employee) Actor() domain.Actor {
	return domain.Actor{
		ID:          string(e.ID),
		OrgType:     domain.OrgHEC,
		Role:        e.Role,
		Status:      e.Status,
		Permissions: e.Permissions,
	}
}
