package models

import (
	"strings"
	"time"

	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// UniversityType is the charter category assigned by the regulator.
type UniversityType string

const (
	TypePublic         UniversityType = "PUBLIC"
	TypePrivate        UniversityType = "PRIVATE"
	TypeSemiGovernment UniversityType = "SEMI_GOVERNMENT"
)

// ValidUniversityType reports whether t is a known charter category.
func ValidUniversityType(t UniversityType) bool {
	switch t {
	case TypePublic, TypePrivate, TypeSemiGovernment:
		return true
	}
	return false
}

// UniversityStatus is the regulator-controlled operational status.
type UniversityStatus string

const (
	UniversityActive    UniversityStatus = "ACTIVE"
	UniversitySuspended UniversityStatus = "SUSPENDED"
)

// Address locates a university's main campus.
type Address struct {
	Street   string `json:"street,omitempty"`
	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
}

// Contact holds the university's administrative contact points.
type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website,omitempty"`
}

// Department is a sub-entity owned by its university; it has no independent
// lifecycle beyond creation.
type Department struct {
	ID        domain.DepartmentID `json:"id"`
	Name      string              `json:"name"`
	Code      string              `json:"code"`
	Faculty   string              `json:"faculty"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// University is the aggregate root for a subordinate organization.
//
// Invariants:
//   - Code is unique system-wide, uppercase, immutable after registration
//   - Status transitions: ACTIVE ↔ SUSPENDED only
//   - A SUSPENDED university cannot be the issuer of a new degree; this is
//     enforced at the degree service, not by cascading into degree records
//   - Departments is append-ordered; departments are never removed
//   - Universities are never deleted
type University struct {
	ID               domain.UniversityID `json:"id"`
	Code             string              `json:"code"`
	Name             string              `json:"name"`
	Type             UniversityType      `json:"type"`
	Charter          string              `json:"charter,omitempty"`
	Address          Address             `json:"address"`
	Contact          Contact             `json:"contact"`
	EstablishedYear  int                 `json:"established_year,omitempty"`
	Status           UniversityStatus    `json:"status"`
	SuspensionReason string              `json:"suspension_reason,omitempty"`
	Departments      []Department        `json:"departments"`
	CreatedAt        time.Time           `json:"created_at"`
	CreatedBy        string              `json:"created_by"`
	UpdatedAt        time.Time           `json:"updated_at"`
	UpdatedBy        string              `json:"updated_by,omitempty"`
}

// NewUniversity constructs an ACTIVE university. Callers supply an
// allocator-issued ID and a pre-validated payload; this enforces the
// aggregate's own invariants only.
func NewUniversity(id domain.UniversityID, code, name string, utype UniversityType, createdBy string, now time.Time) (*University, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "university code is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "university name is required")
	}
	if !ValidUniversityType(utype) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown university type %q", utype)
	}
	return &University{
		ID:          id,
		Code:        code,
		Name:        name,
		Type:        utype,
		Status:      UniversityActive,
		Departments: []Department{},
		CreatedAt:   now,
		CreatedBy:   createdBy,
		UpdatedAt:   now,
	}, nil
}

// IsActive reports whether the university may issue new degrees.
func (u *University) IsActive() bool { return u.Status == UniversityActive }

// CanSuspend checks the ACTIVE → SUSPENDED transition.
func (u *University) CanSuspend() error {
	if u.Status == UniversitySuspended {
		return dErrors.New(dErrors.CodeInvariantViolation, "university is already suspended")
	}
	return nil
}

// ApplySuspension transitions to SUSPENDED. Call CanSuspend first.
func (u *University) ApplySuspension(reason, by string, now time.Time) {
	u.Status = UniversitySuspended
	u.SuspensionReason = reason
	u.UpdatedAt = now
	u.UpdatedBy = by
}

// CanReactivate checks the SUSPENDED → ACTIVE transition.
func (u *University) CanReactivate() error {
	if u.Status == UniversityActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "university is already active")
	}
	return nil
}

// ApplyReactivation transitions to ACTIVE and clears the suspension reason.
func (u *University) ApplyReactivation(by string, now time.Time) {
	u.Status = UniversityActive
	u.SuspensionReason = ""
	u.UpdatedAt = now
	u.UpdatedBy = by
}

// CanAddDepartment checks department code uniqueness within the university.
func (u *University) CanAddDepartment(code string) error {
	for _, existing := range u.Departments {
		if strings.EqualFold(existing.Code, code) {
			return dErrors.Newf(dErrors.CodeConflict, "department code %s already exists", code)
		}
	}
	return nil
}

// ApplyDepartment appends a department. Call CanAddDepartment first.
func (u *University) ApplyDepartment(dept Department) {
	u.Departments = append(u.Departments, dept)
	u.UpdatedAt = dept.CreatedAt
}
