package models

import (
	"strings"
	"time"

	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// ValidUniversityRole reports whether r is a role a university may assign.
func ValidUniversityRole(r domain.Role) bool {
	switch r {
	case domain.RoleVC, domain.RoleRegistrar, domain.RoleController,
		domain.RoleDean, domain.RoleHOD, domain.RoleAdmin:
		return true
	}
	return false
}

// StaffUser is a university staff member who can act on degree records.
//
// Invariants:
//   - UniversityID is immutable after creation
//   - Email is unique across the whole system (staff and HEC employees)
//   - Permissions are derived from Role by the authorization engine and
//     recomputed on every role change, never merged with the previous set
//   - Staff are deactivated, never deleted, so approval trail attribution
//     survives personnel changes
type StaffUser struct {
	ID           domain.StaffID      `json:"id"`
	UniversityID domain.UniversityID `json:"university_id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone,omitempty"`
	Role         domain.Role         `json:"role"`
	Department   string              `json:"department,omitempty"`
	Designation  string              `json:"designation,omitempty"`
	Permissions  []domain.Permission `json:"permissions"`
	Status       domain.ActorStatus  `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	CreatedBy    string              `json:"created_by"`
	UpdatedAt    time.Time           `json:"updated_at"`
	UpdatedBy    string              `json:"updated_by,omitempty"`
}

// NewStaffUser constructs an ACTIVE staff member. The permission set is
// supplied by the caller from authz.PermissionsFor; the model never invents
// capabilities.
func NewStaffUser(id domain.StaffID, universityID domain.UniversityID, name, email string, role domain.Role, perms []domain.Permission, createdBy string, now time.Time) (*StaffUser, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "staff name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if !ValidUniversityRole(role) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown staff role %q", role)
	}
	return &StaffUser{
		ID:           id,
		UniversityID: universityID,
		Name:         name,
		Email:        email,
		Role:         role,
		Permissions:  perms,
		Status:       domain.ActorActive,
		CreatedAt:    now,
		CreatedBy:    createdBy,
		UpdatedAt:    now,
	}, nil
}

// IsActive reports whether the staff member may act.
func (s *StaffUser) IsActive() bool { return s.Status == domain.ActorActive }

// ApplyRoleChange replaces the role and the whole permission set. The set
// must come from the authorization engine for the new role; merging with the
// old set would let privileges accumulate across role changes.
func (s *StaffUser) ApplyRoleChange(role domain.Role, perms []domain.Permission, by string, now time.Time) error {
	if !ValidUniversityRole(role) {
		return dErrors.Newf(dErrors.CodeValidation, "unknown staff role %q", role)
	}
	s.Role = role
	s.Permissions = perms
	s.UpdatedAt = now
	s.UpdatedBy = by
	return nil
}

// CanDeactivate checks the ACTIVE → INACTIVE transition.
func (s *StaffUser) CanDeactivate() error {
	if s.Status == domain.ActorInactive {
		return dErrors.New(dErrors.CodeInvariantViolation, "staff user is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions to INACTIVE. Past approval entries keep
// their attribution.
func (s *StaffUser) ApplyDeactivation(by string, now time.Time) {
	s.Status = domain.ActorInactive
	s.UpdatedAt = now
	s.UpdatedBy = by
}

// CanActivate checks the INACTIVE → ACTIVE transition.
func (s *StaffUser) CanActivate() error {
	if s.Status == domain.ActorActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "staff user is already active")
	}
	return nil
}

// ApplyActivation transitions to ACTIVE.
func (s *StaffUser) ApplyActivation(by string, now time.Time) {
	s.Status = domain.ActorActive
	s.UpdatedAt = now
	s.UpdatedBy = by
}

// Actor projects the staff member into the assertion shape services pass to
// the authorization engine.
func (s *StaffUser) Actor() domain.Actor {
	return domain.Actor{
		ID:           string(s.ID),
		OrgType:      domain.OrgUniversity,
		Role:         s.Role,
		UniversityID: s.UniversityID,
		Status:       s.Status,
		Permissions:  s.Permissions,
	}
}
