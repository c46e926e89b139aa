package service

import (
	"context"
	"errors"
	"strings"

	"sanad/internal/allocator"
	"sanad/internal/audit"
	"sanad/internal/authz"
	"sanad/internal/registry/models"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/sentinel"
	"sanad/pkg/requestcontext"
)

// CreateStaffInput registers a staff member within one university.
type CreateStaffInput struct {
	Name        string
	Email       string
	Phone       string
	Role        domain.Role
	Department  string
	Designation string
}

// CreateStaffUser creates an ACTIVE staff account. University admins manage
// their own staff; the regulator may provision staff for any university,
// which covers bootstrapping a freshly registered one.
func (s *Service) CreateStaffUser(ctx context.Context, actor domain.Actor, universityID domain.UniversityID, input CreateStaffInput) (*models.StaffUser, error) {
	perm := domain.PermManageUsers
	if actor.IsHEC() {
		perm = domain.PermManageUniversities
	}
	if err := authz.Authorize(actor, perm, authz.Scope{UniversityID: universityID}); err != nil {
		return nil, err
	}
	if _, err := s.universities.FindByID(ctx, universityID); err != nil {
		return nil, wrapUniversityErr(err, universityID)
	}

	email := normalizeEmail(input.Email)
	if err := s.checkEmailAgainstEmployees(ctx, email); err != nil {
		return nil, err
	}

	seq, err := s.alloc.Next(ctx, allocator.StaffScope(universityID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate staff id")
	}
	perms := authz.PermissionsFor(domain.OrgUniversity, input.Role)
	u, err := models.NewStaffUser(
		allocator.FormatStaffID(universityID, seq),
		universityID,
		input.Name, email, input.Role, perms,
		actor.ID, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	u.Phone = strings.TrimSpace(input.Phone)
	u.Department = strings.TrimSpace(input.Department)
	u.Designation = strings.TrimSpace(input.Designation)

	if err := s.staff.CreateIfEmailAvailable(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "email %s is already registered", u.Email)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create staff user")
	}

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   audit.ActionStaffCreated,
		EntityID: string(u.ID),
		Scope:    string(universityID),
	})
	if s.metrics != nil {
		s.metrics.IncStaffCreated()
	}
	s.logger.InfoContext(ctx, "staff user created",
		"staff_id", u.ID,
		"university_id", universityID,
		"role", u.Role,
		"created_by", actor.ID,
	)
	return u, nil
}

// GetStaffUser returns one staff member. University actors only see their
// own university's staff; records outside their scope read as absent.
func (s *Service) GetStaffUser(ctx context.Context, actor domain.Actor, id domain.StaffID) (*models.StaffUser, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	u, err := s.staff.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStaffErr(err, id)
	}
	if !authz.CanRead(actor, authz.Scope{UniversityID: u.UniversityID}) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "staff user %s does not exist", id)
	}
	return u, nil
}

// GetStaffUserByEmail looks a staff member up by address. Same scoping as
// GetStaffUser: out-of-scope records read as absent.
func (s *Service) GetStaffUserByEmail(ctx context.Context, actor domain.Actor, email string) (*models.StaffUser, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	u, err := s.staff.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no staff user with email %s", email)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "staff directory lookup failed")
	}
	if !authz.CanRead(actor, authz.Scope{UniversityID: u.UniversityID}) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no staff user with email %s", email)
	}
	return u, nil
}

// ListStaffByUniversity returns a university's staff ordered by role then
// name.
func (s *Service) ListStaffByUniversity(ctx context.Context, actor domain.Actor, universityID domain.UniversityID) ([]*models.StaffUser, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !authz.CanRead(actor, authz.Scope{UniversityID: universityID}) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "university %s does not exist", universityID)
	}
	return s.staff.ListByUniversity(ctx, universityID)
}

// ListStaffByRole returns a university's active staff holding one role.
func (s *Service) ListStaffByRole(ctx context.Context, actor domain.Actor, universityID domain.UniversityID, role domain.Role) ([]*models.StaffUser, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !authz.CanRead(actor, authz.Scope{UniversityID: universityID}) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "university %s does not exist", universityID)
	}
	if !models.ValidUniversityRole(role) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown staff role %q", role)
	}
	return s.staff.ListByRole(ctx, universityID, role)
}

// UpdateStaffInput patches mutable staff fields. Zero values leave the
// current value in place. A role change replaces the permission set with the
// new role's grants.
type UpdateStaffInput struct {
	Name        string
	Phone       string
	Department  string
	Designation string
	Role        domain.Role
}

// UpdateStaffUser applies a patch to a staff member.
func (s *Service) UpdateStaffUser(ctx context.Context, actor domain.Actor, id domain.StaffID, input UpdateStaffInput) (*models.StaffUser, error) {
	universityID, err := s.staffScope(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	perm := domain.PermManageUsers
	if actor.IsHEC() {
		perm = domain.PermManageUniversities
	}
	if err := authz.Authorize(actor, perm, authz.Scope{UniversityID: universityID}); err != nil {
		return nil, err
	}
	if input.Role != "" && !models.ValidUniversityRole(input.Role) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown staff role %q", input.Role)
	}

	now := requestcontext.Now(ctx)
	u, err := s.staff.Execute(ctx, id,
		func(*models.StaffUser) error { return nil },
		func(u *models.StaffUser) {
			if input.Name != "" {
				u.Name = strings.TrimSpace(input.Name)
			}
			if input.Phone != "" {
				u.Phone = strings.TrimSpace(input.Phone)
			}
			if input.Department != "" {
				u.Department = strings.TrimSpace(input.Department)
			}
			if input.Designation != "" {
				u.Designation = strings.TrimSpace(input.Designation)
			}
			if input.Role != "" && input.Role != u.Role {
				perms := authz.PermissionsFor(domain.OrgUniversity, input.Role)
				_ = u.ApplyRoleChange(input.Role, perms, actor.ID, now)
			}
			u.UpdatedAt = now
			u.UpdatedBy = actor.ID
		},
	)
	if err != nil {
		return nil, wrapStaffErr(err, id)
	}

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   audit.ActionStaffUpdated,
		EntityID: string(id),
		Scope:    string(universityID),
	})
	return u, nil
}

// DeactivateStaffUser blocks the account from acting. The record is kept so
// approval entries keep their attribution.
func (s *Service) DeactivateStaffUser(ctx context.Context, actor domain.Actor, id domain.StaffID) (*models.StaffUser, error) {
	return s.setStaffStatus(ctx, actor, id, false)
}

// ActivateStaffUser restores a deactivated account.
func (s *Service) ActivateStaffUser(ctx context.Context, actor domain.Actor, id domain.StaffID) (*models.StaffUser, error) {
	return s.setStaffStatus(ctx, actor, id, true)
}

func (s *Service) setStaffStatus(ctx context.Context, actor domain.Actor, id domain.StaffID, active bool) (*models.StaffUser, error) {
	universityID, err := s.staffScope(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	perm := domain.PermManageUsers
	if actor.IsHEC() {
		perm = domain.PermManageUniversities
	}
	if err := authz.Authorize(actor, perm, authz.Scope{UniversityID: universityID}); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	action := audit.ActionStaffDeactivated
	if active {
		action = audit.ActionStaffActivated
	}
	u, err := s.staff.Execute(ctx, id,
		func(u *models.StaffUser) error {
			if active {
				return u.CanActivate()
			}
			return u.CanDeactivate()
		},
		func(u *models.StaffUser) {
			if active {
				u.ApplyActivation(actor.ID, now)
			} else {
				u.ApplyDeactivation(actor.ID, now)
			}
		},
	)
	if err != nil {
		return nil, wrapStaffErr(err, id)
	}

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   action,
		EntityID: string(id),
		Scope:    string(universityID),
	})
	s.logger.InfoContext(ctx, "staff status changed",
		"staff_id", id,
		"status", u.Status,
		"changed_by", actor.ID,
	)
	return u, nil
}

// staffScope resolves the university a staff record belongs to. Records a
// university actor has no read access to are reported as absent, not
// forbidden, so probing for IDs leaks nothing.
func (s *Service) staffScope(ctx context.Context, actor domain.Actor, id domain.StaffID) (domain.UniversityID, error) {
	if actor.ID == "" || !actor.IsActive() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	u, err := s.staff.FindByID(ctx, id)
	if err != nil {
		return "", wrapStaffErr(err, id)
	}
	if !authz.CanRead(actor, authz.Scope{UniversityID: u.UniversityID}) {
		return "", dErrors.Newf(dErrors.CodeNotFound, "staff user %s does not exist", id)
	}
	return u.UniversityID, nil
}

// checkEmailAgainstEmployees enforces email uniqueness across the two
// account directories. Each store guards its own set atomically; this
// pre-check closes the cross-directory gap for all but a same-instant race,
// which the regulator's small provisioning volume makes acceptable.
func (s *Service) checkEmailAgainstEmployees(ctx context.Context, email string) error {
	_, err := s.employees.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return dErrors.Newf(dErrors.CodeConflict, "email %s is already registered", email)
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "employee directory lookup failed")
	}
}

func (s *Service) checkEmailAgainstStaff(ctx context.Context, email string) error {
	_, err := s.staff.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return dErrors.Newf(dErrors.CodeConflict, "email %s is already registered", email)
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "staff directory lookup failed")
	}
}

func wrapStaffErr(err error, id domain.StaffID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "staff user %s does not exist", id)
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "staff store failure")
	}
}
