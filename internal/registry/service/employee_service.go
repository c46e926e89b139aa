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

// CreateEmployeeInput registers a regulator employee.
type CreateEmployeeInput struct {
	Name       string
	Email      string
	Phone      string
	Role       domain.Role
	Department string
}

// CreateEmployee creates an ACTIVE HEC employee account. Regulator admins
// only.
func (s *Service) CreateEmployee(ctx context.Context, actor domain.Actor, input CreateEmployeeInput) (*models.Employee, error) {
	if err := authz.Authorize(actor, domain.PermManageEmployees, authz.Global); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	if err := s.checkEmailAgainstStaff(ctx, email); err != nil {
		return nil, err
	}

	seq, err := s.alloc.Next(ctx, allocator.ScopeEmployee)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate employee id")
	}
	perms := authz.PermissionsFor(domain.OrgHEC, input.Role)
	e, err := models.NewEmployee(
		allocator.FormatEmployeeID(seq),
		input.Name, email, input.Role, perms,
		actor.ID, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	e.Phone = strings.TrimSpace(input.Phone)
	e.Department = strings.TrimSpace(input.Department)

	if err := s.employees.CreateIfEmailAvailable(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "email %s is already registered", e.Email)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create employee")
	}

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   audit.ActionEmployeeCreated,
		EntityID: string(e.ID),
	})
	if s.metrics != nil {
		s.metrics.IncEmployeesCreated()
	}
	s.logger.InfoContext(ctx, "employee created",
		"employee_id", e.ID,
		"role", e.Role,
		"created_by", actor.ID,
	)
	return e, nil
}

// GetEmployee returns one regulator employee. Regulator actors only.
func (s *Service) GetEmployee(ctx context.Context, actor domain.Actor, id domain.EmployeeID) (*models.Employee, error) {
	if err := authz.Authorize(actor, domain.PermViewAll, authz.Global); err != nil {
		return nil, err
	}
	e, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return nil, wrapEmployeeErr(err, id)
	}
	return e, nil
}

// ListEmployees returns the regulator's employee directory ordered by ID.
func (s *Service) ListEmployees(ctx context.Context, actor domain.Actor) ([]*models.Employee, error) {
	if err := authz.Authorize(actor, domain.PermViewAll, authz.Global); err != nil {
		return nil, err
	}
	return s.employees.List(ctx)
}

// UpdateEmployeeInput patches mutable employee fields. Zero values leave the
// current value in place. A role change replaces the permission set with the
// new role's grants.
type UpdateEmployeeInput struct {
	Name       string
	Phone      string
	Department string
	Role       domain.Role
}

// UpdateEmployee applies a patch to a regulator employee.
func (s *Service) UpdateEmployee(ctx context.Context, actor domain.Actor, id domain.EmployeeID, input UpdateEmployeeInput) (*models.Employee, error) {
	if err := authz.Authorize(actor, domain.PermManageEmployees, authz.Global); err != nil {
		return nil, err
	}
	if input.Role != "" && !models.ValidEmployeeRole(input.Role) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown employee role %q", input.Role)
	}

	now := requestcontext.Now(ctx)
	e, err := s.employees.Execute(ctx, id,
		func(*models.Employee) error { return nil },
		func(e *models.Employee) {
			if input.Name != "" {
				e.Name = strings.TrimSpace(input.Name)
			}
			if input.Phone != "" {
				e.Phone = strings.TrimSpace(input.Phone)
			}
			if input.Department != "" {
				e.Department = strings.TrimSpace(input.Department)
			}
			if input.Role != "" && input.Role != e.Role {
				e.Role = input.Role
				e.Permissions = authz.PermissionsFor(domain.OrgHEC, input.Role)
			}
			e.UpdatedAt = now
			e.UpdatedBy = actor.ID
		},
	)
	if err != nil {
		return nil, wrapEmployeeErr(err, id)
	}

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   audit.ActionEmployeeUpdated,
		EntityID: string(id),
	})
	return e, nil
}

// DeactivateEmployee blocks the account from acting. Self-deactivation is
// refused so an admin cannot lock themselves out mid-change.
func (s *Service) DeactivateEmployee(ctx context.Context, actor domain.Actor, id domain.EmployeeID) (*models.Employee, error) {
	if err := authz.Authorize(actor, domain.PermManageEmployees, authz.Global); err != nil {
		return nil, err
	}
	if actor.ID == string(id) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "an employee cannot deactivate their own account")
	}

	now := requestcontext.Now(ctx)
	e, err := s.employees.Execute(ctx, id,
		func(e *models.Employee) error { return e.CanDeactivate() },
		func(e *models.Employee) { e.ApplyDeactivation(actor.ID, now) },
	)
	if err != nil {
		return nil, wrapEmployeeErr(err, id)
	}

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   audit.ActionEmployeeDeactivated,
		EntityID: string(id),
	})
	s.logger.InfoContext(ctx, "employee deactivated",
		"employee_id", id,
		"deactivated_by", actor.ID,
	)
	return e, nil
}

func wrapEmployeeErr(err error, id domain.EmployeeID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "employee %s does not exist", id)
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "employee store failure")
	}
}
