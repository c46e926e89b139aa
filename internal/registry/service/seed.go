package service

import (
	"context"
	"errors"

	"sanad/internal/allocator"
	"sanad/internal/authz"
	"sanad/internal/registry/models"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/sentinel"
	"sanad/pkg/requestcontext"
)

// seedActorID attributes bootstrap records. It is never a valid login.
const seedActorID = "SYSTEM"

// Bootstrap seeds the first regulator admin when the employee directory is
// empty. Without it no actor holds manage_employees and the system cannot
// be provisioned. Safe to call on every startup.
func (s *Service) Bootstrap(ctx context.Context, name, email string) (*models.Employee, error) {
	email = normalizeEmail(email)
	existing, err := s.employees.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "bootstrap lookup failed")
	}
	n, err := s.employees.CountActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "bootstrap count failed")
	}
	if n > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "employee directory is already provisioned")
	}

	seq, err := s.alloc.Next(ctx, allocator.ScopeEmployee)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate employee id")
	}
	perms := authz.PermissionsFor(domain.OrgHEC, domain.RoleAdmin)
	e, err := models.NewEmployee(
		allocator.FormatEmployeeID(seq),
		name, email, domain.RoleAdmin, perms,
		seedActorID, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	e.Department = "Administration"

	if err := s.employees.CreateIfEmailAvailable(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a startup race with another instance; the winner's
			// record is the one we wanted.
			return s.employees.FindByEmail(ctx, email)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed admin employee")
	}

	s.logger.InfoContext(ctx, "seeded initial regulator admin", "employee_id", e.ID, "email", e.Email)
	return e, nil
}
