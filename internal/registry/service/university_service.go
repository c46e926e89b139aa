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

// RegisterUniversityInput is the pre-validated registration payload.
type RegisterUniversityInput struct {
	Name            string
	Code            string
	Type            models.UniversityType
	Charter         string
	Address         models.Address
	Contact         models.Contact
	EstablishedYear int
}

// RegisterUniversity creates a new ACTIVE university. Regulator only;
// duplicate codes conflict.
func (s *Service) RegisterUniversity(ctx context.Context, actor domain.Actor, input RegisterUniversityInput) (*models.University, error) {
	if err := authz.Authorize(actor, domain.PermManageUniversities, authz.Global); err != nil {
		return nil, err
	}

	seq, err := s.alloc.Next(ctx, allocator.ScopeUniversity)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate university id")
	}

	u, err := models.NewUniversity(allocator.FormatUniversityID(seq), input.Code, input.Name, input.Type, actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	u.Charter = input.Charter
	u.Address = input.Address
	u.Contact = input.Contact
	u.EstablishedYear = input.EstablishedYear
	if u.Address.Country == "" {
		u.Address.Country = "Pakistan"
	}

	if err := s.universities.CreateIfCodeAvailable(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "university code %s is already registered", u.Code)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register university")
	}

	s.emit(ctx, audit.Event{
		ActorID:   actor.ID,
		ActorRole: string(actor.Role),
		Action:    audit.ActionUniversityRegistered,
		EntityID:  string(u.ID),
	})
	if s.metrics != nil {
		s.metrics.IncUniversitiesRegistered()
	}
	s.logger.InfoContext(ctx, "university registered",
		"university_id", u.ID,
		"code", u.Code,
		"registered_by", actor.ID,
	)
	return u, nil
}

// GetUniversity returns one university. Any active actor may read the
// directory.
func (s *Service) GetUniversity(ctx context.Context, actor domain.Actor, id domain.UniversityID) (*models.University, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	u, err := s.universities.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUniversityErr(err, id)
	}
	return u, nil
}

// ListUniversities returns the full directory ordered by name.
func (s *Service) ListUniversities(ctx context.Context, actor domain.Actor) ([]*models.University, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.universities.List(ctx)
}

// ListUniversitiesByProvince returns active universities in one province.
func (s *Service) ListUniversitiesByProvince(ctx context.Context, actor domain.Actor, province string) ([]*models.University, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	province = strings.TrimSpace(province)
	if province == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "province is required")
	}
	return s.universities.ListByProvince(ctx, province)
}

// UpdateUniversityInput patches profile fields. Zero values leave the field
// unchanged; status is not settable here.
type UpdateUniversityInput struct {
	Name            string
	Type            models.UniversityType
	Charter         string
	Address         models.Address
	Contact         models.Contact
	EstablishedYear int
}

// UpdateUniversity applies a profile patch. Regulator only.
func (s *Service) UpdateUniversity(ctx context.Context, actor domain.Actor, id domain.UniversityID, input UpdateUniversityInput) (*models.University, error) {
	if err := authz.Authorize(actor, domain.PermManageUniversities, authz.Global); err != nil {
		return nil, err
	}
	if input.Type != "" && !models.ValidUniversityType(input.Type) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown university type %q", input.Type)
	}

	now := requestcontext.Now(ctx)
	u, err := s.universities.Execute(ctx, id,
		func(*models.University) error { return nil },
		func(u *models.University) {
			if name := strings.TrimSpace(input.Name); name != "" {
				u.Name = name
			}
			if input.Type != "" {
				u.Type = input.Type
			}
			if input.Charter != "" {
				u.Charter = input.Charter
			}
			if input.Address.City != "" {
				u.Address.City = input.Address.City
			}
			if input.Address.Province != "" {
				u.Address.Province = input.Address.Province
			}
			if input.Address.Street != "" {
				u.Address.Street = input.Address.Street
			}
			if input.Contact.Email != "" {
				u.Contact.Email = input.Contact.Email
			}
			if input.Contact.Phone != "" {
				u.Contact.Phone = input.Contact.Phone
			}
			if input.Contact.Website != "" {
				u.Contact.Website = input.Contact.Website
			}
			if input.EstablishedYear != 0 {
				u.EstablishedYear = input.EstablishedYear
			}
			u.UpdatedAt = now
			u.UpdatedBy = actor.ID
		},
	)
	if err != nil {
		return nil, wrapUniversityErr(err, id)
	}
	return u, nil
}

// SuspendUniversity blocks new degree issuance for the university. Already
// issued degrees are unaffected. Regulator only.
func (s *Service) SuspendUniversity(ctx context.Context, actor domain.Actor, id domain.UniversityID, reason string) (*models.University, error) {
	if err := authz.Authorize(actor, domain.PermManageUniversities, authz.Global); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "suspension reason is required")
	}

	now := requestcontext.Now(ctx)
	u, err := s.universities.Execute(ctx, id,
		func(u *models.University) error {
			if err := u.CanSuspend(); err != nil {
				return dErrors.New(dErrors.CodeInvalidState, "university is already suspended")
			}
			return nil
		},
		func(u *models.University) {
			u.ApplySuspension(reason, actor.ID, now)
		},
	)
	if err != nil {
		return nil, wrapUniversityErr(err, id)
	}

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   audit.ActionUniversitySuspended,
		EntityID: string(id),
		Reason:   reason,
	})
	if s.metrics != nil {
		s.metrics.IncUniversitiesSuspended()
	}
	s.logger.WarnContext(ctx, "university suspended",
		"university_id", id,
		"suspended_by", actor.ID,
		"reason", reason,
	)
	return u, nil
}

// ReactivateUniversity restores an ACTIVE status. Regulator only.
func (s *Service) ReactivateUniversity(ctx context.Context, actor domain.Actor, id domain.UniversityID) (*models.University, error) {
	if err := authz.Authorize(actor, domain.PermManageUniversities, authz.Global); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	u, err := s.universities.Execute(ctx, id,
		func(u *models.University) error {
			if err := u.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeInvalidState, "university is already active")
			}
			return nil
		},
		func(u *models.University) {
			u.ApplyReactivation(actor.ID, now)
		},
	)
	if err != nil {
		return nil, wrapUniversityErr(err, id)
	}

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   audit.ActionUniversityReactivated,
		EntityID: string(id),
	})
	return u, nil
}

// AddDepartmentInput creates a department within a university.
type AddDepartmentInput struct {
	Name    string
	Code    string
	Faculty string
}

// AddDepartment appends a department to the university. University admins
// manage their own departments; the regulator may act on any university.
func (s *Service) AddDepartment(ctx context.Context, actor domain.Actor, universityID domain.UniversityID, input AddDepartmentInput) (*models.Department, error) {
	perm := domain.PermManageDepartments
	if actor.IsHEC() {
		perm = domain.PermManageUniversities
	}
	if err := authz.Authorize(actor, perm, authz.Scope{UniversityID: universityID}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Code) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "department name and code are required")
	}

	seq, err := s.alloc.Next(ctx, allocator.DepartmentScope(universityID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate department id")
	}
	dept := models.Department{
		ID:        allocator.FormatDepartmentID(seq),
		Name:      strings.TrimSpace(input.Name),
		Code:      strings.ToUpper(strings.TrimSpace(input.Code)),
		Faculty:   strings.TrimSpace(input.Faculty),
		Status:    "ACTIVE",
		CreatedAt: requestcontext.Now(ctx),
	}

	// Uniqueness is re-checked under the store lock so racing additions of
	// the same code cannot both pass.
	_, err = s.universities.Execute(ctx, universityID,
		func(u *models.University) error { return u.CanAddDepartment(dept.Code) },
		func(u *models.University) { u.ApplyDepartment(dept) },
	)
	if err != nil {
		return nil, wrapUniversityErr(err, universityID)
	}
	return &dept, nil
}

// ListDepartments returns a university's departments in creation order.
func (s *Service) ListDepartments(ctx context.Context, actor domain.Actor, universityID domain.UniversityID) ([]models.Department, error) {
	u, err := s.GetUniversity(ctx, actor, universityID)
	if err != nil {
		return nil, err
	}
	return u.Departments, nil
}

// LookupUniversity reports a university's display name and whether it may
// currently issue degrees. The degree module consumes this through its
// directory interface; sentinel.ErrNotFound passes through untranslated.
func (s *Service) LookupUniversity(ctx context.Context, id domain.UniversityID) (string, bool, error) {
	u, err := s.universities.FindByID(ctx, id)
	if err != nil {
		return "", false, err
	}
	return u.Name, u.IsActive(), nil
}

func wrapUniversityErr(err error, id domain.UniversityID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "university %s does not exist", id)
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "university store failure")
	}
}
