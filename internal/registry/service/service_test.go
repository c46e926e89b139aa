package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sanad/internal/allocator"
	"sanad/internal/audit"
	"sanad/internal/authz"
	"sanad/internal/registry/models"
	employeeStore "sanad/internal/registry/store/employee"
	staffStore "sanad/internal/registry/store/staff"
	universityStore "sanad/internal/registry/store/university"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/requestcontext"
)

// =============================================================================
// Registry Service Test Suite
// =============================================================================
// The registry service carries the authorization boundaries of the whole
// organization directory: regulator-only mutations, tenant-scoped staff
// management, and cross-directory email uniqueness. Each is exercised here
// against in-memory stores.

type RegistryServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	audits  *audit.InMemoryStore
	service *Service
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceSuite))
}

func (s *RegistryServiceSuite) SetupTest() {
	s.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.audits = audit.NewInMemoryStore()
	s.service = New(
		universityStore.NewInMemory(),
		staffStore.NewInMemory(),
		employeeStore.NewInMemory(),
		allocator.NewInMemory(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(audit.NewPublisher(s.audits)),
	)
}

func (s *RegistryServiceSuite) hecAdmin() domain.Actor {
	return domain.Actor{
		ID:          "HEC_EMP_0001",
		OrgType:     domain.OrgHEC,
		Role:        domain.RoleAdmin,
		Status:      domain.ActorActive,
		Permissions: authz.PermissionsFor(domain.OrgHEC, domain.RoleAdmin),
	}
}

func (s *RegistryServiceSuite) uniActor(universityID domain.UniversityID, role domain.Role) domain.Actor {
	return domain.Actor{
		ID:           "USR_" + string(universityID) + "_0001",
		OrgType:      domain.OrgUniversity,
		Role:         role,
		UniversityID: universityID,
		Status:       domain.ActorActive,
		Permissions:  authz.PermissionsFor(domain.OrgUniversity, role),
	}
}

func (s *RegistryServiceSuite) registerUniversity(code string) *models.University {
	u, err := s.service.RegisterUniversity(s.ctx, s.hecAdmin(), RegisterUniversityInput{
		Name: "University " + code,
		Code: code,
		Type: models.TypePublic,
	})
	s.Require().NoError(err)
	return u
}

// =============================================================================
// University Tests
// =============================================================================

func (s *RegistryServiceSuite) TestRegisterUniversity() {
	s.Run("regulator registers a university", func() {
		u, err := s.service.RegisterUniversity(s.ctx, s.hecAdmin(), RegisterUniversityInput{
			Name:    "Quaid-i-Azam University",
			Code:    "qau",
			Type:    models.TypePublic,
			Charter: "Federal",
			Address: models.Address{City: "Islamabad", Province: "ICT"},
		})
		s.Require().NoError(err)
		s.Equal(domain.UniversityID("UNI_0001"), u.ID)
		s.Equal("QAU", u.Code)
		s.Equal(models.UniversityActive, u.Status)
		s.Equal("Pakistan", u.Address.Country)
		s.Equal(s.now, u.CreatedAt)

		events, err := s.audits.ListByEntity(s.ctx, "UNI_0001")
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionUniversityRegistered, events[0].Action)
		s.Equal("HEC_EMP_0001", events[0].ActorID)
	})

	s.Run("ids are sequential", func() {
		u := s.registerUniversity("PU")
		s.Equal(domain.UniversityID("UNI_0002"), u.ID)
	})

	s.Run("duplicate code conflicts", func() {
		_, err := s.service.RegisterUniversity(s.ctx, s.hecAdmin(), RegisterUniversityInput{
			Name: "Punjab University Clone",
			Code: "pu",
			Type: models.TypePrivate,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("university actor may not register", func() {
		_, err := s.service.RegisterUniversity(s.ctx, s.uniActor("UNI_0001", domain.RoleAdmin), RegisterUniversityInput{
			Name: "Rogue University",
			Code: "RU",
			Type: models.TypePrivate,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown type is rejected", func() {
		_, err := s.service.RegisterUniversity(s.ctx, s.hecAdmin(), RegisterUniversityInput{
			Name: "Typeless University",
			Code: "TU",
			Type: "COMMUNITY",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RegistryServiceSuite) TestGetUniversity() {
	u := s.registerUniversity("NED")

	s.Run("any active actor reads the directory", func() {
		got, err := s.service.GetUniversity(s.ctx, s.uniActor(u.ID, domain.RoleRegistrar), u.ID)
		s.Require().NoError(err)
		s.Equal(u.ID, got.ID)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.GetUniversity(s.ctx, s.hecAdmin(), "UNI_9999")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("anonymous actor is unauthorized", func() {
		_, err := s.service.GetUniversity(s.ctx, domain.Actor{}, u.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *RegistryServiceSuite) TestUpdateUniversity() {
	u := s.registerUniversity("UET")

	s.Run("patch replaces only supplied fields", func() {
		got, err := s.service.UpdateUniversity(s.ctx, s.hecAdmin(), u.ID, UpdateUniversityInput{
			Contact: models.Contact{Email: "registrar@uet.edu.pk"},
		})
		s.Require().NoError(err)
		s.Equal("registrar@uet.edu.pk", got.Contact.Email)
		s.Equal(u.Name, got.Name)
	})

	s.Run("university actor may not update the directory", func() {
		_, err := s.service.UpdateUniversity(s.ctx, s.uniActor(u.ID, domain.RoleAdmin), u.ID, UpdateUniversityInput{Name: "Renamed"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *RegistryServiceSuite) TestSuspendAndReactivate() {
	u := s.registerUniversity("BZU")

	s.Run("suspension requires a reason", func() {
		_, err := s.service.SuspendUniversity(s.ctx, s.hecAdmin(), u.ID, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("regulator suspends", func() {
		got, err := s.service.SuspendUniversity(s.ctx, s.hecAdmin(), u.ID, "degree mill investigation")
		s.Require().NoError(err)
		s.Equal(models.UniversitySuspended, got.Status)
		s.Equal("degree mill investigation", got.SuspensionReason)

		events, err := s.audits.ListByEntity(s.ctx, string(u.ID))
		s.Require().NoError(err)
		last := events[len(events)-1]
		s.Equal(audit.ActionUniversitySuspended, last.Action)
		s.Equal("degree mill investigation", last.Reason)
	})

	s.Run("double suspension is an invalid state", func() {
		_, err := s.service.SuspendUniversity(s.ctx, s.hecAdmin(), u.ID, "again")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("reactivation restores ACTIVE", func() {
		got, err := s.service.ReactivateUniversity(s.ctx, s.hecAdmin(), u.ID)
		s.Require().NoError(err)
		s.Equal(models.UniversityActive, got.Status)
		s.Empty(got.SuspensionReason)
	})

	s.Run("reactivating an active university is an invalid state", func() {
		_, err := s.service.ReactivateUniversity(s.ctx, s.hecAdmin(), u.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *RegistryServiceSuite) TestAddDepartment() {
	u := s.registerUniversity("GCU")

	s.Run("university admin adds a department", func() {
		dept, err := s.service.AddDepartment(s.ctx, s.uniActor(u.ID, domain.RoleAdmin), u.ID, AddDepartmentInput{
			Name:    "Computer Science",
			Code:    "cs",
			Faculty: "Engineering",
		})
		s.Require().NoError(err)
		s.Equal(domain.DepartmentID("DEPT_0001"), dept.ID)
		s.Equal("CS", dept.Code)
	})

	s.Run("duplicate code conflicts", func() {
		_, err := s.service.AddDepartment(s.ctx, s.uniActor(u.ID, domain.RoleAdmin), u.ID, AddDepartmentInput{
			Name: "Computing",
			Code: "CS",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("cross-tenant admin is forbidden", func() {
		other := s.registerUniversity("IUB")
		_, err := s.service.AddDepartment(s.ctx, s.uniActor(other.ID, domain.RoleAdmin), u.ID, AddDepartmentInput{
			Name: "Physics",
			Code: "PHY",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("regulator may add to any university", func() {
		dept, err := s.service.AddDepartment(s.ctx, s.hecAdmin(), u.ID, AddDepartmentInput{
			Name: "Mathematics",
			Code: "MATH",
		})
		s.Require().NoError(err)

		depts, err := s.service.ListDepartments(s.ctx, s.hecAdmin(), u.ID)
		s.Require().NoError(err)
		s.Len(depts, 2)
		s.Equal(dept.ID, depts[1].ID)
	})
}

// =============================================================================
// Staff Tests
// =============================================================================

func (s *RegistryServiceSuite) TestCreateStaffUser() {
	u := s.registerUniversity("KU")

	s.Run("university admin creates staff with derived permissions", func() {
		staff, err := s.service.CreateStaffUser(s.ctx, s.uniActor(u.ID, domain.RoleAdmin), u.ID, CreateStaffInput{
			Name:  "Dr. Ayesha Khan",
			Email: "Ayesha.Khan@ku.edu.pk",
			Role:  domain.RoleRegistrar,
		})
		s.Require().NoError(err)
		s.Equal(domain.StaffID("USR_UNI_0001_0001"), staff.ID)
		s.Equal("ayesha.khan@ku.edu.pk", staff.Email)
		s.Equal(authz.PermissionsFor(domain.OrgUniversity, domain.RoleRegistrar), staff.Permissions)
		s.Equal(domain.ActorActive, staff.Status)
	})

	s.Run("duplicate email conflicts", func() {
		_, err := s.service.CreateStaffUser(s.ctx, s.uniActor(u.ID, domain.RoleAdmin), u.ID, CreateStaffInput{
			Name:  "Impostor",
			Email: "AYESHA.KHAN@ku.edu.pk",
			Role:  domain.RoleDean,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("email held by an employee conflicts", func() {
		_, err := s.service.Bootstrap(s.ctx, "Super Admin", "admin@hec.gov.pk")
		s.Require().NoError(err)

		_, err = s.service.CreateStaffUser(s.ctx, s.uniActor(u.ID, domain.RoleAdmin), u.ID, CreateStaffInput{
			Name:  "Moonlighter",
			Email: "admin@hec.gov.pk",
			Role:  domain.RoleHOD,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown role is rejected", func() {
		_, err := s.service.CreateStaffUser(s.ctx, s.uniActor(u.ID, domain.RoleAdmin), u.ID, CreateStaffInput{
			Name:  "Janitor",
			Email: "janitor@ku.edu.pk",
			Role:  "JANITOR",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("cross-tenant admin is forbidden", func() {
		other := s.registerUniversity("SU")
		_, err := s.service.CreateStaffUser(s.ctx, s.uniActor(other.ID, domain.RoleAdmin), u.ID, CreateStaffInput{
			Name:  "Infiltrator",
			Email: "infiltrator@su.edu.pk",
			Role:  domain.RoleHOD,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("regulator provisions staff for any university", func() {
		staff, err := s.service.CreateStaffUser(s.ctx, s.hecAdmin(), u.ID, CreateStaffInput{
			Name:  "Prof. Bilal Ahmed",
			Email: "bilal@ku.edu.pk",
			Role:  domain.RoleVC,
		})
		s.Require().NoError(err)
		s.Equal(u.ID, staff.UniversityID)
	})

	s.Run("unknown university is not found", func() {
		_, err := s.service.CreateStaffUser(s.ctx, s.hecAdmin(), "UNI_9999", CreateStaffInput{
			Name:  "Ghost",
			Email: "ghost@nowhere.edu.pk",
			Role:  domain.RoleHOD,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistryServiceSuite) TestStaffVisibility() {
	u := s.registerUniversity("AU")
	other := s.registerUniversity("FU")
	staff, err := s.service.CreateStaffUser(s.ctx, s.hecAdmin(), u.ID, CreateStaffInput{
		Name:  "Registrar",
		Email: "registrar@au.edu.pk",
		Role:  domain.RoleRegistrar,
	})
	s.Require().NoError(err)

	s.Run("own university reads its staff", func() {
		got, err := s.service.GetStaffUser(s.ctx, s.uniActor(u.ID, domain.RoleVC), staff.ID)
		s.Require().NoError(err)
		s.Equal(staff.ID, got.ID)
	})

	s.Run("cross-tenant read reports absence", func() {
		_, err := s.service.GetStaffUser(s.ctx, s.uniActor(other.ID, domain.RoleVC), staff.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("cross-tenant list reports absence", func() {
		_, err := s.service.ListStaffByUniversity(s.ctx, s.uniActor(other.ID, domain.RoleVC), u.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("regulator lists any university's staff", func() {
		list, err := s.service.ListStaffByUniversity(s.ctx, s.hecAdmin(), u.ID)
		s.Require().NoError(err)
		s.Len(list, 1)
	})

	s.Run("list by role filters active holders", func() {
		list, err := s.service.ListStaffByRole(s.ctx, s.hecAdmin(), u.ID, domain.RoleRegistrar)
		s.Require().NoError(err)
		s.Len(list, 1)

		list, err = s.service.ListStaffByRole(s.ctx, s.hecAdmin(), u.ID, domain.RoleDean)
		s.Require().NoError(err)
		s.Empty(list)
	})
}

func (s *RegistryServiceSuite) TestUpdateStaffUser() {
	u := s.registerUniversity("LU")
	staff, err := s.service.CreateStaffUser(s.ctx, s.hecAdmin(), u.ID, CreateStaffInput{
		Name:  "Hamza Tariq",
		Email: "hamza@lu.edu.pk",
		Role:  domain.RoleHOD,
	})
	s.Require().NoError(err)

	s.Run("role change replaces the whole permission set", func() {
		got, err := s.service.UpdateStaffUser(s.ctx, s.uniActor(u.ID, domain.RoleAdmin), staff.ID, UpdateStaffInput{
			Role: domain.RoleController,
		})
		s.Require().NoError(err)
		s.Equal(domain.RoleController, got.Role)
		s.ElementsMatch(authz.PermissionsFor(domain.OrgUniversity, domain.RoleController), got.Permissions)
		for _, p := range authz.PermissionsFor(domain.OrgUniversity, domain.RoleHOD) {
			if !got.Actor().HasPermission(p) {
				return
			}
		}
		s.Fail("HOD permissions should not survive the role change")
	})

	s.Run("zero values leave fields untouched", func() {
		got, err := s.service.UpdateStaffUser(s.ctx, s.hecAdmin(), staff.ID, UpdateStaffInput{Phone: "+92-300-1234567"})
		s.Require().NoError(err)
		s.Equal("Hamza Tariq", got.Name)
		s.Equal("+92-300-1234567", got.Phone)
	})

	s.Run("invalid role is rejected", func() {
		_, err := s.service.UpdateStaffUser(s.ctx, s.hecAdmin(), staff.ID, UpdateStaffInput{Role: "EMPEROR"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RegistryServiceSuite) TestStaffStatusTransitions() {
	u := s.registerUniversity("MU")
	staff, err := s.service.CreateStaffUser(s.ctx, s.hecAdmin(), u.ID, CreateStaffInput{
		Name:  "Sana Malik",
		Email: "sana@mu.edu.pk",
		Role:  domain.RoleDean,
	})
	s.Require().NoError(err)
	admin := s.uniActor(u.ID, domain.RoleAdmin)

	s.Run("deactivate blocks the account", func() {
		got, err := s.service.DeactivateStaffUser(s.ctx, admin, staff.ID)
		s.Require().NoError(err)
		s.Equal(domain.ActorInactive, got.Status)
	})

	s.Run("double deactivation violates the lifecycle", func() {
		_, err := s.service.DeactivateStaffUser(s.ctx, admin, staff.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("activate restores the account", func() {
		got, err := s.service.ActivateStaffUser(s.ctx, admin, staff.ID)
		s.Require().NoError(err)
		s.Equal(domain.ActorActive, got.Status)
	})
}

// =============================================================================
// Employee Tests
// =============================================================================

func (s *RegistryServiceSuite) TestBootstrap() {
	s.Run("seeds the first admin", func() {
		e, err := s.service.Bootstrap(s.ctx, "Super Admin", "admin@hec.gov.pk")
		s.Require().NoError(err)
		s.Equal(domain.EmployeeID("HEC_EMP_0001"), e.ID)
		s.Equal(domain.RoleAdmin, e.Role)
		s.Equal("SYSTEM", e.CreatedBy)
	})

	s.Run("repeat call returns the existing admin", func() {
		e, err := s.service.Bootstrap(s.ctx, "Super Admin", "admin@hec.gov.pk")
		s.Require().NoError(err)
		s.Equal(domain.EmployeeID("HEC_EMP_0001"), e.ID)
	})

	s.Run("provisioned directory rejects a second seed", func() {
		_, err := s.service.Bootstrap(s.ctx, "Usurper", "usurper@hec.gov.pk")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *RegistryServiceSuite) TestCreateEmployee() {
	_, err := s.service.Bootstrap(s.ctx, "Super Admin", "admin@hec.gov.pk")
	s.Require().NoError(err)

	s.Run("admin creates an employee", func() {
		e, err := s.service.CreateEmployee(s.ctx, s.hecAdmin(), CreateEmployeeInput{
			Name:  "Fatima Raza",
			Email: "Fatima.Raza@hec.gov.pk",
			Role:  domain.RoleEmployee,
		})
		s.Require().NoError(err)
		s.Equal(domain.EmployeeID("HEC_EMP_0002"), e.ID)
		s.Equal("fatima.raza@hec.gov.pk", e.Email)
		s.True(e.Actor().HasPermission(domain.PermAttestDegree))
		s.True(e.Actor().HasPermission(domain.PermManageUniversities))
	})

	s.Run("email held by staff conflicts", func() {
		u := s.registerUniversity("CU")
		_, err := s.service.CreateStaffUser(s.ctx, s.hecAdmin(), u.ID, CreateStaffInput{
			Name:  "Clerk",
			Email: "clerk@cu.edu.pk",
			Role:  domain.RoleHOD,
		})
		s.Require().NoError(err)

		_, err = s.service.CreateEmployee(s.ctx, s.hecAdmin(), CreateEmployeeInput{
			Name:  "Clerk Twin",
			Email: "clerk@cu.edu.pk",
			Role:  domain.RoleEmployee,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("inactive admin is forbidden", func() {
		stale := s.hecAdmin()
		stale.Status = domain.ActorInactive
		_, err := s.service.CreateEmployee(s.ctx, stale, CreateEmployeeInput{
			Name:  "Shadow",
			Email: "shadow@hec.gov.pk",
			Role:  domain.RoleEmployee,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("university actor may not read the employee directory", func() {
		u := s.registerUniversity("DU")
		_, err := s.service.ListEmployees(s.ctx, s.uniActor(u.ID, domain.RoleVC))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *RegistryServiceSuite) TestDeactivateEmployee() {
	_, err := s.service.Bootstrap(s.ctx, "Super Admin", "admin@hec.gov.pk")
	s.Require().NoError(err)
	e, err := s.service.CreateEmployee(s.ctx, s.hecAdmin(), CreateEmployeeInput{
		Name:  "Temp",
		Email: "temp@hec.gov.pk",
		Role:  domain.RoleEmployee,
	})
	s.Require().NoError(err)

	s.Run("admin deactivates another employee", func() {
		got, err := s.service.DeactivateEmployee(s.ctx, s.hecAdmin(), e.ID)
		s.Require().NoError(err)
		s.Equal(domain.ActorInactive, got.Status)
	})

	s.Run("self-deactivation is blocked", func() {
		_, err := s.service.DeactivateEmployee(s.ctx, s.hecAdmin(), "HEC_EMP_0001")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

// =============================================================================
// Statistics Tests
// =============================================================================

type staticCounter int

func (c staticCounter) Count(context.Context) (int, error) { return int(c), nil }

func (s *RegistryServiceSuite) TestGetStats() {
	_, err := s.service.Bootstrap(s.ctx, "Super Admin", "admin@hec.gov.pk")
	s.Require().NoError(err)
	s.registerUniversity("QAU")
	s.registerUniversity("PU")
	WithDegreeCounter(staticCounter(7))(s.service)

	s.Run("regulator reads the snapshot", func() {
		stats, err := s.service.GetStats(s.ctx, s.hecAdmin())
		s.Require().NoError(err)
		s.Equal(2, stats.Universities)
		s.Equal(1, stats.ActiveEmployees)
		s.Equal(7, stats.Degrees)
	})

	s.Run("university actor is forbidden", func() {
		_, err := s.service.GetStats(s.ctx, s.uniActor("UNI_0001", domain.RoleVC))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
