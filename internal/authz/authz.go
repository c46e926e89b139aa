// Package authz is the authorization engine: the single role→permission
// table and the pure scope check every mutating operation runs through.
//
// The engine is deliberately side-effect free. It reads nothing but its
// arguments, so services can call it inside store transactions without
// ordering concerns, and tests can exercise every branch without fixtures.
package authz

import (
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// Scope names the resource boundary an operation targets. The zero scope
// means "global" and only regulator actors pass it.
type Scope struct {
	UniversityID domain.UniversityID
}

// Global is the regulator-only scope.
var Global = Scope{}

var universityPermissions = map[domain.Role][]domain.Permission{
	domain.RoleVC: {
		domain.PermApproveDegree, domain.PermViewAll, domain.PermManageRegistrar,
		domain.PermManageController, domain.PermManageDean, domain.PermSignDocuments,
	},
	domain.RoleRegistrar: {
		domain.PermIssueDegree, domain.PermVerifyDegree, domain.PermManageStudents,
		domain.PermViewDegrees, domain.PermManageTranscripts,
	},
	domain.RoleController: {
		domain.PermManageExams, domain.PermApproveResults, domain.PermViewResults,
		domain.PermManageGrades,
	},
	domain.RoleDean: {
		domain.PermApproveDeptDegree, domain.PermViewFaculty, domain.PermManageHOD,
	},
	domain.RoleHOD: {
		domain.PermRecommendDegree, domain.PermViewDepartment, domain.PermManageStudents,
	},
	domain.RoleAdmin: {
		domain.PermManageUsers, domain.PermViewAll, domain.PermManageDepartments,
	},
}

var hecPermissions = []domain.Permission{
	domain.PermAttestDegree, domain.PermManageUniversities,
	domain.PermManageEmployees, domain.PermViewAll,
}

// PermissionsFor derives the capability set for an organization-scoped role.
// Unknown roles get the minimal view_own set. The result is a fresh slice;
// callers may not mutate shared state through it.
func PermissionsFor(orgType domain.OrgType, role domain.Role) []domain.Permission {
	var table []domain.Permission
	switch orgType {
	case domain.OrgHEC:
		// Both HEC roles carry the full regulator set; ADMIN additionally
		// manages employees, which EMPLOYEE already holds here because the
		// original grants the whole set to any HEC member.
		if role == domain.RoleAdmin || role == domain.RoleEmployee {
			table = hecPermissions
		}
	case domain.OrgUniversity:
		table = universityPermissions[role]
	}
	if table == nil {
		return []domain.Permission{domain.PermViewOwn}
	}
	out := make([]domain.Permission, len(table))
	copy(out, table)
	return out
}

// Authorize decides whether an actor may exercise a permission against a
// resource scope. It never consults the actor's claimed permission list;
// capabilities come from the role table alone.
func Authorize(actor domain.Actor, perm domain.Permission, scope Scope) error {
	if actor.ID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !actor.IsActive() {
		return dErrors.New(dErrors.CodeForbidden, "actor is not active")
	}

	// Organization scope: HEC actors always pass; university actors must
	// match the target university exactly.
	if !actor.IsHEC() {
		if scope.UniversityID == "" {
			return dErrors.New(dErrors.CodeForbidden, "regulator privileges required")
		}
		if actor.UniversityID != scope.UniversityID {
			return dErrors.New(dErrors.CodeForbidden, "cross-tenant access denied")
		}
	}

	for _, have := range PermissionsFor(actor.OrgType, actor.Role) {
		if have == perm {
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeForbidden, "missing permission %s", perm)
}

// CanRead reports whether an actor may read records scoped to a university.
// Cross-tenant reads are not an authorization failure: callers translate a
// false result into NotFound so foreign record IDs are never confirmed.
func CanRead(actor domain.Actor, scope Scope) bool {
	if actor.ID == "" || !actor.IsActive() {
		return false
	}
	if actor.IsHEC() {
		return true
	}
	return actor.UniversityID == scope.UniversityID
}

// Attach recomputes and sets the actor's derived permission set.
func Attach(actor domain.Actor) domain.Actor {
	actor.Permissions = PermissionsFor(actor.OrgType, actor.Role)
	return actor
}
