package domain

// OrgType distinguishes the regulator from subordinate organizations.
type OrgType string

const (
	OrgHEC        OrgType = "HEC"
	OrgUniversity OrgType = "UNIVERSITY"
)

// Role is an organization-scoped staff role. University roles and HEC roles
// share the type; the permission table keys on (OrgType, Role).
type Role string

const (
	RoleVC         Role = "VC"
	RoleRegistrar  Role = "REGISTRAR"
	RoleController Role = "CONTROLLER"
	RoleDean       Role = "DEAN"
	RoleHOD        Role = "HOD"
	RoleAdmin      Role = "ADMIN"
	RoleEmployee   Role = "EMPLOYEE"
)

// Permission names a single capability. The authoritative role→permission
// table lives in internal/authz; nothing else re-implements it.
type Permission string

const (
	PermApproveDegree     Permission = "approve_degree"
	PermIssueDegree       Permission = "issue_degree"
	PermVerifyDegree      Permission = "verify_degree"
	PermAttestDegree      Permission = "attest_degree"
	PermRecommendDegree   Permission = "recommend_degree"
	PermApproveDeptDegree Permission = "approve_department_degrees"
	PermManageStudents    Permission = "manage_students"
	PermManageTranscripts Permission = "manage_transcripts"
	PermManageExams       Permission = "manage_exams"
	PermApproveResults    Permission = "approve_results"
	PermViewResults       Permission = "view_results"
	PermManageGrades      Permission = "manage_grades"
	PermManageRegistrar   Permission = "manage_registrar"
	PermManageController  Permission = "manage_controller"
	PermManageDean        Permission = "manage_dean"
	PermManageHOD         Permission = "manage_hod"
	PermManageUsers       Permission = "manage_users"
	PermManageDepartments Permission = "manage_departments"
	PermManageUniversities Permission = "manage_universities"
	PermManageEmployees   Permission = "manage_employees"
	PermSignDocuments     Permission = "sign_documents"
	PermViewAll           Permission = "view_all"
	PermViewDegrees       Permission = "view_degrees"
	PermViewFaculty       Permission = "view_faculty"
	PermViewDepartment    Permission = "view_department"
	PermViewOwn           Permission = "view_own"
)

// ActorStatus mirrors staff/employee status in the registry.
type ActorStatus string

const (
	ActorActive   ActorStatus = "ACTIVE"
	ActorInactive ActorStatus = "INACTIVE"
)

// Actor is the trusted assertion handed to the core by the identity
// verifier. Permissions are always re-derived from (OrgType, Role) by the
// authorization engine; a caller-supplied permission list is never trusted.
type Actor struct {
	ID           string       `json:"id"`
	OrgType      OrgType      `json:"org_type"`
	Role         Role         `json:"role"`
	UniversityID UniversityID `json:"university_id,omitempty"`
	Status       ActorStatus  `json:"status"`
	Permissions  []Permission `json:"permissions,omitempty"`
}

// IsHEC reports whether the actor belongs to the regulator.
func (a Actor) IsHEC() bool { return a.OrgType == OrgHEC }

// IsActive reports whether the actor may act at all.
func (a Actor) IsActive() bool { return a.Status == ActorActive }

// HasPermission checks the derived permission set.
func (a Actor) HasPermission(p Permission) bool {
	for _, have := range a.Permissions {
		if have == p {
			return true
		}
	}
	return false
}
