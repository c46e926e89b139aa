// Package domain holds identifier types and the actor assertion shared by
// every feature package. Typed IDs prevent cross-entity mixups at compile
// time; parsing enforces the ID shape at trust boundaries.
package domain

import (
	"strings"

	dErrors "sanad/pkg/domain-errors"
)

// Registry-issued identifiers. All are allocator-formatted, human-readable
// strings (the shapes public verifiers read off paper certificates).
type (
	// UniversityID looks like "UNI_0001".
	UniversityID string
	// DegreeID looks like "DEG_UNI_0001_000001" (scoped to the issuer).
	DegreeID string
	// StaffID looks like "USR_UNI_0001_0001".
	StaffID string
	// EmployeeID looks like "HEC_EMP_0001".
	EmployeeID string
	// DepartmentID looks like "DEPT_0001".
	DepartmentID string
)

func (id UniversityID) String() string { return string(id) }
func (id DegreeID) String() string     { return string(id) }
func (id StaffID) String() string      { return string(id) }
func (id EmployeeID) String() string   { return string(id) }
func (id DepartmentID) String() string { return string(id) }

func parse(raw, prefix, what string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s id is required", what)
	}
	if !strings.HasPrefix(raw, prefix) || len(raw) <= len(prefix) {
		return "", dErrors.Newf(dErrors.CodeValidation, "malformed %s id", what)
	}
	return raw, nil
}

// ParseUniversityID validates the "UNI_" shape.
func ParseUniversityID(raw string) (UniversityID, error) {
	s, err := parse(raw, "UNI_", "university")
	return UniversityID(s), err
}

// ParseDegreeID validates the "DEG_" shape.
func ParseDegreeID(raw string) (DegreeID, error) {
	s, err := parse(raw, "DEG_", "degree")
	return DegreeID(s), err
}

// ParseStaffID validates the "USR_" shape.
func ParseStaffID(raw string) (StaffID, error) {
	s, err := parse(raw, "USR_", "staff user")
	return StaffID(s), err
}

// ParseEmployeeID validates the "HEC_EMP_" shape.
func ParseEmployeeID(raw string) (EmployeeID, error) {
	s, err := parse(raw, "HEC_EMP_", "employee")
	return EmployeeID(s), err
}
