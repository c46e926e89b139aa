// Package allocator issues collision-free, human-readable identifiers.
//
// Every entity ID in the system is a formatted sequence number scoped to a
// counter key (global for universities and employees, per-university for
// degrees and staff). Next is linearizable per scope: concurrent calls on the
// same scope never observe the same value, whichever backend is in use.
package allocator

import (
	"context"
	"fmt"

	"sanad/pkg/domain"
)

// Allocator hands out the next sequence number for a scope.
type Allocator interface {
	Next(ctx context.Context, scope string) (uint64, error)
}

// Counter scopes. Per-university scopes embed the university ID so each
// issuer numbers its own degrees and staff from 1.
const (
	ScopeUniversity  = "university"
	ScopeEmployee    = "employee"
	ScopeAttestation = "attestation"
)

// DegreeScope returns the per-university degree counter key.
func DegreeScope(universityID domain.UniversityID) string {
	return "degree:" + string(universityID)
}

// StaffScope returns the per-university staff counter key.
func StaffScope(universityID domain.UniversityID) string {
	return "staff:" + string(universityID)
}

// DepartmentScope returns the per-university department counter key.
func DepartmentScope(universityID domain.UniversityID) string {
	return "department:" + string(universityID)
}

// ID formatting. The shapes match what verifiers read off printed
// certificates, so they are part of the public contract.

func FormatUniversityID(seq uint64) domain.UniversityID {
	return domain.UniversityID(fmt.Sprintf("UNI_%04d", seq))
}

func FormatEmployeeID(seq uint64) domain.EmployeeID {
	return domain.EmployeeID(fmt.Sprintf("HEC_EMP_%04d", seq))
}

func FormatDegreeID(universityID domain.UniversityID, seq uint64) domain.DegreeID {
	return domain.DegreeID(fmt.Sprintf("DEG_%s_%06d", universityID, seq))
}

func FormatStaffID(universityID domain.UniversityID, seq uint64) domain.StaffID {
	return domain.StaffID(fmt.Sprintf("USR_%s_%04d", universityID, seq))
}

func FormatDepartmentID(seq uint64) domain.DepartmentID {
	return domain.DepartmentID(fmt.Sprintf("DEPT_%04d", seq))
}

// FormatAttestationNumber numbers HEC attestations from a dedicated global
// counter rather than a wall-clock timestamp, so two attestations in the
// same millisecond cannot collide.
func FormatAttestationNumber(seq uint64) string {
	return fmt.Sprintf("HEC-ATT-%06d", seq)
}
