// Package models defines the degree credential aggregate and its lifecycle.
//
// A degree record moves through a strict state machine:
//
//	PENDING_VERIFICATION → VERIFIED → HEC_ATTESTED (terminal)
//	PENDING_VERIFICATION → REJECTED (terminal)
//	VERIFIED             → REJECTED (terminal)
//
// Every successful transition appends exactly one approval entry. Entries
// are hash-chained: each digest covers the entry's fields plus the previous
// digest, so rewriting history invalidates every later entry.
package models

import (
	"strings"
	"time"

	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// State is the verification state of a degree record.
type State string

const (
	StatePendingVerification State = "PENDING_VERIFICATION"
	StateVerified            State = "VERIFIED"
	StateAttested            State = "HEC_ATTESTED"
	StateRejected            State = "REJECTED"
)

// Terminal reports whether the state refuses all further transitions.
func (s State) Terminal() bool {
	return s == StateAttested || s == StateRejected
}

// ApprovalAction names a lifecycle transition in the approval trail.
type ApprovalAction string

const (
	ActionIssued   ApprovalAction = "ISSUED"
	ActionVerified ApprovalAction = "VERIFIED"
	ActionAttested ApprovalAction = "HEC_ATTESTED"
	ActionRejected ApprovalAction = "REJECTED"
)

// Student identifies the credential holder. NationalID and RollNumber double
// as the public-verification secrets and must never leave authenticated
// surfaces.
type Student struct {
	Name               string `json:"name"`
	FatherName         string `json:"father_name"`
	RollNumber         string `json:"roll_number"`
	RegistrationNumber string `json:"registration_number"`
	NationalID         string `json:"national_id"`
	DateOfBirth        string `json:"date_of_birth,omitempty"`
}

// Program describes the course of study.
type Program struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Department    string `json:"department"`
	Faculty       string `json:"faculty,omitempty"`
	DurationYears int    `json:"duration_years,omitempty"`
}

// Academic is the result block printed on the certificate.
type Academic struct {
	SessionStart     string  `json:"session_start,omitempty"`
	SessionEnd       string  `json:"session_end,omitempty"`
	CGPA             float64 `json:"cgpa,omitempty"`
	TotalCreditHours int     `json:"total_credit_hours,omitempty"`
	Division         string  `json:"division,omitempty"`
	Grade            string  `json:"grade,omitempty"`
}

// Attestation is the regulator's endorsement. Present only in HEC_ATTESTED.
type Attestation struct {
	AttestationNumber string    `json:"attestation_number"`
	AttestedBy        string    `json:"attested_by"`
	AttestedAt        time.Time `json:"attested_at"`
	Remarks           string    `json:"remarks,omitempty"`
}

// DegreeRecord is the credential aggregate.
//
// Invariants:
//   - UniversityID is immutable after issuance
//   - State only moves along the lifecycle above
//   - Approvals is append-only and its last entry matches the state's
//     entry action
//   - Attestation is non-nil iff State == HEC_ATTESTED
//   - Version increments on every transition
type DegreeRecord struct {
	ID             domain.DegreeID     `json:"id"`
	UniversityID   domain.UniversityID `json:"university_id"`
	UniversityName string              `json:"university_name"`
	Student        Student             `json:"student"`
	Program        Program             `json:"program"`
	Academic       Academic            `json:"academic"`
	DegreeNumber   string              `json:"degree_number"`
	IssueDate      string              `json:"issue_date"`
	State          State               `json:"state"`
	Attestation    *Attestation        `json:"attestation,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	Approvals      []ApprovalEntry     `json:"approvals"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Version        int                 `json:"version"`
}

// NewDegreeRecord validates the issuance payload and constructs a record in
// PENDING_VERIFICATION with its ISSUED approval entry.
func NewDegreeRecord(id domain.DegreeID, universityID domain.UniversityID, universityName string, student Student, program Program, academic Academic, degreeNumber, issueDate string, issuedBy string, issuedByRole domain.Role, now time.Time) (*DegreeRecord, error) {
	if err := validateStudent(student); err != nil {
		return nil, err
	}
	if err := validateProgram(program); err != nil {
		return nil, err
	}
	if academic.CGPA < 0 || academic.CGPA > 4 {
		return nil, dErrors.New(dErrors.CodeValidation, "cgpa must be between 0.0 and 4.0")
	}
	if degreeNumber == "" {
		degreeNumber = string(id)
	}
	if issueDate == "" {
		issueDate = now.Format("2006-01-02")
	}

	d := &DegreeRecord{
		ID:             id,
		UniversityID:   universityID,
		UniversityName: universityName,
		Student:        trimStudent(student),
		Program:        trimProgram(program),
		Academic:       academic,
		DegreeNumber:   degreeNumber,
		IssueDate:      issueDate,
		State:          StatePendingVerification,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	d.appendApproval(ApprovalEntry{
		ActorID:   issuedBy,
		Role:      issuedByRole,
		Action:    ActionIssued,
		Timestamp: now,
	})
	return d, nil
}

func validateStudent(s Student) error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return dErrors.New(dErrors.CodeValidation, "student name is required")
	case strings.TrimSpace(s.FatherName) == "":
		return dErrors.New(dErrors.CodeValidation, "student father name is required")
	case strings.TrimSpace(s.RollNumber) == "":
		return dErrors.New(dErrors.CodeValidation, "student roll number is required")
	case strings.TrimSpace(s.RegistrationNumber) == "":
		return dErrors.New(dErrors.CodeValidation, "student registration number is required")
	case strings.TrimSpace(s.NationalID) == "":
		return dErrors.New(dErrors.CodeValidation, "student national id is required")
	}
	return nil
}

func validateProgram(p Program) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return dErrors.New(dErrors.CodeValidation, "program name is required")
	case strings.TrimSpace(p.Type) == "":
		return dErrors.New(dErrors.CodeValidation, "program type is required")
	case strings.TrimSpace(p.Department) == "":
		return dErrors.New(dErrors.CodeValidation, "program department is required")
	}
	return nil
}

func trimStudent(s Student) Student {
	s.Name = strings.TrimSpace(s.Name)
	s.FatherName = strings.TrimSpace(s.FatherName)
	s.RollNumber = strings.TrimSpace(s.RollNumber)
	s.RegistrationNumber = strings.TrimSpace(s.RegistrationNumber)
	s.NationalID = strings.TrimSpace(s.NationalID)
	s.DateOfBirth = strings.TrimSpace(s.DateOfBirth)
	return s
}

func trimProgram(p Program) Program {
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToUpper(strings.TrimSpace(p.Type))
	p.Department = strings.TrimSpace(p.Department)
	p.Faculty = strings.TrimSpace(p.Faculty)
	return p
}

// CanVerify checks the PENDING_VERIFICATION → VERIFIED transition.
func (d *DegreeRecord) CanVerify() error {
	switch d.State {
	case StatePendingVerification:
		return nil
	case StateVerified:
		return dErrors.New(dErrors.CodeInvalidState, "degree is already verified")
	default:
		return dErrors.Newf(dErrors.CodeInvalidState, "degree in state %s cannot be verified", d.State)
	}
}

// ApplyVerification transitions to VERIFIED and appends the entry.
func (d *DegreeRecord) ApplyVerification(actorID string, role domain.Role, remarks string, now time.Time) {
	d.State = StateVerified
	d.UpdatedAt = now
	d.appendApproval(ApprovalEntry{
		ActorID:   actorID,
		Role:      role,
		Action:    ActionVerified,
		Timestamp: now,
		Remarks:   remarks,
	})
}

// CanAttest checks the VERIFIED → HEC_ATTESTED transition.
func (d *DegreeRecord) CanAttest() error {
	switch d.State {
	case StateVerified:
		return nil
	case StateAttested:
		return dErrors.New(dErrors.CodeInvalidState, "degree is already attested")
	default:
		return dErrors.New(dErrors.CodeInvalidState, "degree must be verified before attestation")
	}
}

// ApplyAttestation transitions to the terminal HEC_ATTESTED state.
func (d *DegreeRecord) ApplyAttestation(attestationNumber, attestedBy, remarks string, now time.Time) {
	d.State = StateAttested
	d.Attestation = &Attestation{
		AttestationNumber: attestationNumber,
		AttestedBy:        attestedBy,
		AttestedAt:        now,
		Remarks:           remarks,
	}
	d.UpdatedAt = now
	d.appendApproval(ApprovalEntry{
		ActorID:   attestedBy,
		Role:      domain.RoleEmployee,
		Action:    ActionAttested,
		Timestamp: now,
		Remarks:   remarks,
	})
}

// CanReject checks the transition into the terminal REJECTED state.
func (d *DegreeRecord) CanReject() error {
	if d.State.Terminal() {
		return dErrors.Newf(dErrors.CodeInvalidState, "degree in state %s cannot be rejected", d.State)
	}
	return nil
}

// ApplyRejection transitions to REJECTED. Reason must be non-empty; callers
// validate before taking the lock.
func (d *DegreeRecord) ApplyRejection(actorID string, role domain.Role, reason string, now time.Time) {
	d.State = StateRejected
	d.RejectionReason = reason
	d.UpdatedAt = now
	d.appendApproval(ApprovalEntry{
		ActorID:   actorID,
		Role:      role,
		Action:    ActionRejected,
		Timestamp: now,
		Reason:    reason,
	})
}

func (d *DegreeRecord) appendApproval(entry ApprovalEntry) {
	var prev string
	if n := len(d.Approvals); n > 0 {
		prev = d.Approvals[n-1].Digest
	}
	entry.PrevDigest = prev
	entry.Digest = entry.digest()
	d.Approvals = append(d.Approvals, entry)
	d.Version++
}

// Clone deep-copies the record so stores can hand out snapshots.
func (d *DegreeRecord) Clone() *DegreeRecord {
	out := *d
	if d.Attestation != nil {
		att := *d.Attestation
		out.Attestation = &att
	}
	out.Approvals = make([]ApprovalEntry, len(d.Approvals))
	copy(out.Approvals, d.Approvals)
	return &out
}
