package handler

import (
	"strings"

	"sanad/internal/degree/models"
	"sanad/internal/degree/service"
	dErrors "sanad/pkg/domain-errors"
)

// IssueDegreeRequest is the body for POST /universities/{id}/degrees.
type IssueDegreeRequest struct {
	Student      StudentPayload  `json:"student"`
	Program      ProgramPayload  `json:"program"`
	Academic     AcademicPayload `json:"academic"`
	DegreeNumber string          `json:"degree_number"`
	IssueDate    string          `json:"issue_date"`
}

// StudentPayload mirrors the student block of the issuance body.
type StudentPayload struct {
	Name               string `json:"name"`
	FatherName         string `json:"father_name"`
	RollNumber         string `json:"roll_number"`
	RegistrationNumber string `json:"registration_number"`
	NationalID         string `json:"national_id"`
	DateOfBirth        string `json:"date_of_birth"`
}

// ProgramPayload mirrors the program block of the issuance body.
type ProgramPayload struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Department    string `json:"department"`
	Faculty       string `json:"faculty"`
	DurationYears int    `json:"duration_years"`
}

// AcademicPayload mirrors the result block of the issuance body.
type AcademicPayload struct {
	SessionStart     string  `json:"session_start"`
	SessionEnd       string  `json:"session_end"`
	CGPA             float64 `json:"cgpa"`
	TotalCreditHours int     `json:"total_credit_hours"`
	Division         string  `json:"division"`
	Grade            string  `json:"grade"`
}

// Validate checks the fields a record cannot exist without; the full
// aggregate validation runs in the model constructor.
func (r *IssueDegreeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Student.Name = strings.TrimSpace(r.Student.Name)
	r.Student.NationalID = strings.TrimSpace(r.Student.NationalID)
	r.Student.RollNumber = strings.TrimSpace(r.Student.RollNumber)
	r.Program.Name = strings.TrimSpace(r.Program.Name)
	if r.Student.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "student.name is required")
	}
	if r.Student.NationalID == "" {
		return dErrors.New(dErrors.CodeValidation, "student.national_id is required")
	}
	if r.Student.RollNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "student.roll_number is required")
	}
	if r.Program.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "program.name is required")
	}
	return nil
}

// Input converts the request into the service input shape.
func (r *IssueDegreeRequest) Input() service.IssueDegreeInput {
	return service.IssueDegreeInput{
		Student:      models.Student(r.Student),
		Program:      models.Program(r.Program),
		Academic:     models.Academic(r.Academic),
		DegreeNumber: r.DegreeNumber,
		IssueDate:    r.IssueDate,
	}
}

// TransitionRequest is the body for verify and attest calls; remarks are
// optional operator notes carried into the approval trail.
type TransitionRequest struct {
	Remarks string `json:"remarks"`
}

// Validate trims the optional remarks.
func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Remarks = strings.TrimSpace(r.Remarks)
	return nil
}

// RejectRequest is the body for POST /degrees/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Validate requires a non-empty rejection reason.
func (r *RejectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}
