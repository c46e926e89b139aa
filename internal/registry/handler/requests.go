package handler

import (
	"strings"

	"sanad/internal/registry/models"
	"sanad/internal/registry/service"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// RegisterUniversityRequest is the HTTP request body for POST /universities.
type RegisterUniversityRequest struct {
	Name            string         `json:"name"`
	Code            string         `json:"code"`
	Type            string         `json:"type"`
	Charter         string         `json:"charter"`
	Address         AddressPayload `json:"address"`
	Contact         ContactPayload `json:"contact"`
	EstablishedYear int            `json:"established_year"`
}

// AddressPayload mirrors the campus address fields of the request body.
type AddressPayload struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
}

// ContactPayload mirrors the administrative contact fields of the request body.
type ContactPayload struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// Validate checks required fields; domain rules live in the service.
func (r *RegisterUniversityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.TrimSpace(r.Code)
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	return nil
}

// Input converts the request into the service input shape.
func (r *RegisterUniversityRequest) Input() service.RegisterUniversityInput {
	return service.RegisterUniversityInput{
		Name:            r.Name,
		Code:            r.Code,
		Type:            models.UniversityType(r.Type),
		Charter:         r.Charter,
		Address:         models.Address(r.Address),
		Contact:         models.Contact(r.Contact),
		EstablishedYear: r.EstablishedYear,
	}
}

// UpdateUniversityRequest is the body for PATCH /universities/{id}. Empty
// fields are left unchanged.
type UpdateUniversityRequest struct {
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	Charter         string         `json:"charter"`
	Address         AddressPayload `json:"address"`
	Contact         ContactPayload `json:"contact"`
	EstablishedYear int            `json:"established_year"`
}

// Validate trims the patch; all fields are optional.
func (r *UpdateUniversityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	return nil
}

// Input converts the request into the service input shape.
func (r *UpdateUniversityRequest) Input() service.UpdateUniversityInput {
	return service.UpdateUniversityInput{
		Name:            r.Name,
		Type:            models.UniversityType(r.Type),
		Charter:         r.Charter,
		Address:         models.Address(r.Address),
		Contact:         models.Contact(r.Contact),
		EstablishedYear: r.EstablishedYear,
	}
}

// SuspendUniversityRequest is the body for POST /universities/{id}/suspend.
type SuspendUniversityRequest struct {
	Reason string `json:"reason"`
}

// Validate requires a non-empty suspension reason.
func (r *SuspendUniversityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// AddDepartmentRequest is the body for POST /universities/{id}/departments.
type AddDepartmentRequest struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Faculty string `json:"faculty"`
}

// Validate checks required department fields.
func (r *AddDepartmentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.TrimSpace(r.Code)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	return nil
}

// CreateStaffRequest is the body for POST /universities/{id}/staff.
type CreateStaffRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
}

// Validate checks required staff fields; role validity is a service concern.
func (r *CreateStaffRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role is required")
	}
	return nil
}

// Input converts the request into the service input shape.
func (r *CreateStaffRequest) Input() service.CreateStaffInput {
	return service.CreateStaffInput{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Role:        domain.Role(r.Role),
		Department:  r.Department,
		Designation: r.Designation,
	}
}

// UpdateStaffRequest is the body for PATCH /staff/{id}. Empty fields are
// left unchanged; a non-empty role triggers a permission recomputation.
type UpdateStaffRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	Role        string `json:"role"`
}

// Validate trims the patch; all fields are optional.
func (r *UpdateStaffRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	return nil
}

// Input converts the request into the service input shape.
func (r *UpdateStaffRequest) Input() service.UpdateStaffInput {
	return service.UpdateStaffInput{
		Name:        r.Name,
		Phone:       r.Phone,
		Department:  r.Department,
		Designation: r.Designation,
		Role:        domain.Role(r.Role),
	}
}

// CreateEmployeeRequest is the body for POST /employees.
type CreateEmployeeRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// Validate checks required employee fields.
func (r *CreateEmployeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role is required")
	}
	return nil
}

// Input converts the request into the service input shape.
func (r *CreateEmployeeRequest) Input() service.CreateEmployeeInput {
	return service.CreateEmployeeInput{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Role:       domain.Role(r.Role),
		Department: r.Department,
	}
}

// UpdateEmployeeRequest is the body for PATCH /employees/{id}. Empty fields
// are left unchanged; a non-empty role triggers a permission recomputation.
type UpdateEmployeeRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

// Validate trims the patch; all fields are optional.
func (r *UpdateEmployeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	return nil
}

// Input converts the request into the service input shape.
func (r *UpdateEmployeeRequest) Input() service.UpdateEmployeeInput {
	return service.UpdateEmployeeInput{
		Name:       r.Name,
		Phone:      r.Phone,
		Department: r.Department,
		Role:       domain.Role(r.Role),
	}
}
