package handler

import (
	"sanad/internal/registry/models"
)

// Entity models carry their own JSON tags, so single-entity responses reuse
// them directly. List responses get a named envelope so clients never see a
// bare JSON array.

type universityListResponse struct {
	Universities []*models.University `json:"universities"`
	Count        int                  `json:"count"`
}

type departmentListResponse struct {
	Departments []models.Department `json:"departments"`
	Count       int                 `json:"count"`
}

type staffListResponse struct {
	Staff []*models.StaffUser `json:"staff"`
	Count int                 `json:"count"`
}

type employeeListResponse struct {
	Employees []*models.Employee `json:"employees"`
	Count     int                `json:"count"`
}
