package handler

import (
	"sanad/internal/degree/models"
)

// Degree records serialize through their model JSON tags; lists get a named
// envelope.

type degreeListResponse struct {
	Degrees []*models.DegreeRecord `json:"degrees"`
	Count   int                    `json:"count"`
}

type historyResponse struct {
	History []models.ApprovalEntry `json:"history"`
	Count   int                    `json:"count"`
}
