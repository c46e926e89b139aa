// Package handler exposes the registry over HTTP. Handlers stay thin:
// decode, call the service with the context actor, translate the result.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sanad/internal/registry/models"
	"sanad/internal/registry/service"
	"sanad/pkg/domain"
	"sanad/pkg/platform/httputil"
	"sanad/pkg/requestcontext"
)

// Service defines the registry operations the HTTP layer depends on.
type Service interface {
	RegisterUniversity(ctx context.Context, actor domain.Actor, input service.RegisterUniversityInput) (*models.University, error)
	GetUniversity(ctx context.Context, actor domain.Actor, id domain.UniversityID) (*models.University, error)
	ListUniversities(ctx context.Context, actor domain.Actor) ([]*models.University, error)
	ListUniversitiesByProvince(ctx context.Context, actor domain.Actor, province string) ([]*models.University, error)
	UpdateUniversity(ctx context.Context, actor domain.Actor, id domain.UniversityID, input service.UpdateUniversityInput) (*models.University, error)
	SuspendUniversity(ctx context.Context, actor domain.Actor, id domain.UniversityID, reason string) (*models.University, error)
	ReactivateUniversity(ctx context.Context, actor domain.Actor, id domain.UniversityID) (*models.University, error)
	AddDepartment(ctx context.Context, actor domain.Actor, universityID domain.UniversityID, input service.AddDepartmentInput) (*models.Department, error)
	ListDepartments(ctx context.Context, actor domain.Actor, universityID domain.UniversityID) ([]models.Department, error)

	CreateStaffUser(ctx context.Context, actor domain.Actor, universityID domain.UniversityID, input service.CreateStaffInput) (*models.StaffUser, error)
	GetStaffUser(ctx context.Context, actor domain.Actor, id domain.StaffID) (*models.StaffUser, error)
	GetStaffUserByEmail(ctx context.Context, actor domain.Actor, email string) (*models.StaffUser, error)
	ListStaffByUniversity(ctx context.Context, actor domain.Actor, universityID domain.UniversityID) ([]*models.StaffUser, error)
	ListStaffByRole(ctx context.Context, actor domain.Actor, universityID domain.UniversityID, role domain.Role) ([]*models.StaffUser, error)
	UpdateStaffUser(ctx context.Context, actor domain.Actor, id domain.StaffID, input service.UpdateStaffInput) (*models.StaffUser, error)
	DeactivateStaffUser(ctx context.Context, actor domain.Actor, id domain.StaffID) (*models.StaffUser, error)
	ActivateStaffUser(ctx context.Context, actor domain.Actor, id domain.StaffID) (*models.StaffUser, error)

	CreateEmployee(ctx context.Context, actor domain.Actor, input service.CreateEmployeeInput) (*models.Employee, error)
	GetEmployee(ctx context.Context, actor domain.Actor, id domain.EmployeeID) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, actor domain.Actor, id domain.EmployeeID, input service.UpdateEmployeeInput) (*models.Employee, error)
	ListEmployees(ctx context.Context, actor domain.Actor) ([]*models.Employee, error)
	DeactivateEmployee(ctx context.Context, actor domain.Actor, id domain.EmployeeID) (*models.Employee, error)

	GetStats(ctx context.Context, actor domain.Actor) (*service.Stats, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts registry endpoints on the router. Callers wrap the router
// with the authentication middleware; every route here expects an actor.
func (h *Handler) Register(r chi.Router) {
	r.Route("/universities", func(r chi.Router) {
		r.Post("/", h.HandleRegisterUniversity)
		r.Get("/", h.HandleListUniversities)
		r.Route("/{universityID}", func(r chi.Router) {
			r.Get("/", h.HandleGetUniversity)
			r.Patch("/", h.HandleUpdateUniversity)
			r.Post("/suspend", h.HandleSuspendUniversity)
			r.Post("/reactivate", h.HandleReactivateUniversity)
			r.Post("/departments", h.HandleAddDepartment)
			r.Get("/departments", h.HandleListDepartments)
			r.Post("/staff", h.HandleCreateStaff)
			r.Get("/staff", h.HandleListStaff)
		})
	})
	r.Route("/staff", func(r chi.Router) {
		r.Get("/", h.HandleGetStaffByEmail)
		r.Route("/{staffID}", func(r chi.Router) {
			r.Get("/", h.HandleGetStaff)
			r.Patch("/", h.HandleUpdateStaff)
			r.Post("/deactivate", h.HandleDeactivateStaff)
			r.Post("/activate", h.HandleActivateStaff)
		})
	})
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", h.HandleCreateEmployee)
		r.Get("/", h.HandleListEmployees)
		r.Get("/{employeeID}", h.HandleGetEmployee)
		r.Patch("/{employeeID}", h.HandleUpdateEmployee)
		r.Post("/{employeeID}/deactivate", h.HandleDeactivateEmployee)
	})
	r.Get("/stats", h.HandleStats)
}

// HandleRegisterUniversity handles POST /universities.
func (h *Handler) HandleRegisterUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[*RegisterUniversityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	actor := requestcontext.Actor(ctx)
	university, err := h.service.RegisterUniversity(ctx, actor, req.Input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "university registered",
		"request_id", requestID,
		"university_id", university.ID,
		"code", university.Code,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, university)
}

// HandleListUniversities handles GET /universities with an optional
// ?province= filter.
func (h *Handler) HandleListUniversities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	var (
		universities []*models.University
		err          error
	)
	if province := r.URL.Query().Get("province"); province != "" {
		universities, err = h.service.ListUniversitiesByProvince(ctx, actor, province)
	} else {
		universities, err = h.service.ListUniversities(ctx, actor)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, universityListResponse{Universities: universities, Count: len(universities)})
}

// HandleGetUniversity handles GET /universities/{universityID}.
func (h *Handler) HandleGetUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	university, err := h.service.GetUniversity(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, university)
}

// HandleUpdateUniversity handles PATCH /universities/{universityID}.
func (h *Handler) HandleUpdateUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*UpdateUniversityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	university, err := h.service.UpdateUniversity(ctx, requestcontext.Actor(ctx), id, req.Input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, university)
}

// HandleSuspendUniversity handles POST /universities/{universityID}/suspend.
func (h *Handler) HandleSuspendUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*SuspendUniversityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	university, err := h.service.SuspendUniversity(ctx, requestcontext.Actor(ctx), id, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "university suspended",
		"request_id", requestID,
		"university_id", university.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, university)
}

// HandleReactivateUniversity handles POST /universities/{universityID}/reactivate.
func (h *Handler) HandleReactivateUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	university, err := h.service.ReactivateUniversity(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, university)
}

// HandleAddDepartment handles POST /universities/{universityID}/departments.
func (h *Handler) HandleAddDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*AddDepartmentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	dept, err := h.service.AddDepartment(ctx, requestcontext.Actor(ctx), id, service.AddDepartmentInput{
		Name:    req.Name,
		Code:    req.Code,
		Faculty: req.Faculty,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dept)
}

// HandleListDepartments handles GET /universities/{universityID}/departments.
func (h *Handler) HandleListDepartments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	departments, err := h.service.ListDepartments(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, departmentListResponse{Departments: departments, Count: len(departments)})
}

// HandleCreateStaff handles POST /universities/{universityID}/staff.
func (h *Handler) HandleCreateStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	id, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*CreateStaffRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	staff, err := h.service.CreateStaffUser(ctx, requestcontext.Actor(ctx), id, req.Input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "staff user created",
		"request_id", requestID,
		"staff_id", staff.ID,
		"university_id", staff.UniversityID,
		"role", staff.Role,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, staff)
}

// HandleListStaff handles GET /universities/{universityID}/staff with an
// optional ?role= filter.
func (h *Handler) HandleListStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	id, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var staff []*models.StaffUser
	if role := r.URL.Query().Get("role"); role != "" {
		staff, err = h.service.ListStaffByRole(ctx, actor, id, domain.Role(role))
	} else {
		staff, err = h.service.ListStaffByUniversity(ctx, actor, id)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, staffListResponse{Staff: staff, Count: len(staff)})
}

// HandleGetStaff handles GET /staff/{staffID}.
func (h *Handler) HandleGetStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseStaffID(chi.URLParam(r, "staffID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	staff, err := h.service.GetStaffUser(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, staff)
}

// HandleGetStaffByEmail handles GET /staff?email=.
func (h *Handler) HandleGetStaffByEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	staff, err := h.service.GetStaffUserByEmail(ctx, requestcontext.Actor(ctx), r.URL.Query().Get("email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, staff)
}

// HandleUpdateStaff handles PATCH /staff/{staffID}.
func (h *Handler) HandleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseStaffID(chi.URLParam(r, "staffID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*UpdateStaffRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	staff, err := h.service.UpdateStaffUser(ctx, requestcontext.Actor(ctx), id, req.Input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, staff)
}

// HandleDeactivateStaff handles POST /staff/{staffID}/deactivate.
func (h *Handler) HandleDeactivateStaff(w http.ResponseWriter, r *http.Request) {
	h.setStaffStatus(w, r, false)
}

// HandleActivateStaff handles POST /staff/{staffID}/activate.
func (h *Handler) HandleActivateStaff(w http.ResponseWriter, r *http.Request) {
	h.setStaffStatus(w, r, true)
}

func (h *Handler) setStaffStatus(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()
	id, err := domain.ParseStaffID(chi.URLParam(r, "staffID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor := requestcontext.Actor(ctx)

	var staff *models.StaffUser
	if active {
		staff, err = h.service.ActivateStaffUser(ctx, actor, id)
	} else {
		staff, err = h.service.DeactivateStaffUser(ctx, actor, id)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "staff status changed",
		"request_id", requestcontext.RequestID(ctx),
		"staff_id", staff.ID,
		"status", staff.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, staff)
}

// HandleCreateEmployee handles POST /employees.
func (h *Handler) HandleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*CreateEmployeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	employee, err := h.service.CreateEmployee(ctx, requestcontext.Actor(ctx), req.Input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "employee created",
		"request_id", requestID,
		"employee_id", employee.ID,
		"role", employee.Role,
	)
	httputil.WriteJSON(w, http.StatusCreated, employee)
}

// HandleListEmployees handles GET /employees.
func (h *Handler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employees, err := h.service.ListEmployees(ctx, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employeeListResponse{Employees: employees, Count: len(employees)})
}

// HandleGetEmployee handles GET /employees/{employeeID}.
func (h *Handler) HandleGetEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseEmployeeID(chi.URLParam(r, "employeeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	employee, err := h.service.GetEmployee(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employee)
}

// HandleUpdateEmployee handles PATCH /employees/{employeeID}.
func (h *Handler) HandleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseEmployeeID(chi.URLParam(r, "employeeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*UpdateEmployeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	employee, err := h.service.UpdateEmployee(ctx, requestcontext.Actor(ctx), id, req.Input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employee)
}

// HandleDeactivateEmployee handles POST /employees/{employeeID}/deactivate.
func (h *Handler) HandleDeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseEmployeeID(chi.URLParam(r, "employeeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	employee, err := h.service.DeactivateEmployee(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "employee deactivated",
		"request_id", requestcontext.RequestID(ctx),
		"employee_id", employee.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, employee)
}

// HandleStats handles GET /stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.GetStats(ctx, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
