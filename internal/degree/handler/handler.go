// Package handler exposes the degree lifecycle over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sanad/internal/degree/models"
	"sanad/internal/degree/service"
	"sanad/internal/degree/store"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/httputil"
	"sanad/pkg/requestcontext"
)

// Service defines the degree operations the HTTP layer depends on.
type Service interface {
	IssueDegree(ctx context.Context, actor domain.Actor, universityID domain.UniversityID, input service.IssueDegreeInput) (*models.DegreeRecord, error)
	VerifyDegree(ctx context.Context, actor domain.Actor, id domain.DegreeID, remarks string) (*models.DegreeRecord, error)
	AttestDegree(ctx context.Context, actor domain.Actor, id domain.DegreeID, remarks string) (*models.DegreeRecord, error)
	RejectDegree(ctx context.Context, actor domain.Actor, id domain.DegreeID, reason string) (*models.DegreeRecord, error)
	GetDegree(ctx context.Context, actor domain.Actor, id domain.DegreeID) (*models.DegreeRecord, error)
	GetHistory(ctx context.Context, actor domain.Actor, id domain.DegreeID) ([]models.ApprovalEntry, error)
	ListByUniversity(ctx context.Context, actor domain.Actor, universityID domain.UniversityID) ([]*models.DegreeRecord, error)
	ListByStudent(ctx context.Context, actor domain.Actor, nationalID string) ([]*models.DegreeRecord, error)
	Search(ctx context.Context, actor domain.Actor, filter store.Filter) ([]*models.DegreeRecord, error)
}

// Handler wires degree endpoints to the degree service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a degree handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts degree endpoints on the router. Issuance and the
// per-university listing hang off the university subtree so the target scope
// is always explicit in the URL.
func (h *Handler) Register(r chi.Router) {
	r.Post("/universities/{universityID}/degrees", h.HandleIssue)
	r.Get("/universities/{universityID}/degrees", h.HandleListByUniversity)
	r.Route("/degrees", func(r chi.Router) {
		r.Get("/", h.HandleSearch)
		r.Route("/{degreeID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Get("/history", h.HandleHistory)
			r.Post("/verify", h.HandleVerify)
			r.Post("/attest", h.HandleAttest)
			r.Post("/reject", h.HandleReject)
		})
	})
}

// HandleIssue handles POST /universities/{universityID}/degrees.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	universityID, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*IssueDegreeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.IssueDegree(ctx, requestcontext.Actor(ctx), universityID, req.Input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "degree issued",
		"request_id", requestID,
		"degree_id", record.ID,
		"university_id", record.UniversityID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleVerify handles POST /degrees/{degreeID}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "degree verified", h.service.VerifyDegree)
}

// HandleAttest handles POST /degrees/{degreeID}/attest.
func (h *Handler) HandleAttest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "degree attested", h.service.AttestDegree)
}

// transition runs the shared decode-call-respond path for verify and
// attest. Both accept an optional remarks body; an empty body means no
// remarks.
func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	logMsg string,
	op func(ctx context.Context, actor domain.Actor, id domain.DegreeID, remarks string) (*models.DegreeRecord, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseDegreeID(chi.URLParam(r, "degreeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := h.decodeOptional(w, r)
	if !ok {
		return
	}

	record, err := op(ctx, requestcontext.Actor(ctx), id, req.Remarks)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, logMsg,
		"request_id", requestID,
		"degree_id", record.ID,
		"state", record.State,
	)
	httputil.WriteJSON(w, http.StatusOK, record)
}

// decodeOptional decodes a TransitionRequest, treating a missing body as an
// empty one.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request) (TransitionRequest, bool) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
		return req, false
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return req, false
	}
	return req, true
}

// HandleReject handles POST /degrees/{degreeID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseDegreeID(chi.URLParam(r, "degreeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*RejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.RejectDegree(ctx, requestcontext.Actor(ctx), id, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "degree rejected",
		"request_id", requestID,
		"degree_id", record.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleGet handles GET /degrees/{degreeID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDegreeID(chi.URLParam(r, "degreeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.GetDegree(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleHistory handles GET /degrees/{degreeID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDegreeID(chi.URLParam(r, "degreeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.service.GetHistory(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{History: history, Count: len(history)})
}

// HandleListByUniversity handles GET /universities/{universityID}/degrees.
func (h *Handler) HandleListByUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	universityID, err := domain.ParseUniversityID(chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.ListByUniversity(ctx, requestcontext.Actor(ctx), universityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, degreeListResponse{Degrees: records, Count: len(records)})
}

// HandleSearch handles GET /degrees. Query parameters: national_id selects
// the per-student listing; university_id, program_type and state combine
// into a filtered search. University actors are always pinned to their own
// records by the service.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	q := r.URL.Query()

	var (
		records []*models.DegreeRecord
		err     error
	)
	if nationalID := q.Get("national_id"); nationalID != "" {
		records, err = h.service.ListByStudent(ctx, actor, nationalID)
	} else {
		records, err = h.service.Search(ctx, actor, store.Filter{
			UniversityID: domain.UniversityID(q.Get("university_id")),
			ProgramType:  q.Get("program_type"),
			State:        models.State(q.Get("state")),
		})
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, degreeListResponse{Degrees: records, Count: len(records)})
}
