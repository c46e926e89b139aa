package publicverify

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/httputil"
	"sanad/pkg/requestcontext"
)

// VerifyRequest is the body for POST /public/verify: the three values
// printed on a degree certificate.
type VerifyRequest struct {
	DegreeID   string `json:"degree_id"`
	NationalID string `json:"national_id"`
	RollNumber string `json:"roll_number"`
}

// Validate requires all three certificate values.
func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.DegreeID = strings.TrimSpace(r.DegreeID)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.RollNumber = strings.TrimSpace(r.RollNumber)
	if r.DegreeID == "" {
		return dErrors.New(dErrors.CodeValidation, "degree_id is required")
	}
	if r.NationalID == "" {
		return dErrors.New(dErrors.CodeValidation, "national_id is required")
	}
	if r.RollNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "roll_number is required")
	}
	return nil
}

// Handler exposes the unauthenticated verification endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs the public verification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the public endpoint. This route must stay outside the
// authentication middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/public/verify", h.HandleVerify)
}

// HandleVerify handles POST /public/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*VerifyRequest](w, r, h.service.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, requestcontext.ClientIP(ctx), req.DegreeID, req.NationalID, req.RollNumber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
