package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sanad/internal/allocator"
	"sanad/internal/authz"
	"sanad/internal/degree/service"
	"sanad/internal/degree/store"
	"sanad/pkg/domain"
	"sanad/pkg/platform/sentinel"
	"sanad/pkg/requestcontext"
)

// fixedDirectory serves a static university table for handler tests.
type fixedDirectory struct{}

func (fixedDirectory) LookupUniversity(_ context.Context, id domain.UniversityID) (string, bool, error) {
	switch id {
	case "UNI_0001":
		return "Quaid-i-Azam University", true, nil
	case "UNI_0002":
		return "NED University", true, nil
	default:
		return "", false, sentinel.ErrNotFound
	}
}

// DegreeHandlerSuite drives the degree HTTP surface against a memory-backed
// service.
type DegreeHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestDegreeHandlerSuite(t *testing.T) {
	suite.Run(t, new(DegreeHandlerSuite))
}

func (s *DegreeHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), fixedDirectory{}, allocator.NewInMemory(),
		service.WithLogger(logger))
	s.router = chi.NewRouter()
	New(svc, logger).Register(s.router)
}

func actorFor(role domain.Role, universityID domain.UniversityID) domain.Actor {
	return authz.Attach(domain.Actor{
		ID:           "USR_" + string(universityID) + "_0009",
		OrgType:      domain.OrgUniversity,
		Role:         role,
		UniversityID: universityID,
		Status:       domain.ActorActive,
	})
}

func hecEmployee() domain.Actor {
	return authz.Attach(domain.Actor{
		ID:      "HEC_EMP_0002",
		OrgType: domain.OrgHEC,
		Role:    domain.RoleEmployee,
		Status:  domain.ActorActive,
	})
}

func (s *DegreeHandlerSuite) do(actor domain.Actor, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	ctx := requestcontext.WithActor(req.Context(), actor)
	ctx = requestcontext.WithRequestID(ctx, "test-request")
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func issueBody() map[string]any {
	return map[string]any{
		"student": map[string]any{
			"name":        "Hassan Raza",
			"father_name": "Muhammad Raza",
			"roll_number": "BCS-2020-013",
			"national_id": "61101-1234567-1",
		},
		"program": map[string]any{
			"name":       "Bachelor of Science in Computer Science",
			"type":       "BS",
			"department": "Computer Science",
		},
		"academic": map[string]any{
			"cgpa": 3.4,
		},
	}
}

func (s *DegreeHandlerSuite) issue() string {
	w := s.do(actorFor(domain.RoleRegistrar, "UNI_0001"), http.MethodPost, "/universities/UNI_0001/degrees", issueBody())
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["id"].(string)
}

// =========================================================================
// Issuance
// =========================================================================

func (s *DegreeHandlerSuite) TestIssue() {
	s.Run("controller issues into own university", func() {
		id := s.issue()
		assert.Equal(s.T(), "DEG_UNI_0001_000001", id)
	})

	s.Run("missing student block is a validation error", func() {
		w := s.do(actorFor(domain.RoleRegistrar, "UNI_0001"), http.MethodPost, "/universities/UNI_0001/degrees", map[string]any{
			"program": map[string]any{"name": "BS", "type": "BS"},
		})
		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	})

	s.Run("cross-tenant issuance is forbidden", func() {
		w := s.do(actorFor(domain.RoleRegistrar, "UNI_0002"), http.MethodPost, "/universities/UNI_0001/degrees", issueBody())
		assert.Equal(s.T(), http.StatusForbidden, w.Code)
	})

	s.Run("unknown university is not found", func() {
		w := s.do(actorFor(domain.RoleRegistrar, "UNI_9999"), http.MethodPost, "/universities/UNI_9999/degrees", issueBody())
		assert.Equal(s.T(), http.StatusNotFound, w.Code)
	})
}

// =========================================================================
// Lifecycle transitions
// =========================================================================

func (s *DegreeHandlerSuite) TestLifecycle() {
	id := s.issue()
	registrar := actorFor(domain.RoleRegistrar, "UNI_0001")

	s.Run("registrar verifies with remarks", func() {
		w := s.do(registrar, http.MethodPost, "/degrees/"+id+"/verify", map[string]any{
			"remarks": "records checked",
		})
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		var resp map[string]any
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), "VERIFIED", resp["state"])
	})

	s.Run("verify accepts an empty body", func() {
		other := s.issue()
		w := s.do(registrar, http.MethodPost, "/degrees/"+other+"/verify", nil)
		assert.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	})

	s.Run("double verification conflicts", func() {
		w := s.do(registrar, http.MethodPost, "/degrees/"+id+"/verify", nil)
		assert.Equal(s.T(), http.StatusConflict, w.Code)
	})

	s.Run("regulator attests a verified degree", func() {
		w := s.do(hecEmployee(), http.MethodPost, "/degrees/"+id+"/attest", nil)
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		var resp map[string]any
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), "HEC_ATTESTED", resp["state"])
		attestation := resp["attestation"].(map[string]any)
		assert.Equal(s.T(), "HEC-ATT-000001", attestation["attestation_number"])
	})

	s.Run("history shows the full chain", func() {
		w := s.do(hecEmployee(), http.MethodGet, "/degrees/"+id+"/history", nil)
		require.Equal(s.T(), http.StatusOK, w.Code)
		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), 3, resp.Count)
	})
}

func (s *DegreeHandlerSuite) TestReject() {
	id := s.issue()

	s.Run("reason is required", func() {
		w := s.do(actorFor(domain.RoleRegistrar, "UNI_0001"), http.MethodPost, "/degrees/"+id+"/reject", map[string]any{})
		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	})

	s.Run("registrar rejects with a reason", func() {
		w := s.do(actorFor(domain.RoleRegistrar, "UNI_0001"), http.MethodPost, "/degrees/"+id+"/reject", map[string]any{
			"reason": "transcript mismatch",
		})
		require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
		var resp map[string]any
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), "REJECTED", resp["state"])
	})

	s.Run("terminal record refuses further transitions", func() {
		w := s.do(actorFor(domain.RoleRegistrar, "UNI_0001"), http.MethodPost, "/degrees/"+id+"/verify", nil)
		assert.Equal(s.T(), http.StatusConflict, w.Code)
	})
}

// =========================================================================
// Queries
// =========================================================================

func (s *DegreeHandlerSuite) TestQueries() {
	id := s.issue()

	s.Run("owner reads the record", func() {
		w := s.do(actorFor(domain.RoleHOD, "UNI_0001"), http.MethodGet, "/degrees/"+id, nil)
		assert.Equal(s.T(), http.StatusOK, w.Code)
	})

	s.Run("cross-tenant read is not found", func() {
		w := s.do(actorFor(domain.RoleHOD, "UNI_0002"), http.MethodGet, "/degrees/"+id, nil)
		assert.Equal(s.T(), http.StatusNotFound, w.Code)
	})

	s.Run("university listing carries the envelope", func() {
		w := s.do(hecEmployee(), http.MethodGet, "/universities/UNI_0001/degrees", nil)
		require.Equal(s.T(), http.StatusOK, w.Code)
		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), 1, resp.Count)
	})

	s.Run("student query selects by national id", func() {
		w := s.do(hecEmployee(), http.MethodGet, "/degrees?national_id=61101-1234567-1", nil)
		require.Equal(s.T(), http.StatusOK, w.Code)
		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), 1, resp.Count)
	})

	s.Run("state filter matches pending records", func() {
		w := s.do(hecEmployee(), http.MethodGet, "/degrees?state=PENDING_VERIFICATION&program_type=BS", nil)
		require.Equal(s.T(), http.StatusOK, w.Code)
		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), 1, resp.Count)
	})
}
