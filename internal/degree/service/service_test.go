package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"sanad/internal/allocator"
	"sanad/internal/audit"
	"sanad/internal/authz"
	"sanad/internal/degree/models"
	"sanad/internal/degree/store"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/sentinel"
	"sanad/pkg/requestcontext"
)

// =============================================================================
// Degree Service Test Suite
// =============================================================================
// The lifecycle engine carries the state machine, the per-role verification
// rules, and the serialisation guarantee for racing transitions. All of it
// is exercised here against the in-memory store; the Postgres store shares
// the Execute contract and is covered by integration tests.

type stubUniversity struct {
	name   string
	active bool
}

type stubDirectory struct {
	mu           sync.Mutex
	universities map[domain.UniversityID]stubUniversity
}

func (d *stubDirectory) LookupUniversity(_ context.Context, id domain.UniversityID) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.universities[id]
	if !ok {
		return "", false, sentinel.ErrNotFound
	}
	return u.name, u.active, nil
}

type DegreeServiceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	directory *stubDirectory
	audits    *audit.InMemoryStore
	service   *Service
}

func TestDegreeServiceSuite(t *testing.T) {
	suite.Run(t, new(DegreeServiceSuite))
}

func (s *DegreeServiceSuite) SetupTest() {
	s.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.directory = &stubDirectory{universities: map[domain.UniversityID]stubUniversity{
		"UNI_0001": {name: "Quaid-i-Azam University", active: true},
		"UNI_0002": {name: "Punjab University", active: true},
		"UNI_0003": {name: "Suspended University", active: false},
	}}
	s.audits = audit.NewInMemoryStore()
	s.service = New(
		store.NewInMemory(),
		s.directory,
		allocator.NewInMemory(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(audit.NewPublisher(s.audits)),
	)
}

func (s *DegreeServiceSuite) actor(universityID domain.UniversityID, role domain.Role) domain.Actor {
	return domain.Actor{
		ID:           "USR_" + string(universityID) + "_0009",
		OrgType:      domain.OrgUniversity,
		Role:         role,
		UniversityID: universityID,
		Status:       domain.ActorActive,
		Permissions:  authz.PermissionsFor(domain.OrgUniversity, role),
	}
}

func (s *DegreeServiceSuite) hecOfficer() domain.Actor {
	return domain.Actor{
		ID:          "HEC_EMP_0002",
		OrgType:     domain.OrgHEC,
		Role:        domain.RoleEmployee,
		Status:      domain.ActorActive,
		Permissions: authz.PermissionsFor(domain.OrgHEC, domain.RoleEmployee),
	}
}

func (s *DegreeServiceSuite) issueInput() IssueDegreeInput {
	return IssueDegreeInput{
		Student: models.Student{
			Name:               "Ali Hassan",
			FatherName:         "Hassan Raza",
			RollNumber:         "CS-171234",
			RegistrationNumber: "2017-QAU-1234",
			NationalID:         "61101-1234567-1",
		},
		Program:  models.Program{Name: "BS Computer Science", Type: "BS", Department: "Computer Science"},
		Academic: models.Academic{CGPA: 3.4, TotalCreditHours: 133},
	}
}

func (s *DegreeServiceSuite) issue(universityID domain.UniversityID) *models.DegreeRecord {
	d, err := s.service.IssueDegree(s.ctx, s.actor(universityID, domain.RoleRegistrar), universityID, s.issueInput())
	s.Require().NoError(err)
	return d
}

// =============================================================================
// Issuance Tests
// =============================================================================

func (s *DegreeServiceSuite) TestIssueDegree() {
	s.Run("registrar issues for own university", func() {
		d := s.issue("UNI_0001")
		s.Equal(domain.DegreeID("DEG_UNI_0001_000001"), d.ID)
		s.Equal("Quaid-i-Azam University", d.UniversityName)
		s.Equal(models.StatePendingVerification, d.State)
		s.Equal(string(d.ID), d.DegreeNumber)
		s.Require().Len(d.Approvals, 1)
		s.Equal(models.ActionIssued, d.Approvals[0].Action)

		events, err := s.audits.ListByEntity(s.ctx, string(d.ID))
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionDegreeIssued, events[0].Action)
	})

	s.Run("sequences are per university", func() {
		d1 := s.issue("UNI_0001")
		d2 := s.issue("UNI_0002")
		s.Equal(domain.DegreeID("DEG_UNI_0001_000002"), d1.ID)
		s.Equal(domain.DegreeID("DEG_UNI_0002_000001"), d2.ID)
	})

	s.Run("suspended university cannot issue", func() {
		_, err := s.service.IssueDegree(s.ctx, s.actor("UNI_0003", domain.RoleRegistrar), "UNI_0003", s.issueInput())
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Contains(err.Error(), "suspended")
	})

	s.Run("unknown university is not found", func() {
		_, err := s.service.IssueDegree(s.ctx, s.actor("UNI_9999", domain.RoleRegistrar), "UNI_9999", s.issueInput())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("regulator holds no issue permission", func() {
		_, err := s.service.IssueDegree(s.ctx, s.hecOfficer(), "UNI_0001", s.issueInput())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("cross-tenant issuance is forbidden", func() {
		_, err := s.service.IssueDegree(s.ctx, s.actor("UNI_0002", domain.RoleRegistrar), "UNI_0001", s.issueInput())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("vice chancellor holds no issue permission", func() {
		_, err := s.service.IssueDegree(s.ctx, s.actor("UNI_0001", domain.RoleVC), "UNI_0001", s.issueInput())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("incomplete student block is rejected", func() {
		input := s.issueInput()
		input.Student.RegistrationNumber = ""
		_, err := s.service.IssueDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), "UNI_0001", input)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Verification Tests
// =============================================================================

func (s *DegreeServiceSuite) TestVerifyDegree() {
	s.Run("registrar verifies", func() {
		d := s.issue("UNI_0001")
		got, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), d.ID, "records match")
		s.Require().NoError(err)
		s.Equal(models.StateVerified, got.State)
		s.Equal(2, got.Version)
		s.Equal(models.ActionVerified, got.Approvals[1].Action)
		s.Equal(got.Approvals[0].Digest, got.Approvals[1].PrevDigest)
	})

	s.Run("vice chancellor verifies", func() {
		d := s.issue("UNI_0001")
		got, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleVC), d.ID, "")
		s.Require().NoError(err)
		s.Equal(models.StateVerified, got.State)
	})

	s.Run("other roles may not verify", func() {
		d := s.issue("UNI_0001")
		for _, role := range []domain.Role{domain.RoleController, domain.RoleDean, domain.RoleHOD, domain.RoleAdmin} {
			_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", role), d.ID, "")
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "role %s", role)
		}
	})

	s.Run("regulator may not verify", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.VerifyDegree(s.ctx, s.hecOfficer(), d.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("cross-tenant record reads as absent", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0002", domain.RoleRegistrar), d.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("double verification is an invalid state", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), d.ID, "")
		s.Require().NoError(err)
		_, err = s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleVC), d.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *DegreeServiceSuite) TestConcurrentVerification() {
	d := s.issue("UNI_0001")
	registrar := s.actor("UNI_0001", domain.RoleRegistrar)

	const racers = 16
	var mu sync.Mutex
	var okCount, invalidCount int

	g := new(errgroup.Group)
	for i := 0; i < racers; i++ {
		g.Go(func() error {
			_, err := s.service.VerifyDegree(s.ctx, registrar, d.ID, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case dErrors.HasCode(err, dErrors.CodeInvalidState):
				invalidCount++
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(1, okCount, "exactly one racer must win")
	s.Equal(racers-1, invalidCount)

	got, err := s.service.GetDegree(s.ctx, registrar, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StateVerified, got.State)
	s.Equal(2, got.Version)
	s.Len(got.Approvals, 2)
}

// =============================================================================
// Attestation Tests
// =============================================================================

func (s *DegreeServiceSuite) TestAttestDegree() {
	s.Run("regulator attests a verified degree", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), d.ID, "")
		s.Require().NoError(err)

		got, err := s.service.AttestDegree(s.ctx, s.hecOfficer(), d.ID, "all documents in order")
		s.Require().NoError(err)
		s.Equal(models.StateAttested, got.State)
		s.Require().NotNil(got.Attestation)
		s.Equal("HEC-ATT-000001", got.Attestation.AttestationNumber)
		s.Equal("HEC_EMP_0002", got.Attestation.AttestedBy)
		s.Equal(models.ActionAttested, got.Approvals[2].Action)
	})

	s.Run("attestation numbers are sequential", func() {
		d := s.issue("UNI_0002")
		_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0002", domain.RoleVC), d.ID, "")
		s.Require().NoError(err)
		got, err := s.service.AttestDegree(s.ctx, s.hecOfficer(), d.ID, "")
		s.Require().NoError(err)
		s.Equal("HEC-ATT-000002", got.Attestation.AttestationNumber)
	})

	s.Run("pending degree cannot be attested", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.AttestDegree(s.ctx, s.hecOfficer(), d.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Contains(err.Error(), "must be verified before attestation")
	})

	s.Run("university actors may not attest", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), d.ID, "")
		s.Require().NoError(err)
		_, err = s.service.AttestDegree(s.ctx, s.actor("UNI_0001", domain.RoleVC), d.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("attested degree refuses a second attestation", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), d.ID, "")
		s.Require().NoError(err)
		_, err = s.service.AttestDegree(s.ctx, s.hecOfficer(), d.ID, "")
		s.Require().NoError(err)
		_, err = s.service.AttestDegree(s.ctx, s.hecOfficer(), d.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

// =============================================================================
// Rejection Tests
// =============================================================================

func (s *DegreeServiceSuite) TestRejectDegree() {
	s.Run("reason is mandatory", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.RejectDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), d.ID, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("registrar rejects a pending degree", func() {
		d := s.issue("UNI_0001")
		got, err := s.service.RejectDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), d.ID, "transcript mismatch")
		s.Require().NoError(err)
		s.Equal(models.StateRejected, got.State)
		s.Equal("transcript mismatch", got.RejectionReason)

		events, err := s.audits.ListByEntity(s.ctx, string(d.ID))
		s.Require().NoError(err)
		last := events[len(events)-1]
		s.Equal(audit.ActionDegreeRejected, last.Action)
		s.Equal("transcript mismatch", last.Reason)
	})

	s.Run("regulator rejects a verified degree", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleVC), d.ID, "")
		s.Require().NoError(err)
		got, err := s.service.RejectDegree(s.ctx, s.hecOfficer(), d.ID, "forged attestation request")
		s.Require().NoError(err)
		s.Equal(models.StateRejected, got.State)
	})

	s.Run("terminal degrees refuse rejection", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.RejectDegree(s.ctx, s.actor("UNI_0001", domain.RoleVC), d.ID, "first")
		s.Require().NoError(err)
		_, err = s.service.RejectDegree(s.ctx, s.actor("UNI_0001", domain.RoleVC), d.ID, "second")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("non-verifier roles may not reject", func() {
		d := s.issue("UNI_0001")
		_, err := s.service.RejectDegree(s.ctx, s.actor("UNI_0001", domain.RoleHOD), d.ID, "because")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// =============================================================================
// Query Tests
// =============================================================================

func (s *DegreeServiceSuite) TestHistoryAndQueries() {
	d := s.issue("UNI_0001")
	_, err := s.service.VerifyDegree(s.ctx, s.actor("UNI_0001", domain.RoleRegistrar), d.ID, "ok")
	s.Require().NoError(err)
	_, err = s.service.AttestDegree(s.ctx, s.hecOfficer(), d.ID, "")
	s.Require().NoError(err)

	s.Run("history returns the verified chain", func() {
		entries, err := s.service.GetHistory(s.ctx, s.hecOfficer(), d.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 3)
		s.Equal(models.ActionIssued, entries[0].Action)
		s.Equal(models.ActionVerified, entries[1].Action)
		s.Equal(models.ActionAttested, entries[2].Action)
		s.NoError(models.VerifyApprovalChain(entries))
	})

	s.Run("cross-tenant history reads as absent", func() {
		_, err := s.service.GetHistory(s.ctx, s.actor("UNI_0002", domain.RoleVC), d.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("list by university is newest first", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
		d2, err := s.service.IssueDegree(later, s.actor("UNI_0001", domain.RoleRegistrar), "UNI_0001", s.issueInput())
		s.Require().NoError(err)

		list, err := s.service.ListByUniversity(s.ctx, s.actor("UNI_0001", domain.RoleVC), "UNI_0001")
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal(d2.ID, list[0].ID)
	})

	s.Run("student list is tenant scoped", func() {
		other, err := s.service.IssueDegree(s.ctx, s.actor("UNI_0002", domain.RoleRegistrar), "UNI_0002", s.issueInput())
		s.Require().NoError(err)

		all, err := s.service.ListByStudent(s.ctx, s.hecOfficer(), "61101-1234567-1")
		s.Require().NoError(err)
		s.GreaterOrEqual(len(all), 2)

		scoped, err := s.service.ListByStudent(s.ctx, s.actor("UNI_0002", domain.RoleVC), "61101-1234567-1")
		s.Require().NoError(err)
		s.Require().Len(scoped, 1)
		s.Equal(other.ID, scoped[0].ID)
	})

	s.Run("search pins university actors to their tenant", func() {
		results, err := s.service.Search(s.ctx, s.actor("UNI_0002", domain.RoleVC), store.Filter{UniversityID: "UNI_0001"})
		s.Require().NoError(err)
		for _, r := range results {
			s.Equal(domain.UniversityID("UNI_0002"), r.UniversityID)
		}
	})

	s.Run("search filters by state for the regulator", func() {
		results, err := s.service.Search(s.ctx, s.hecOfficer(), store.Filter{State: models.StateAttested})
		s.Require().NoError(err)
		s.Require().Len(results, 1)
		s.Equal(d.ID, results[0].ID)
	})
}
