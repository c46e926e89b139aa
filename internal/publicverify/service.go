// Package publicverify answers unauthenticated degree verification queries.
// It exposes the minimum a prospective employer needs and nothing a fraudster
// could harvest: absent records and mismatched credentials are
// indistinguishable, and the roll number and national ID never appear in a
// response.
package publicverify

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"sanad/internal/degree/models"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/sentinel"
)

// notVerifiedMessage is the single failure message for every non-success
// path. Distinct messages would confirm which degree IDs exist.
const notVerifiedMessage = "degree could not be verified"

// DegreeReader is the slice of the degree store this service needs.
type DegreeReader interface {
	FindByID(ctx context.Context, id domain.DegreeID) (*models.DegreeRecord, error)
}

// PublicDegree is the disclosed subset of a verified record.
type PublicDegree struct {
	ID                string `json:"id"`
	UniversityName    string `json:"university_name"`
	StudentName       string `json:"student_name"`
	ProgramName       string `json:"program_name"`
	ProgramType       string `json:"program_type"`
	IssueDate         string `json:"issue_date"`
	State             string `json:"state"`
	Attested          bool   `json:"hec_attested"`
	AttestationNumber string `json:"attestation_number,omitempty"`
}

// Result is the public verification outcome.
type Result struct {
	Verified bool          `json:"verified"`
	Message  string        `json:"message,omitempty"`
	Degree   *PublicDegree `json:"degree,omitempty"`
}

// Service answers public verification queries.
type Service struct {
	degrees DegreeReader
	limiter Limiter
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLimiter sets the per-client rate limiter.
func WithLimiter(l Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the public verification service.
func New(degrees DegreeReader, opts ...Option) *Service {
	s := &Service{
		degrees: degrees,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify checks a degree ID against the two credentials printed on the
// certificate. clientKey identifies the caller for rate limiting, normally
// the client IP.
func (s *Service) Verify(ctx context.Context, clientKey string, degreeID, nationalID, rollNumber string) (*Result, error) {
	if s.limiter != nil && clientKey != "" {
		allowed, err := s.limiter.Allow(ctx, clientKey)
		if err != nil {
			// A broken limiter must not take the public endpoint down
			// with it; log and let the request through.
			s.logger.ErrorContext(ctx, "rate limiter unavailable", "error", err)
		} else if !allowed {
			if s.metrics != nil {
				s.metrics.IncRateLimited()
			}
			return nil, dErrors.New(dErrors.CodeRateLimited, "too many verification attempts, try again later")
		}
	}

	degreeID = strings.TrimSpace(degreeID)
	nationalID = strings.TrimSpace(nationalID)
	rollNumber = strings.TrimSpace(rollNumber)
	if degreeID == "" || nationalID == "" || rollNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "degree id, national id and roll number are required")
	}

	id, err := domain.ParseDegreeID(degreeID)
	if err != nil {
		return s.notVerified(ctx), nil
	}
	d, err := s.degrees.FindByID(ctx, id)
	if err != nil {
		// Absent records share the mismatch response; store faults do not.
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.notVerified(ctx), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "degree lookup failed")
	}

	// Compare both credentials unconditionally so response timing does not
	// reveal which one failed.
	nationalOK := subtle.ConstantTimeCompare([]byte(d.Student.NationalID), []byte(nationalID))
	rollOK := subtle.ConstantTimeCompare([]byte(d.Student.RollNumber), []byte(rollNumber))
	if nationalOK&rollOK != 1 {
		return s.notVerified(ctx), nil
	}

	if s.metrics != nil {
		s.metrics.IncVerified()
	}
	out := &Result{
		Verified: true,
		Degree: &PublicDegree{
			ID:             string(d.ID),
			UniversityName: d.UniversityName,
			StudentName:    d.Student.Name,
			ProgramName:    d.Program.Name,
			ProgramType:    d.Program.Type,
			IssueDate:      d.IssueDate,
			State:          string(d.State),
		},
	}
	if d.Attestation != nil {
		out.Degree.Attested = true
		out.Degree.AttestationNumber = d.Attestation.AttestationNumber
	}
	return out, nil
}

func (s *Service) notVerified(ctx context.Context) *Result {
	if s.metrics != nil {
		s.metrics.IncNotVerified()
	}
	s.logger.InfoContext(ctx, "public verification failed")
	return &Result{Verified: false, Message: notVerifiedMessage}
}
