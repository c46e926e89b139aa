package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sanad/internal/allocator"
	"sanad/internal/audit"
	"sanad/internal/authz"
	"sanad/internal/degree/models"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/sentinel"
	"sanad/pkg/requestcontext"
)

// IssueDegreeInput is the issuance payload. The record's identity fields
// come from the allocator, not the caller.
type IssueDegreeInput struct {
	Student      models.Student
	Program      models.Program
	Academic     models.Academic
	DegreeNumber string
	IssueDate    string
}

// IssueDegree creates a record in PENDING_VERIFICATION. The target
// university must exist and be ACTIVE; suspension blocks new issuance but
// leaves existing records untouched.
func (s *Service) IssueDegree(ctx context.Context, actor domain.Actor, universityID domain.UniversityID, input IssueDegreeInput) (*models.DegreeRecord, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "degree.issue",
		trace.WithAttributes(attribute.String("university.id", string(universityID))))
	defer span.End()

	if err := authz.Authorize(actor, domain.PermIssueDegree, authz.Scope{UniversityID: universityID}); err != nil {
		return nil, err
	}

	universityName, active, err := s.directory.LookupUniversity(ctx, universityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "university %s does not exist", universityID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "university lookup failed")
	}
	if !active {
		return nil, dErrors.New(dErrors.CodeInvalidState, "cannot issue degree from a suspended university")
	}

	seq, err := s.alloc.Next(ctx, allocator.DegreeScope(universityID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate degree id")
	}
	d, err := models.NewDegreeRecord(
		allocator.FormatDegreeID(universityID, seq),
		universityID, universityName,
		input.Student, input.Program, input.Academic,
		input.DegreeNumber, input.IssueDate,
		actor.ID, actor.Role, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.degrees.Create(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store degree record")
	}
	span.SetAttributes(attribute.String("degree.id", string(d.ID)))

	s.emit(ctx, audit.Event{
		ActorID:   actor.ID,
		ActorRole: string(actor.Role),
		Action:    audit.ActionDegreeIssued,
		EntityID:  string(d.ID),
		Scope:     string(universityID),
	})
	if s.metrics != nil {
		s.metrics.IncIssued()
		s.metrics.ObserveIssue(start)
	}
	s.logger.InfoContext(ctx, "degree issued",
		"degree_id", d.ID,
		"university_id", universityID,
		"program_type", d.Program.Type,
		"issued_by", actor.ID,
	)
	return d, nil
}

// VerifyDegree moves a pending record to VERIFIED. Only the issuing
// university's vice chancellor or registrar may verify.
func (s *Service) VerifyDegree(ctx context.Context, actor domain.Actor, id domain.DegreeID, remarks string) (*models.DegreeRecord, error) {
	ctx, span := s.tracer.Start(ctx, "degree.verify",
		trace.WithAttributes(attribute.String("degree.id", string(id))))
	defer span.End()

	record, err := s.resolveRecord(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	perm, err := verifierPermission(actor)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, perm, authz.Scope{UniversityID: record.UniversityID}); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	d, err := s.degrees.Execute(ctx, id,
		func(d *models.DegreeRecord) error { return d.CanVerify() },
		func(d *models.DegreeRecord) { d.ApplyVerification(actor.ID, actor.Role, remarks, now) },
	)
	if err != nil {
		return nil, wrapDegreeErr(err, id)
	}

	s.emit(ctx, audit.Event{
		ActorID:   actor.ID,
		ActorRole: string(actor.Role),
		Action:    audit.ActionDegreeVerified,
		EntityID:  string(id),
		Scope:     string(d.UniversityID),
	})
	if s.metrics != nil {
		s.metrics.IncVerified()
	}
	s.logger.InfoContext(ctx, "degree verified",
		"degree_id", id,
		"verified_by", actor.ID,
		"role", actor.Role,
	)
	return d, nil
}

// AttestDegree is the regulator's terminal endorsement of a VERIFIED record.
// The attestation number comes from a dedicated counter so concurrent
// attestations never collide.
func (s *Service) AttestDegree(ctx context.Context, actor domain.Actor, id domain.DegreeID, remarks string) (*models.DegreeRecord, error) {
	ctx, span := s.tracer.Start(ctx, "degree.attest",
		trace.WithAttributes(attribute.String("degree.id", string(id))))
	defer span.End()

	record, err := s.resolveRecord(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsHEC() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the regulator may attest degrees")
	}
	if err := authz.Authorize(actor, domain.PermAttestDegree, authz.Global); err != nil {
		return nil, err
	}
	// Fail fast on an unattestable snapshot before burning a number; the
	// Execute callback re-validates under the lock.
	if err := record.CanAttest(); err != nil {
		return nil, err
	}

	seq, err := s.alloc.Next(ctx, allocator.ScopeAttestation)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate attestation number")
	}
	attestationNumber := allocator.FormatAttestationNumber(seq)

	now := requestcontext.Now(ctx)
	d, err := s.degrees.Execute(ctx, id,
		func(d *models.DegreeRecord) error { return d.CanAttest() },
		func(d *models.DegreeRecord) { d.ApplyAttestation(attestationNumber, actor.ID, remarks, now) },
	)
	if err != nil {
		return nil, wrapDegreeErr(err, id)
	}
	span.SetAttributes(attribute.String("degree.attestation_number", attestationNumber))

	s.emit(ctx, audit.Event{
		ActorID:  actor.ID,
		Action:   audit.ActionDegreeAttested,
		EntityID: string(id),
		Scope:    string(d.UniversityID),
	})
	if s.metrics != nil {
		s.metrics.IncAttested()
	}
	s.logger.InfoContext(ctx, "degree attested",
		"degree_id", id,
		"attestation_number", attestationNumber,
		"attested_by", actor.ID,
	)
	return d, nil
}

// RejectDegree moves a non-terminal record to REJECTED. A reason is
// mandatory; it ends up in both the approval trail and the audit log.
func (s *Service) RejectDegree(ctx context.Context, actor domain.Actor, id domain.DegreeID, reason string) (*models.DegreeRecord, error) {
	ctx, span := s.tracer.Start(ctx, "degree.reject",
		trace.WithAttributes(attribute.String("degree.id", string(id))))
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}

	record, err := s.resolveRecord(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.IsHEC() {
		if err := authz.Authorize(actor, domain.PermAttestDegree, authz.Global); err != nil {
			return nil, err
		}
	} else {
		perm, err := verifierPermission(actor)
		if err != nil {
			return nil, err
		}
		if err := authz.Authorize(actor, perm, authz.Scope{UniversityID: record.UniversityID}); err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	d, err := s.degrees.Execute(ctx, id,
		func(d *models.DegreeRecord) error { return d.CanReject() },
		func(d *models.DegreeRecord) { d.ApplyRejection(actor.ID, actor.Role, reason, now) },
	)
	if err != nil {
		return nil, wrapDegreeErr(err, id)
	}

	s.emit(ctx, audit.Event{
		ActorID:   actor.ID,
		ActorRole: string(actor.Role),
		Action:    audit.ActionDegreeRejected,
		EntityID:  string(id),
		Scope:     string(d.UniversityID),
		Reason:    reason,
	})
	if s.metrics != nil {
		s.metrics.IncRejected()
	}
	s.logger.WarnContext(ctx, "degree rejected",
		"degree_id", id,
		"rejected_by", actor.ID,
		"reason", reason,
	)
	return d, nil
}

// verifierPermission maps the two verifying roles to the permission each
// one actually holds. Any other role cannot verify or reject.
func verifierPermission(actor domain.Actor) (domain.Permission, error) {
	switch actor.Role {
	case domain.RoleVC:
		return domain.PermApproveDegree, nil
	case domain.RoleRegistrar:
		return domain.PermVerifyDegree, nil
	default:
		return "", dErrors.New(dErrors.CodeForbidden, "only the vice chancellor or registrar may act on degree verification")
	}
}

// resolveRecord loads a record the actor is allowed to see. Records outside
// a university actor's tenant read as absent so foreign degree IDs are
// never confirmed.
func (s *Service) resolveRecord(ctx context.Context, actor domain.Actor, id domain.DegreeID) (*models.DegreeRecord, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	d, err := s.degrees.FindByID(ctx, id)
	if err != nil {
		return nil, wrapDegreeErr(err, id)
	}
	if !authz.CanRead(actor, authz.Scope{UniversityID: d.UniversityID}) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "degree %s does not exist", id)
	}
	return d, nil
}

func wrapDegreeErr(err error, id domain.DegreeID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "degree %s does not exist", id)
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "degree store failure")
	}
}
