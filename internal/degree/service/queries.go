package service

import (
	"context"

	"sanad/internal/authz"
	"sanad/internal/degree/models"
	"sanad/internal/degree/store"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// GetDegree returns one record the actor may see.
func (s *Service) GetDegree(ctx context.Context, actor domain.Actor, id domain.DegreeID) (*models.DegreeRecord, error) {
	return s.resolveRecord(ctx, actor, id)
}

// GetHistory returns a record's approval trail after checking the hash
// chain. A broken chain is surfaced, not hidden: a tampered trail is worse
// than an unavailable one.
func (s *Service) GetHistory(ctx context.Context, actor domain.Actor, id domain.DegreeID) ([]models.ApprovalEntry, error) {
	d, err := s.resolveRecord(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := models.VerifyApprovalChain(d.Approvals); err != nil {
		s.logger.ErrorContext(ctx, "approval chain verification failed", "degree_id", id, "error", err)
		return nil, err
	}
	return d.Approvals, nil
}

// ListByUniversity returns a university's records, newest first.
func (s *Service) ListByUniversity(ctx context.Context, actor domain.Actor, universityID domain.UniversityID) ([]*models.DegreeRecord, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !authz.CanRead(actor, authz.Scope{UniversityID: universityID}) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "university %s does not exist", universityID)
	}
	return s.degrees.ListByUniversity(ctx, universityID)
}

// ListByStudent returns a student's records across universities. University
// actors only see the slice their own university issued.
func (s *Service) ListByStudent(ctx context.Context, actor domain.Actor, nationalID string) ([]*models.DegreeRecord, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "national id is required")
	}
	all, err := s.degrees.ListByStudent(ctx, nationalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "degree store failure")
	}
	if actor.IsHEC() {
		return all, nil
	}
	scoped := all[:0]
	for _, d := range all {
		if d.UniversityID == actor.UniversityID {
			scoped = append(scoped, d)
		}
	}
	return scoped, nil
}

// Search returns records matching the filter, newest first. University
// actors are pinned to their own university regardless of the filter they
// send.
func (s *Service) Search(ctx context.Context, actor domain.Actor, filter store.Filter) ([]*models.DegreeRecord, error) {
	if actor.ID == "" || !actor.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !actor.IsHEC() {
		filter.UniversityID = actor.UniversityID
	}
	return s.degrees.Search(ctx, filter)
}
