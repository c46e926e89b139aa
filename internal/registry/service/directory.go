package service

import (
	"context"
	"errors"
	"strings"

	"sanad/internal/authz"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/sentinel"
)

// ResolveActor maps an authenticated subject ID to its current actor shape.
// Status and permissions come from the directory at call time, never from
// the token, so revoking an account takes effect on the next request. Used
// by the identity middleware; unknown or foreign IDs are an authentication
// failure, not a lookup miss.
func (s *Service) ResolveActor(ctx context.Context, id string) (domain.Actor, error) {
	switch {
	case strings.HasPrefix(id, "HEC_EMP_"):
		e, err := s.employees.FindByID(ctx, domain.EmployeeID(id))
		if err != nil {
			return domain.Actor{}, resolveErr(err)
		}
		return authz.Attach(e.Actor()), nil
	case strings.HasPrefix(id, "USR_"):
		u, err := s.staff.FindByID(ctx, domain.StaffID(id))
		if err != nil {
			return domain.Actor{}, resolveErr(err)
		}
		return authz.Attach(u.Actor()), nil
	default:
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "unknown subject")
	}
}

func resolveErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeUnauthorized, "unknown subject")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "actor lookup failed")
}
