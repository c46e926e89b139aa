package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"sanad/internal/authz"
	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// Stats is a snapshot of directory sizes for the regulator's dashboard.
type Stats struct {
	Universities    int `json:"universities"`
	ActiveEmployees int `json:"active_employees"`
	Degrees         int `json:"degrees"`
}

// GetStats gathers the counts concurrently. Regulator actors only. The
// degree count is zero when no degree store is wired.
func (s *Service) GetStats(ctx context.Context, actor domain.Actor) (*Stats, error) {
	if err := authz.Authorize(actor, domain.PermViewAll, authz.Global); err != nil {
		return nil, err
	}

	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.universities.Count(ctx)
		if err != nil {
			return err
		}
		stats.Universities = n
		return nil
	})
	g.Go(func() error {
		n, err := s.employees.CountActive(ctx)
		if err != nil {
			return err
		}
		stats.ActiveEmployees = n
		return nil
	})
	if s.degrees != nil {
		g.Go(func() error {
			n, err := s.degrees.Count(ctx)
			if err != nil {
				return err
			}
			stats.Degrees = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to gather statistics")
	}
	return &stats, nil
}
