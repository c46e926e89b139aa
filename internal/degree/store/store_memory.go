// Package store persists degree records. The in-memory variant backs unit
// tests and single-node deployments; Execute serialises concurrent
// transitions per record the same way the Postgres variant does with row
// locks.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sanad/internal/degree/models"
	"sanad/pkg/domain"
	"sanad/pkg/platform/sentinel"
)

// Filter narrows a degree search. Zero fields match everything.
type Filter struct {
	UniversityID domain.UniversityID
	ProgramType  string
	State        models.State
}

// InMemory is a mutex-guarded degree store.
type InMemory struct {
	mu   sync.RWMutex
	byID map[domain.DegreeID]*models.DegreeRecord
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[domain.DegreeID]*models.DegreeRecord)}
}

// Create inserts a new record. IDs are allocator-issued, so a collision is
// an infrastructure fault rather than user error.
func (s *InMemory) Create(_ context.Context, d *models.DegreeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byID[d.ID]; taken {
		return sentinel.ErrConflict
	}
	s.byID[d.ID] = d.Clone()
	return nil
}

// FindByID returns a copy of the record.
func (s *InMemory) FindByID(_ context.Context, id domain.DegreeID) (*models.DegreeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return d.Clone(), nil
}

// ListByUniversity returns a university's records, newest first.
func (s *InMemory) ListByUniversity(_ context.Context, universityID domain.UniversityID) ([]*models.DegreeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DegreeRecord
	for _, d := range s.byID {
		if d.UniversityID == universityID {
			out = append(out, d.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListByStudent returns every record issued against one national ID,
// newest first. Students may hold degrees from several universities.
func (s *InMemory) ListByStudent(_ context.Context, nationalID string) ([]*models.DegreeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DegreeRecord
	for _, d := range s.byID {
		if d.Student.NationalID == nationalID {
			out = append(out, d.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Search returns records matching the filter, newest first.
func (s *InMemory) Search(_ context.Context, filter Filter) ([]*models.DegreeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DegreeRecord
	for _, d := range s.byID {
		if filter.UniversityID != "" && d.UniversityID != filter.UniversityID {
			continue
		}
		if filter.ProgramType != "" && !strings.EqualFold(d.Program.Type, filter.ProgramType) {
			continue
		}
		if filter.State != "" && d.State != filter.State {
			continue
		}
		out = append(out, d.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

// Count returns the number of degree records.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Execute runs validate-then-mutate atomically against one record. The
// store lock is held across the callback pair, so racing transitions are
// serialised and exactly one of two concurrent identical transitions
// succeeds.
func (s *InMemory) Execute(_ context.Context, id domain.DegreeID, validate func(*models.DegreeRecord) error, mutate func(*models.DegreeRecord)) (*models.DegreeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)
	return d.Clone(), nil
}

func sortNewestFirst(records []*models.DegreeRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
