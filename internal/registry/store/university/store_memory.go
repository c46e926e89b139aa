// Package university stores University aggregates. The in-memory variant
// backs unit tests and single-node deployments; Execute serialises
// concurrent mutations per record the same way the Postgres variant does
// with row locks.
package university

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sanad/internal/registry/models"
	"sanad/pkg/domain"
	"sanad/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded university store.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[domain.UniversityID]*models.University
	byCode map[string]domain.UniversityID
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[domain.UniversityID]*models.University),
		byCode: make(map[string]domain.UniversityID),
	}
}

// CreateIfCodeAvailable inserts the university unless its code is taken.
// Code matching is case-insensitive.
func (s *InMemory) CreateIfCodeAvailable(_ context.Context, u *models.University) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToUpper(u.Code)
	if _, taken := s.byCode[key]; taken {
		return sentinel.ErrConflict
	}
	s.byID[u.ID] = u.Clone()
	s.byCode[key] = u.ID
	return nil
}

// FindByID returns a copy of the university.
func (s *InMemory) FindByID(_ context.Context, id domain.UniversityID) (*models.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return u.Clone(), nil
}

// FindByCode returns a copy of the university with the given code.
func (s *InMemory) FindByCode(_ context.Context, code string) (*models.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// List returns all universities ordered by name.
func (s *InMemory) List(_ context.Context) ([]*models.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.University, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListByProvince returns active universities in a province, ordered by name.
func (s *InMemory) ListByProvince(ctx context.Context, province string) ([]*models.University, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, u := range all {
		if strings.EqualFold(u.Address.Province, province) && u.Status == models.UniversityActive {
			out = append(out, u)
		}
	}
	return out, nil
}

// Count returns the number of registered universities.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Execute runs validate-then-mutate atomically against one university. The
// store lock is held for the whole callback pair, so no other mutation can
// interleave between validation and the write.
func (s *InMemory) Execute(_ context.Context, id domain.UniversityID, validate func(*models.University) error, mutate func(*models.University)) (*models.University, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(u); err != nil {
		return nil, err
	}
	mutate(u)
	return u.Clone(), nil
}
