// Package employee stores HEC Employee records.
package employee

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sanad/internal/registry/models"
	"sanad/pkg/domain"
	"sanad/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded employee store.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[domain.EmployeeID]*models.Employee
	byEmail map[string]domain.EmployeeID
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[domain.EmployeeID]*models.Employee),
		byEmail: make(map[string]domain.EmployeeID),
	}
}

// CreateIfEmailAvailable inserts the employee unless the email is already
// held by another employee.
func (s *InMemory) CreateIfEmailAvailable(_ context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(e.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrConflict
	}
	s.byID[e.ID] = e.Clone()
	s.byEmail[key] = e.ID
	return nil
}

// FindByID returns a copy of the employee.
func (s *InMemory) FindByID(_ context.Context, id domain.EmployeeID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.Clone(), nil
}

// FindByEmail returns a copy of the employee with the given email.
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// List returns all employees ordered by ID.
func (s *InMemory) List(_ context.Context) ([]*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Employee, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CountActive returns the number of ACTIVE employees.
func (s *InMemory) CountActive(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.byID {
		if e.IsActive() {
			n++
		}
	}
	return n, nil
}

// Execute runs validate-then-mutate atomically against one employee.
func (s *InMemory) Execute(_ context.Context, id domain.EmployeeID, validate func(*models.Employee) error, mutate func(*models.Employee)) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(e); err != nil {
		return nil, err
	}
	mutate(e)
	return e.Clone(), nil
}
