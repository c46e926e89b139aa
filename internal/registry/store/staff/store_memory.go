// Package staff stores university StaffUser records.
package staff

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sanad/internal/registry/models"
	"sanad/pkg/domain"
	"sanad/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded staff store.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[domain.StaffID]*models.StaffUser
	byEmail map[string]domain.StaffID
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[domain.StaffID]*models.StaffUser),
		byEmail: make(map[string]domain.StaffID),
	}
}

// CreateIfEmailAvailable inserts the staff user unless the email is already
// held by another staff user. The service layer additionally checks the
// employee directory before calling, since email uniqueness spans both.
func (s *InMemory) CreateIfEmailAvailable(_ context.Context, u *models.StaffUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrConflict
	}
	s.byID[u.ID] = u.Clone()
	s.byEmail[key] = u.ID
	return nil
}

// FindByID returns a copy of the staff user.
func (s *InMemory) FindByID(_ context.Context, id domain.StaffID) (*models.StaffUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return u.Clone(), nil
}

// FindByEmail returns a copy of the staff user with the given email.
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.StaffUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// ListByUniversity returns a university's staff ordered by role then name.
func (s *InMemory) ListByUniversity(_ context.Context, universityID domain.UniversityID) ([]*models.StaffUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.StaffUser
	for _, u := range s.byID {
		if u.UniversityID == universityID {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ListByRole returns a university's active staff holding the given role.
func (s *InMemory) ListByRole(ctx context.Context, universityID domain.UniversityID, role domain.Role) ([]*models.StaffUser, error) {
	all, err := s.ListByUniversity(ctx, universityID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, u := range all {
		if u.Role == role && u.IsActive() {
			out = append(out, u)
		}
	}
	return out, nil
}

// Execute runs validate-then-mutate atomically against one staff user.
func (s *InMemory) Execute(_ context.Context, id domain.StaffID, validate func(*models.StaffUser) error, mutate func(*models.StaffUser)) (*models.StaffUser, error) {
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
