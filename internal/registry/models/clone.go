package models

import "sanad/pkg/domain"

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate shared state outside an Execute callback.
func (u *University) Clone() *University {
	out := *u
	out.Departments = make([]Department, len(u.Departments))
	copy(out.Departments, u.Departments)
	return &out
}

// Clone returns a deep copy.
func (s *StaffUser) Clone() *StaffUser {
	out := *s
	out.Permissions = make([]domain.Permission, len(s.Permissions))
	copy(out.Permissions, s.Permissions)
	return &out
}

// Clone returns a deep copy.
func (e *Employee) Clone() *Employee {
	out := *e
	out.Permissions = make([]domain.Permission, len(e.Permissions))
	copy(out.Permissions, e.Permissions)
	return &out
}
