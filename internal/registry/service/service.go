// Package service orchestrates the organization registry: universities,
// their staff, and regulator employees. Every mutation runs through the
// authorization engine and lands an audit event.
package service

import (
	"context"
	"log/slog"
	"strings"

	"sanad/internal/allocator"
	"sanad/internal/audit"
	"sanad/internal/registry/metrics"
	"sanad/internal/registry/models"
	"sanad/pkg/domain"
)

// UniversityStore persists University aggregates.
type UniversityStore interface {
	CreateIfCodeAvailable(ctx context.Context, u *models.University) error
	FindByID(ctx context.Context, id domain.UniversityID) (*models.University, error)
	FindByCode(ctx context.Context, code string) (*models.University, error)
	List(ctx context.Context) ([]*models.University, error)
	ListByProvince(ctx context.Context, province string) ([]*models.University, error)
	Count(ctx context.Context) (int, error)
	Execute(ctx context.Context, id domain.UniversityID, validate func(*models.University) error, mutate func(*models.University)) (*models.University, error)
}

// StaffStore persists university staff users.
type StaffStore interface {
	CreateIfEmailAvailable(ctx context.Context, u *models.StaffUser) error
	FindByID(ctx context.Context, id domain.StaffID) (*models.StaffUser, error)
	FindByEmail(ctx context.Context, email string) (*models.StaffUser, error)
	ListByUniversity(ctx context.Context, universityID domain.UniversityID) ([]*models.StaffUser, error)
	ListByRole(ctx context.Context, universityID domain.UniversityID, role domain.Role) ([]*models.StaffUser, error)
	Execute(ctx context.Context, id domain.StaffID, validate func(*models.StaffUser) error, mutate func(*models.StaffUser)) (*models.StaffUser, error)
}

// EmployeeStore persists HEC employees.
type EmployeeStore interface {
	CreateIfEmailAvailable(ctx context.Context, e *models.Employee) error
	FindByID(ctx context.Context, id domain.EmployeeID) (*models.Employee, error)
	FindByEmail(ctx context.Context, email string) (*models.Employee, error)
	List(ctx context.Context) ([]*models.Employee, error)
	CountActive(ctx context.Context) (int, error)
	Execute(ctx context.Context, id domain.EmployeeID, validate func(*models.Employee) error, mutate func(*models.Employee)) (*models.Employee, error)
}

// DegreeCounter reports how many degree records exist. Implemented by the
// degree store; the registry only needs the total for statistics.
type DegreeCounter interface {
	Count(ctx context.Context) (int, error)
}

// AuditPublisher records registry mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the organization registry.
type Service struct {
	universities UniversityStore
	staff        StaffStore
	employees    EmployeeStore
	degrees      DegreeCounter
	alloc        allocator.Allocator
	logger       *slog.Logger
	audit        AuditPublisher
	metrics      *metrics.Metrics
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditPublisher sets the audit sink.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDegreeCounter wires the degree store's counter for statistics.
func WithDegreeCounter(c DegreeCounter) Option {
	return func(s *Service) { s.degrees = c }
}

// New constructs the registry service.
func New(universities UniversityStore, staff StaffStore, employees EmployeeStore, alloc allocator.Allocator, opts ...Option) *Service {
	s := &Service{
		universities: universities,
		staff:        staff,
		employees:    employees,
		alloc:        alloc,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "entity_id", event.EntityID, "error", err)
	}
}
