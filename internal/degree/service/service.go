// Package service orchestrates the degree credential lifecycle. Every
// transition re-authorizes the actor, runs under the store's per-record
// lock, and lands both an audit event and an approval trail entry.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"sanad/internal/allocator"
	"sanad/internal/audit"
	"sanad/internal/degree/metrics"
	"sanad/internal/degree/models"
	"sanad/internal/degree/store"
	"sanad/pkg/domain"
)

// Store persists degree records.
type Store interface {
	Create(ctx context.Context, d *models.DegreeRecord) error
	FindByID(ctx context.Context, id domain.DegreeID) (*models.DegreeRecord, error)
	ListByUniversity(ctx context.Context, universityID domain.UniversityID) ([]*models.DegreeRecord, error)
	ListByStudent(ctx context.Context, nationalID string) ([]*models.DegreeRecord, error)
	Search(ctx context.Context, filter store.Filter) ([]*models.DegreeRecord, error)
	Count(ctx context.Context) (int, error)
	Execute(ctx context.Context, id domain.DegreeID, validate func(*models.DegreeRecord) error, mutate func(*models.DegreeRecord)) (*models.DegreeRecord, error)
}

// UniversityDirectory answers issuance eligibility. Implemented by the
// registry service; returns sentinel.ErrNotFound for unknown universities.
type UniversityDirectory interface {
	LookupUniversity(ctx context.Context, id domain.UniversityID) (name string, active bool, err error)
}

// AuditPublisher records lifecycle transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the degree lifecycle engine.
type Service struct {
	degrees   Store
	directory UniversityDirectory
	alloc     allocator.Allocator
	logger    *slog.Logger
	audit     AuditPublisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
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

// WithTracerProvider overrides the tracer, mainly for tests.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("sanad/internal/degree") }
}

// New constructs the degree service.
func New(degrees Store, directory UniversityDirectory, alloc allocator.Allocator, opts ...Option) *Service {
	s := &Service{
		degrees:   degrees,
		directory: directory,
		alloc:     alloc,
		logger:    slog.Default(),
		tracer:    otel.Tracer("sanad/internal/degree"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "entity_id", event.EntityID, "error", err)
	}
}
