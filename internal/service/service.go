// Package service orchestrates record logging, subject access and day reports.
// It validates input, enforces caregiver access and hands record snapshots to the aggregator.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/observability"
)

// SummaryStore reads daily summaries materialized by the summary projector.
type SummaryStore interface {
	ListDailySummaries(ctx context.Context, subjectID string, from, to time.Time) ([]aggregate.Materialized, error)
}

// ErrSummariesUnavailable is returned when no SummaryStore was configured.
var ErrSummariesUnavailable = errors.New("materialized summaries are not available")

const (
	defaultPageSize = 50
	maxPageSize     = 200
	// maxRangeDays bounds range summaries to roughly one quarter.
	maxRangeDays = 92
	// futureSkew tolerates clock drift between a caregiver's device and the server.
	futureSkew = 5 * time.Minute
)

// Service orchestrates tracker workflows.
type Service struct {
	records         domain.RecordRepository
	subjects        domain.SubjectRepository
	summaries       SummaryStore
	now             func() time.Time
	logger          zerolog.Logger
	defaultTimeZone string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSummaryStore enables StoredSummaries.
func WithSummaryStore(store SummaryStore) Option {
	return func(s *Service) {
		s.summaries = store
	}
}

// WithDefaultTimeZone sets the zone given to subjects created without one.
func WithDefaultTimeZone(zone string) Option {
	return func(s *Service) {
		s.defaultTimeZone = zone
	}
}

// NewService constructs a Service.
func NewService(records domain.RecordRepository, subjects domain.SubjectRepository, opts ...Option) *Service {
	s := &Service{
		records:         records,
		subjects:        subjects,
		now:             time.Now,
		logger:          zerolog.Nop(),
		defaultTimeZone: "UTC",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// authorize loads the subject and checks the caregiver may use it.
func (s *Service) authorize(ctx context.Context, subjectID, caregiverID string) (*domain.Subject, error) {
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, domain.ErrSubjectNotFound
	}
	if !subject.CanAccess(caregiverID) {
		return nil, domain.ErrForbidden
	}
	return subject, nil
}

// location resolves override, falling back to the subject's zone.
func location(subject *domain.Subject, override string) (*time.Location, error) {
	if override != "" {
		loc, err := time.LoadLocation(override)
		if err != nil {
			return nil, fmt.Errorf("time zone %q: %w", override, domain.ErrValidation)
		}
		return loc, nil
	}
	return subject.Location()
}

// recordMalformed counts and logs aggregation failures caused by bad records.
func (s *Service) recordMalformed(err error, subjectID string) {
	var malformed *domain.MalformedRecordError
	if errors.As(err, &malformed) {
		observability.RecordMalformed()
		s.logger.Warn().
			Str("subject_id", subjectID).
			Str("record_id", malformed.RecordID).
			Str("kind", string(malformed.Kind)).
			Msg(malformed.Reason)
	}
}
