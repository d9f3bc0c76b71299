package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
)

// Caregiver identifies who is acting. Name is copied onto records for attribution.
type Caregiver struct {
	ID   string
	Name string
}

// LogInput captures a quick-log action from the API or CLI.
//
// For sleep, DurationMs is required and OccurredAt is the end of the sleep. Use StartSleep for a
// sleep that is still running.
type LogInput struct {
	SubjectID      string
	Caregiver      Caregiver
	Kind           domain.Kind
	OccurredAt     time.Time
	Notes          string
	IdempotencyKey string

	DurationMs *int64

	FeedingMethod domain.FeedingMethod
	Side          domain.FeedingSide
	AmountOz      *float64

	DiaperKind domain.DiaperKind
}

// LogActivity validates and persists a record. The bool reports an idempotent replay.
func (s *Service) LogActivity(ctx context.Context, in LogInput) (*domain.Record, bool, error) {
	if _, err := s.authorize(ctx, in.SubjectID, in.Caregiver.ID); err != nil {
		return nil, false, fmt.Errorf("service.Service.LogActivity: %w", err)
	}

	if existing, err := s.records.FindByIdempotency(ctx, in.SubjectID, in.Caregiver.ID, in.IdempotencyKey); err != nil {
		return nil, false, fmt.Errorf("service.Service.LogActivity: %w", err)
	} else if existing != nil {
		return existing, true, nil
	}

	now := s.now()
	record, err := buildRecord(in, now)
	if err != nil {
		return nil, false, fmt.Errorf("service.Service.LogActivity: %w", err)
	}

	if err := s.records.Create(ctx, record, in.IdempotencyKey); err != nil {
		return nil, false, fmt.Errorf("service.Service.LogActivity: %w", err)
	}
	s.logger.Debug().
		Str("subject_id", record.SubjectID).
		Str("record_id", record.ID).
		Str("kind", string(record.Kind)).
		Msg("record logged")
	return &record, false, nil
}

func buildRecord(in LogInput, now time.Time) (domain.Record, error) {
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	if occurredAt.After(now.Add(futureSkew)) {
		return domain.Record{}, fmt.Errorf("occurred_at is in the future: %w", domain.ErrValidation)
	}

	record := domain.Record{
		ID:             uuid.NewString(),
		SubjectID:      in.SubjectID,
		Kind:           in.Kind,
		OccurredAt:     occurredAt.UTC().Truncate(time.Millisecond),
		RecordedBy:     in.Caregiver.ID,
		RecordedByName: in.Caregiver.Name,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now.UTC(),
	}

	switch in.Kind {
	case domain.KindSleep:
		if in.DurationMs == nil {
			return domain.Record{}, fmt.Errorf("sleep requires duration_ms: %w", domain.ErrValidation)
		}
		if *in.DurationMs < 0 {
			return domain.Record{}, fmt.Errorf("duration_ms must not be negative: %w", domain.ErrValidation)
		}
		duration := *in.DurationMs
		started := record.OccurredAt.Add(-time.Duration(duration) * time.Millisecond)
		record.Sleep = &domain.Sleep{StartedAt: &started, DurationMs: &duration}
	case domain.KindFeeding:
		feeding, err := validateFeeding(in)
		if err != nil {
			return domain.Record{}, err
		}
		record.Feeding = feeding
	case domain.KindDiaper:
		switch in.DiaperKind {
		case domain.DiaperWet, domain.DiaperDirty, domain.DiaperBoth:
		default:
			return domain.Record{}, fmt.Errorf("diaper_kind must be wet, dirty or both: %w", domain.ErrValidation)
		}
		record.Diaper = &domain.Diaper{Kind: in.DiaperKind}
	default:
		return domain.Record{}, fmt.Errorf("unsupported kind %q: %w", in.Kind, domain.ErrValidation)
	}
	return record, nil
}

func validateFeeding(in LogInput) (*domain.Feeding, error) {
	feeding := &domain.Feeding{Method: in.FeedingMethod}
	switch in.FeedingMethod {
	case domain.FeedingBreast:
		switch in.Side {
		case "", domain.SideLeft, domain.SideRight, domain.SideBoth:
			feeding.Side = in.Side
		default:
			return nil, fmt.Errorf("side must be left, right or both: %w", domain.ErrValidation)
		}
	case domain.FeedingBottle, domain.FeedingSolid:
		if in.Side != "" {
			return nil, fmt.Errorf("side only applies to breast feedings: %w", domain.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("feeding_method must be breast, bottle or solid: %w", domain.ErrValidation)
	}

	if in.AmountOz != nil {
		if in.FeedingMethod != domain.FeedingBottle {
			return nil, fmt.Errorf("amount_oz only applies to bottle feedings: %w", domain.ErrValidation)
		}
		if *in.AmountOz < 0 {
			return nil, fmt.Errorf("amount_oz must not be negative: %w", domain.ErrValidation)
		}
		amount := *in.AmountOz
		feeding.AmountOz = &amount
	}
	return feeding, nil
}

// StartSleepInput opens an in-progress sleep.
type StartSleepInput struct {
	SubjectID string
	Caregiver Caregiver
	StartedAt time.Time
	Notes     string
}

// StartSleep records an open sleep. Only one sleep per subject may be open.
func (s *Service) StartSleep(ctx context.Context, in StartSleepInput) (*domain.Record, error) {
	if _, err := s.authorize(ctx, in.SubjectID, in.Caregiver.ID); err != nil {
		return nil, fmt.Errorf("service.Service.StartSleep: %w", err)
	}

	active, err := s.records.FindActiveSleep(ctx, in.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.StartSleep: %w", err)
	}
	if active != nil {
		return active, fmt.Errorf("service.Service.StartSleep: %w", domain.ErrSleepInProgress)
	}

	now := s.now()
	started := in.StartedAt
	if started.IsZero() {
		started = now
	}
	if started.After(now.Add(futureSkew)) {
		return nil, fmt.Errorf("service.Service.StartSleep: started_at is in the future: %w", domain.ErrValidation)
	}
	started = started.UTC().Truncate(time.Millisecond)

	record := domain.Record{
		ID:             uuid.NewString(),
		SubjectID:      in.SubjectID,
		Kind:           domain.KindSleep,
		OccurredAt:     started,
		RecordedBy:     in.Caregiver.ID,
		RecordedByName: in.Caregiver.Name,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now.UTC(),
		Sleep:          &domain.Sleep{StartedAt: &started},
	}
	if err := s.records.Create(ctx, record, ""); err != nil {
		return nil, fmt.Errorf("service.Service.StartSleep: %w", err)
	}
	return &record, nil
}

// StopSleep closes the open sleep at endedAt (now when zero). The record moves to the day the
// sleep ended on.
func (s *Service) StopSleep(ctx context.Context, subjectID string, caregiver Caregiver, endedAt time.Time) (*domain.Record, error) {
	if _, err := s.authorize(ctx, subjectID, caregiver.ID); err != nil {
		return nil, fmt.Errorf("service.Service.StopSleep: %w", err)
	}

	active, err := s.records.FindActiveSleep(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.StopSleep: %w", err)
	}
	if active == nil {
		return nil, fmt.Errorf("service.Service.StopSleep: %w", domain.ErrNoActiveSleep)
	}

	if endedAt.IsZero() {
		endedAt = s.now()
	}
	endedAt = endedAt.UTC().Truncate(time.Millisecond)

	started := active.OccurredAt
	if active.Sleep != nil && active.Sleep.StartedAt != nil {
		started = *active.Sleep.StartedAt
	}
	if endedAt.Before(started) {
		return nil, fmt.Errorf("service.Service.StopSleep: sleep cannot end before it started: %w", domain.ErrValidation)
	}
	duration := endedAt.Sub(started).Milliseconds()

	if err := s.records.CloseSleep(ctx, subjectID, active.ID, endedAt, duration); err != nil {
		return nil, fmt.Errorf("service.Service.StopSleep: %w", err)
	}

	closed := *active
	closed.OccurredAt = endedAt
	closed.Sleep = &domain.Sleep{StartedAt: &started, DurationMs: &duration}
	return &closed, nil
}

// GetRecord fetches a single record.
func (s *Service) GetRecord(ctx context.Context, subjectID, caregiverID, recordID string) (*domain.Record, error) {
	if _, err := s.authorize(ctx, subjectID, caregiverID); err != nil {
		return nil, fmt.Errorf("service.Service.GetRecord: %w", err)
	}
	record, err := s.records.Get(ctx, subjectID, recordID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetRecord: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("service.Service.GetRecord: %w", domain.ErrRecordNotFound)
	}
	return record, nil
}

// DeleteRecord removes a record entirely. It returns the deleted record.
func (s *Service) DeleteRecord(ctx context.Context, subjectID, caregiverID, recordID string) (*domain.Record, error) {
	record, err := s.GetRecord(ctx, subjectID, caregiverID, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.records.Delete(ctx, subjectID, recordID); err != nil {
		return nil, fmt.Errorf("service.Service.DeleteRecord: %w", err)
	}
	return record, nil
}

// ListRecords pages through a subject's records, newest first.
func (s *Service) ListRecords(ctx context.Context, subjectID, caregiverID string, cursor *domain.Cursor, limit int) ([]domain.Record, *domain.Cursor, error) {
	if _, err := s.authorize(ctx, subjectID, caregiverID); err != nil {
		return nil, nil, fmt.Errorf("service.Service.ListRecords: %w", err)
	}
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	records, next, err := s.records.ListBySubject(ctx, subjectID, cursor, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("service.Service.ListRecords: %w", err)
	}
	return records, next, nil
}

// ImportRecords stores records exported by older clients, legacy kinds included. Records are
// checked with the same normalization the aggregator applies but stored as given. Records whose
// id was already imported are skipped. It returns how many records were written.
func (s *Service) ImportRecords(ctx context.Context, subjectID string, caregiver Caregiver, records []domain.Record) (int, error) {
	if _, err := s.authorize(ctx, subjectID, caregiver.ID); err != nil {
		return 0, fmt.Errorf("service.Service.ImportRecords: %w", err)
	}

	now := s.now().UTC()
	imported := 0
	for _, r := range records {
		if _, err := aggregate.Normalize(r); err != nil {
			return imported, fmt.Errorf("service.Service.ImportRecords: %w", err)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		key := "import:" + r.ID

		existing, err := s.records.FindByIdempotency(ctx, subjectID, caregiver.ID, key)
		if err != nil {
			return imported, fmt.Errorf("service.Service.ImportRecords: %w", err)
		}
		if existing != nil {
			continue
		}

		r.ID = uuid.NewString()
		r.SubjectID = subjectID
		r.OccurredAt = r.OccurredAt.UTC().Truncate(time.Millisecond)
		r.RecordedBy = caregiver.ID
		if r.RecordedByName == "" {
			r.RecordedByName = caregiver.Name
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if err := s.records.Create(ctx, r, key); err != nil {
			return imported, fmt.Errorf("service.Service.ImportRecords: %w", err)
		}
		imported++
	}
	return imported, nil
}

// IsNotFound reports whether err means the subject or record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSubjectNotFound) || errors.Is(err, domain.ErrRecordNotFound)
}
