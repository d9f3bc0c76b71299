// Package memory provides an in-process record store used by tests and local experiments.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
)

// Repository stores subjects, records and materialized summaries in memory.
type Repository struct {
	mu          sync.RWMutex
	subjects    map[string]domain.Subject
	records     map[string]domain.Record
	idempotency map[string]string
	summaries   map[string]aggregate.Materialized
}

var (
	_ domain.RecordRepository  = (*Repository)(nil)
	_ domain.SubjectRepository = (*Repository)(nil)
)

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		subjects:    make(map[string]domain.Subject),
		records:     make(map[string]domain.Record),
		idempotency: make(map[string]string),
		summaries:   make(map[string]aggregate.Materialized),
	}
}

func idempotencyKey(subjectID, recordedBy, key string) string {
	return subjectID + "|" + recordedBy + "|" + key
}

// FindByIdempotency implements domain.RecordRepository.
func (r *Repository) FindByIdempotency(_ context.Context, subjectID, recordedBy, key string) (*domain.Record, error) {
	if key == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idempotency[idempotencyKey(subjectID, recordedBy, key)]
	if !ok {
		return nil, nil
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Create implements domain.RecordRepository.
func (r *Repository) Create(_ context.Context, record domain.Record, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = record
	if key != "" {
		r.idempotency[idempotencyKey(record.SubjectID, record.RecordedBy, key)] = record.ID
	}
	return nil
}

// Get implements domain.RecordRepository.
func (r *Repository) Get(_ context.Context, subjectID, recordID string) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[recordID]
	if !ok || rec.SubjectID != subjectID {
		return nil, nil
	}
	return &rec, nil
}

// CloseSleep implements domain.RecordRepository.
func (r *Repository) CloseSleep(_ context.Context, subjectID, recordID string, endedAt time.Time, durationMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok || rec.SubjectID != subjectID || !rec.IsActiveSleep() {
		return domain.ErrNoActiveSleep
	}
	sleep := domain.Sleep{DurationMs: &durationMs}
	if rec.Sleep != nil && rec.Sleep.StartedAt != nil {
		started := *rec.Sleep.StartedAt
		sleep.StartedAt = &started
	} else {
		started := rec.OccurredAt
		sleep.StartedAt = &started
	}
	rec.Sleep = &sleep
	rec.OccurredAt = endedAt
	r.records[recordID] = rec
	return nil
}

// Delete implements domain.RecordRepository.
func (r *Repository) Delete(_ context.Context, subjectID, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok || rec.SubjectID != subjectID {
		return domain.ErrRecordNotFound
	}
	delete(r.records, recordID)
	return nil
}

// FindActiveSleep implements domain.RecordRepository.
func (r *Repository) FindActiveSleep(_ context.Context, subjectID string) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active, ok := aggregate.ActiveSleep(r.subjectRecords(subjectID))
	if !ok {
		return nil, nil
	}
	return &active, nil
}

// ListBySubject implements domain.RecordRepository.
func (r *Repository) ListBySubject(_ context.Context, subjectID string, cursor *domain.Cursor, limit int) ([]domain.Record, *domain.Cursor, error) {
	r.mu.RLock()
	all := r.subjectRecords(subjectID)
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b domain.Record) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	out := make([]domain.Record, 0, limit)
	for _, rec := range all {
		if cursor != nil && !before(rec, *cursor) {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}

	var next *domain.Cursor
	if len(out) == limit && limit > 0 {
		last := out[len(out)-1]
		next = &domain.Cursor{OccurredAt: last.OccurredAt, ID: last.ID}
	}
	return out, next, nil
}

// before reports whether rec sorts after the cursor in newest-first order.
func before(rec domain.Record, c domain.Cursor) bool {
	if rec.OccurredAt.Equal(c.OccurredAt) {
		return rec.ID < c.ID
	}
	return rec.OccurredAt.Before(c.OccurredAt)
}

// ListBetween implements domain.RecordRepository.
func (r *Repository) ListBetween(_ context.Context, subjectID string, from, to time.Time) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Record
	for _, rec := range r.subjectRecords(subjectID) {
		if rec.OccurredAt.Before(from) || rec.OccurredAt.After(to) {
			continue
		}
		out = append(out, rec)
	}
	slices.SortStableFunc(out, func(a, b domain.Record) int { return a.OccurredAt.Compare(b.OccurredAt) })
	return out, nil
}

func (r *Repository) subjectRecords(subjectID string) []domain.Record {
	out := make([]domain.Record, 0)
	for _, rec := range r.records {
		if rec.SubjectID == subjectID {
			out = append(out, rec)
		}
	}
	return out
}

// CreateSubject implements domain.SubjectRepository.
func (r *Repository) CreateSubject(_ context.Context, subject domain.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	subject.SharedWith = slices.Clone(subject.SharedWith)
	r.subjects[subject.ID] = subject
	return nil
}

// GetSubject implements domain.SubjectRepository.
func (r *Repository) GetSubject(_ context.Context, subjectID string) (*domain.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subject, ok := r.subjects[subjectID]
	if !ok {
		return nil, nil
	}
	subject.SharedWith = slices.Clone(subject.SharedWith)
	return &subject, nil
}

// ListSubjects implements domain.SubjectRepository.
func (r *Repository) ListSubjects(_ context.Context, caregiverID string) ([]domain.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Subject
	for _, subject := range r.subjects {
		if subject.CanAccess(caregiverID) {
			subject.SharedWith = slices.Clone(subject.SharedWith)
			out = append(out, subject)
		}
	}
	slices.SortFunc(out, func(a, b domain.Subject) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// AddCaregiver implements domain.SubjectRepository.
func (r *Repository) AddCaregiver(_ context.Context, subjectID, caregiverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	subject, ok := r.subjects[subjectID]
	if !ok {
		return domain.ErrSubjectNotFound
	}
	if !slices.Contains(subject.SharedWith, caregiverID) {
		subject.SharedWith = append(slices.Clone(subject.SharedWith), caregiverID)
	}
	r.subjects[subjectID] = subject
	return nil
}

// UpsertDailySummary stores m unless a summary with a higher version exists for the same day.
func (r *Repository) UpsertDailySummary(_ context.Context, m aggregate.Materialized) (bool, error) {
	key := m.SubjectID + "|" + m.Summary.Date.Format(aggregate.DateLayout)
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.summaries[key]; ok && current.Version > m.Version {
		return false, nil
	}
	r.summaries[key] = m
	return true, nil
}

// ListDailySummaries returns stored summaries for days in [from, to], oldest first.
func (r *Repository) ListDailySummaries(_ context.Context, subjectID string, from, to time.Time) ([]aggregate.Materialized, error) {
	first, last := from.Format(aggregate.DateLayout), to.Format(aggregate.DateLayout)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []aggregate.Materialized
	for _, m := range r.summaries {
		day := m.Summary.Date.Format(aggregate.DateLayout)
		if m.SubjectID == subjectID && day >= first && day <= last {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b aggregate.Materialized) int { return a.Summary.Date.Compare(b.Summary.Date) })
	return out, nil
}
