package domain

import (
	"context"
	"time"
)

// RecordRepository captures persistence operations for activity records.
//
// Lookups return (nil, nil) when nothing matches.
type RecordRepository interface {
	FindByIdempotency(ctx context.Context, subjectID, recordedBy, idempotencyKey string) (*Record, error)
	Create(ctx context.Context, record Record, idempotencyKey string) error
	Get(ctx context.Context, subjectID, recordID string) (*Record, error)
	// CloseSleep stamps the duration of an open sleep and moves its OccurredAt to endedAt.
	CloseSleep(ctx context.Context, subjectID, recordID string, endedAt time.Time, durationMs int64) error
	Delete(ctx context.Context, subjectID, recordID string) error
	FindActiveSleep(ctx context.Context, subjectID string) (*Record, error)
	ListBySubject(ctx context.Context, subjectID string, cursor *Cursor, limit int) ([]Record, *Cursor, error)
	// ListBetween returns every record whose OccurredAt lies in [from, to], oldest first.
	ListBetween(ctx context.Context, subjectID string, from, to time.Time) ([]Record, error)
}

// SubjectRepository captures persistence operations for tracked subjects.
type SubjectRepository interface {
	CreateSubject(ctx context.Context, subject Subject) error
	GetSubject(ctx context.Context, subjectID string) (*Subject, error)
	ListSubjects(ctx context.Context, caregiverID string) ([]Subject, error)
	AddCaregiver(ctx context.Context, subjectID, caregiverID string) error
}
