// Package postgres stores subjects, records and materialized summaries in Postgres. Every record
// mutation writes its outbox event in the same transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/events"
	"github.com/densign01/baby-tracker/internal/observability"
)

// Repository provides Postgres-backed persistence for records, subjects and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

var (
	_ domain.RecordRepository  = (*Repository)(nil)
	_ domain.SubjectRepository = (*Repository)(nil)
)

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `record_id, subject_id, kind, occurred_at, recorded_by, recorded_by_name, notes,
        sleep_started_at, sleep_duration_ms, feeding_method, feeding_side, feeding_amount_oz, diaper_kind, created_at`

const (
	uniqueViolation       = "23505"
	idempotencyConstraint = "activity_records_idempotency_idx"
	openSleepConstraint   = "activity_records_open_sleep_idx"
)

// FindByIdempotency checks if a record already exists for the supplied idempotency key.
func (r *Repository) FindByIdempotency(ctx context.Context, subjectID, recordedBy, idempotencyKey string) (*domain.Record, error) {
	if idempotencyKey == "" {
		return nil, nil
	}
	query := `SELECT ` + recordColumns + `
        FROM activity_records WHERE subject_id=$1 AND recorded_by=$2 AND idempotency_key=$3`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, subjectID, recordedBy, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres.Repository.FindByIdempotency: %w", err)
	}
	return &rec, nil
}

// Create persists the record and its activity.logged event inside a single transaction.
func (r *Repository) Create(ctx context.Context, record domain.Record, idempotencyKey string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres.Repository.Create: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertRecord = `INSERT INTO activity_records (record_id, subject_id, kind, occurred_at, recorded_by, recorded_by_name, notes,
        sleep_started_at, sleep_duration_ms, feeding_method, feeding_side, feeding_amount_oz, diaper_kind, idempotency_key, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	var (
		sleepStarted  *time.Time
		sleepDuration *int64
		method, side  any
		amount        *float64
		diaperKind    any
	)
	if record.Sleep != nil {
		sleepStarted, sleepDuration = record.Sleep.StartedAt, record.Sleep.DurationMs
	}
	if record.Feeding != nil {
		method = string(record.Feeding.Method)
		side = nullIfEmpty(string(record.Feeding.Side))
		amount = record.Feeding.AmountOz
	}
	if record.Diaper != nil {
		diaperKind = string(record.Diaper.Kind)
	}

	_, err = tx.Exec(ctx, insertRecord,
		record.ID,
		record.SubjectID,
		string(record.Kind),
		record.OccurredAt,
		record.RecordedBy,
		record.RecordedByName,
		record.Notes,
		sleepStarted,
		sleepDuration,
		method,
		side,
		amount,
		diaperKind,
		nullIfEmpty(idempotencyKey),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres.Repository.Create: %w", translate(err))
	}

	if err = r.insertOutbox(ctx, tx, record.SubjectID, record.ID, events.TypeActivityLogged, events.ActivityLogged{
		RecordID:   record.ID,
		SubjectID:  record.SubjectID,
		Kind:       string(record.Kind),
		OccurredAt: record.OccurredAt,
		RecordedBy: record.RecordedBy,
		InProgress: record.IsActiveSleep(),
	}); err != nil {
		return fmt.Errorf("postgres.Repository.Create: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.Repository.Create: %w", err)
	}
	observability.RecordPersisted(record.CreatedAt)
	return nil
}

// translate maps constraint violations onto domain errors.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case idempotencyConstraint:
			return domain.ErrIdempotentReplay
		case openSleepConstraint:
			return domain.ErrSleepInProgress
		}
	}
	return err
}

// Get retrieves a record by ID. It returns nil when the record does not belong to the subject.
func (r *Repository) Get(ctx context.Context, subjectID, recordID string) (*domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM activity_records WHERE subject_id=$1 AND record_id=$2`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, subjectID, recordID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres.Repository.Get: %w", err)
	}
	return &rec, nil
}

// CloseSleep stamps the duration of an open sleep and moves it to endedAt.
func (r *Repository) CloseSleep(ctx context.Context, subjectID, recordID string, endedAt time.Time, durationMs int64) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres.Repository.CloseSleep: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	// SET expressions see the old row, so the start falls back to the open sleep's occurred_at.
	const stmt = `UPDATE activity_records
           SET sleep_started_at = COALESCE(sleep_started_at, occurred_at),
               sleep_duration_ms = $3,
               occurred_at = $4
         WHERE subject_id=$1 AND record_id=$2 AND kind='sleep' AND sleep_duration_ms IS NULL
     RETURNING sleep_started_at`

	var started time.Time
	if err = tx.QueryRow(ctx, stmt, subjectID, recordID, durationMs, endedAt).Scan(&started); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrNoActiveSleep
		}
		return fmt.Errorf("postgres.Repository.CloseSleep: %w", err)
	}

	if err = r.insertOutbox(ctx, tx, subjectID, recordID, events.TypeActivityClosed, events.ActivityClosed{
		RecordID:           recordID,
		SubjectID:          subjectID,
		OccurredAt:         endedAt,
		PreviousOccurredAt: started.UTC(),
		DurationMs:         durationMs,
	}); err != nil {
		return fmt.Errorf("postgres.Repository.CloseSleep: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.Repository.CloseSleep: %w", err)
	}
	observability.RecordPersisted(endedAt)
	return nil
}

// Delete removes a record and emits activity.deleted.
func (r *Repository) Delete(ctx context.Context, subjectID, recordID string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres.Repository.Delete: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	var (
		kind       string
		occurredAt time.Time
	)
	err = tx.QueryRow(ctx,
		`DELETE FROM activity_records WHERE subject_id=$1 AND record_id=$2 RETURNING kind, occurred_at`,
		subjectID, recordID,
	).Scan(&kind, &occurredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrRecordNotFound
		}
		return fmt.Errorf("postgres.Repository.Delete: %w", err)
	}

	if err = r.insertOutbox(ctx, tx, subjectID, recordID, events.TypeActivityDeleted, events.ActivityDeleted{
		RecordID:   recordID,
		SubjectID:  subjectID,
		Kind:       kind,
		OccurredAt: occurredAt.UTC(),
	}); err != nil {
		return fmt.Errorf("postgres.Repository.Delete: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.Repository.Delete: %w", err)
	}
	return nil
}

// FindActiveSleep returns the open sleep of a subject, if any.
func (r *Repository) FindActiveSleep(ctx context.Context, subjectID string) (*domain.Record, error) {
	query := `SELECT ` + recordColumns + `
        FROM activity_records
        WHERE subject_id=$1 AND kind='sleep' AND sleep_duration_ms IS NULL
        ORDER BY occurred_at DESC
        LIMIT 1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, subjectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres.Repository.FindActiveSleep: %w", err)
	}
	return &rec, nil
}

// ListBySubject returns records newest first using keyset pagination.
func (r *Repository) ListBySubject(ctx context.Context, subjectID string, cursor *domain.Cursor, limit int) ([]domain.Record, *domain.Cursor, error) {
	args := []any{subjectID, limit}
	query := `SELECT ` + recordColumns + ` FROM activity_records WHERE subject_id=$1`

	if cursor != nil {
		query += ` AND (occurred_at, record_id) < ($3, $4)`
		args = append(args, cursor.OccurredAt, cursor.ID)
	}
	query += ` ORDER BY occurred_at DESC, record_id DESC LIMIT $2`

	results, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres.Repository.ListBySubject: %w", err)
	}

	var nextCursor *domain.Cursor
	if limit > 0 && len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{OccurredAt: last.OccurredAt, ID: last.ID}
	}
	return results, nextCursor, nil
}

// ListBetween returns every record whose occurred_at lies in [from, to], oldest first.
func (r *Repository) ListBetween(ctx context.Context, subjectID string, from, to time.Time) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + `
        FROM activity_records
        WHERE subject_id=$1 AND occurred_at BETWEEN $2 AND $3
        ORDER BY occurred_at, record_id`

	results, err := r.queryRecords(ctx, query, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres.Repository.ListBetween: %w", err)
	}
	return results, nil
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var (
		rec           domain.Record
		kind          string
		sleepStarted  *time.Time
		sleepDuration *int64
		method, side  *string
		amount        *float64
		diaperKind    *string
	)
	if err := row.Scan(&rec.ID, &rec.SubjectID, &kind, &rec.OccurredAt, &rec.RecordedBy, &rec.RecordedByName, &rec.Notes,
		&sleepStarted, &sleepDuration, &method, &side, &amount, &diaperKind, &rec.CreatedAt); err != nil {
		return domain.Record{}, err
	}

	rec.Kind = domain.Kind(kind)
	rec.OccurredAt = rec.OccurredAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.Kind == domain.KindSleep || sleepStarted != nil || sleepDuration != nil {
		if sleepStarted != nil {
			utc := sleepStarted.UTC()
			sleepStarted = &utc
		}
		rec.Sleep = &domain.Sleep{StartedAt: sleepStarted, DurationMs: sleepDuration}
	}
	if method != nil {
		rec.Feeding = &domain.Feeding{Method: domain.FeedingMethod(*method), AmountOz: amount}
		if side != nil {
			rec.Feeding.Side = domain.FeedingSide(*side)
		}
	}
	if diaperKind != nil {
		rec.Diaper = &domain.Diaper{Kind: domain.DiaperKind(*diaperKind)}
	}
	return rec, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, subjectID, recordID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (subject_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		subjectID,
		"activity_record",
		recordID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		subjectID,
		body,
		fmt.Sprintf("%s:%s", recordID, eventType),
	)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// RecordsTopic carries every record event. Events are keyed by subject so one subject's events
// stay ordered within a partition.
const RecordsTopic = "activity_records"

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeActivityLogged: {
		Topic:         RecordsTopic,
		SchemaSubject: RecordsTopic + "-" + events.TypeActivityLogged,
	},
	events.TypeActivityClosed: {
		Topic:         RecordsTopic,
		SchemaSubject: RecordsTopic + "-" + events.TypeActivityClosed,
	},
	events.TypeActivityDeleted: {
		Topic:         RecordsTopic,
		SchemaSubject: RecordsTopic + "-" + events.TypeActivityDeleted,
	},
}
