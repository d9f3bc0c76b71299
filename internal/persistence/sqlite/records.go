package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/densign01/baby-tracker/internal/domain"
)

var (
	_ domain.RecordRepository  = (*Store)(nil)
	_ domain.SubjectRepository = (*Store)(nil)
)

const recordColumns = `record_id, subject_id, kind, occurred_at, recorded_by, recorded_by_name, notes,
		sleep_started_at, sleep_duration_ms, feeding_method, feeding_side, feeding_amount_oz, diaper_kind, created_at`

// Instants are stored as Unix milliseconds, the precision the aggregator works in.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FindByIdempotency implements domain.RecordRepository.
func (s *Store) FindByIdempotency(ctx context.Context, subjectID, recordedBy, key string) (*domain.Record, error) {
	if key == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM activity_records WHERE subject_id = ? AND recorded_by = ? AND idempotency_key = ?`,
		subjectID, recordedBy, key,
	)
	return optionalRecord(row, "FindByIdempotency")
}

// Create implements domain.RecordRepository.
func (s *Store) Create(ctx context.Context, record domain.Record, key string) error {
	var (
		sleepStarted, sleepDuration sql.NullInt64
		method, side, diaperKind    sql.NullString
		amount                      sql.NullFloat64
		idempotency                 sql.NullString
	)
	if record.Sleep != nil {
		if record.Sleep.StartedAt != nil {
			sleepStarted = sql.NullInt64{Int64: toMillis(*record.Sleep.StartedAt), Valid: true}
		}
		if record.Sleep.DurationMs != nil {
			sleepDuration = sql.NullInt64{Int64: *record.Sleep.DurationMs, Valid: true}
		}
	}
	if record.Feeding != nil {
		method = sql.NullString{String: string(record.Feeding.Method), Valid: true}
		side = sql.NullString{String: string(record.Feeding.Side), Valid: record.Feeding.Side != ""}
		if record.Feeding.AmountOz != nil {
			amount = sql.NullFloat64{Float64: *record.Feeding.AmountOz, Valid: true}
		}
	}
	if record.Diaper != nil {
		diaperKind = sql.NullString{String: string(record.Diaper.Kind), Valid: true}
	}
	if key != "" {
		idempotency = sql.NullString{String: key, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_records (`+recordColumns+`, idempotency_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.SubjectID, string(record.Kind), toMillis(record.OccurredAt), record.RecordedBy,
		record.RecordedByName, record.Notes, sleepStarted, sleepDuration, method, side, amount, diaperKind,
		toMillis(record.CreatedAt), idempotency,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite.Store.Create: %w", domain.ErrIdempotentReplay)
		}
		return fmt.Errorf("sqlite.Store.Create: %w", err)
	}
	return nil
}

// Get implements domain.RecordRepository.
func (s *Store) Get(ctx context.Context, subjectID, recordID string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM activity_records WHERE subject_id = ? AND record_id = ?`,
		subjectID, recordID,
	)
	return optionalRecord(row, "Get")
}

// CloseSleep implements domain.RecordRepository.
func (s *Store) CloseSleep(ctx context.Context, subjectID, recordID string, endedAt time.Time, durationMs int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE activity_records
		    SET sleep_started_at = COALESCE(sleep_started_at, occurred_at),
		        sleep_duration_ms = ?,
		        occurred_at = ?
		  WHERE subject_id = ? AND record_id = ? AND kind = 'sleep' AND sleep_duration_ms IS NULL`,
		durationMs, toMillis(endedAt), subjectID, recordID,
	)
	if err != nil {
		return fmt.Errorf("sqlite.Store.CloseSleep: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("sqlite.Store.CloseSleep: %w", err)
	} else if n == 0 {
		return fmt.Errorf("sqlite.Store.CloseSleep: %w", domain.ErrNoActiveSleep)
	}
	return nil
}

// Delete implements domain.RecordRepository.
func (s *Store) Delete(ctx context.Context, subjectID, recordID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity_records WHERE subject_id = ? AND record_id = ?`, subjectID, recordID)
	if err != nil {
		return fmt.Errorf("sqlite.Store.Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("sqlite.Store.Delete: %w", err)
	} else if n == 0 {
		return fmt.Errorf("sqlite.Store.Delete: %w", domain.ErrRecordNotFound)
	}
	return nil
}

// FindActiveSleep implements domain.RecordRepository.
func (s *Store) FindActiveSleep(ctx context.Context, subjectID string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM activity_records
		  WHERE subject_id = ? AND kind = 'sleep' AND sleep_duration_ms IS NULL
		  ORDER BY occurred_at DESC LIMIT 1`,
		subjectID,
	)
	return optionalRecord(row, "FindActiveSleep")
}

// ListBySubject implements domain.RecordRepository.
func (s *Store) ListBySubject(ctx context.Context, subjectID string, cursor *domain.Cursor, limit int) ([]domain.Record, *domain.Cursor, error) {
	query := `SELECT ` + recordColumns + ` FROM activity_records WHERE subject_id = ?`
	args := []any{subjectID}
	if cursor != nil {
		c := toMillis(cursor.OccurredAt)
		query += ` AND (occurred_at < ? OR (occurred_at = ? AND record_id < ?))`
		args = append(args, c, c, cursor.ID)
	}
	query += ` ORDER BY occurred_at DESC, record_id DESC LIMIT ?`
	args = append(args, limit)

	results, err := s.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite.Store.ListBySubject: %w", err)
	}
	var next *domain.Cursor
	if limit > 0 && len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{OccurredAt: last.OccurredAt, ID: last.ID}
	}
	return results, next, nil
}

// ListBetween implements domain.RecordRepository.
func (s *Store) ListBetween(ctx context.Context, subjectID string, from, to time.Time) ([]domain.Record, error) {
	results, err := s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM activity_records
		  WHERE subject_id = ? AND occurred_at BETWEEN ? AND ?
		  ORDER BY occurred_at, record_id`,
		subjectID, toMillis(from), toMillis(to),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Store.ListBetween: %w", err)
	}
	return results, nil
}

// DeleteAll removes every record of the subject and reports how many were removed.
func (s *Store) DeleteAll(ctx context.Context, subjectID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity_records WHERE subject_id = ?`, subjectID)
	if err != nil {
		return 0, fmt.Errorf("sqlite.Store.DeleteAll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite.Store.DeleteAll: %w", err)
	}
	return n, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func optionalRecord(row *sql.Row, op string) (*domain.Record, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite.Store.%s: %w", op, err)
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.Record, error) {
	var (
		rec                         domain.Record
		kind                        string
		occurredAt, createdAt       int64
		sleepStarted, sleepDuration sql.NullInt64
		method, side, diaperKind    sql.NullString
		amount                      sql.NullFloat64
	)
	if err := row.Scan(&rec.ID, &rec.SubjectID, &kind, &occurredAt, &rec.RecordedBy, &rec.RecordedByName, &rec.Notes,
		&sleepStarted, &sleepDuration, &method, &side, &amount, &diaperKind, &createdAt); err != nil {
		return domain.Record{}, err
	}

	rec.Kind = domain.Kind(kind)
	rec.OccurredAt = fromMillis(occurredAt)
	rec.CreatedAt = fromMillis(createdAt)
	if rec.Kind == domain.KindSleep || sleepStarted.Valid || sleepDuration.Valid {
		rec.Sleep = &domain.Sleep{}
		if sleepStarted.Valid {
			started := fromMillis(sleepStarted.Int64)
			rec.Sleep.StartedAt = &started
		}
		if sleepDuration.Valid {
			duration := sleepDuration.Int64
			rec.Sleep.DurationMs = &duration
		}
	}
	if method.Valid {
		rec.Feeding = &domain.Feeding{Method: domain.FeedingMethod(method.String), Side: domain.FeedingSide(side.String)}
		if amount.Valid {
			oz := amount.Float64
			rec.Feeding.AmountOz = &oz
		}
	}
	if diaperKind.Valid {
		rec.Diaper = &domain.Diaper{Kind: domain.DiaperKind(diaperKind.String)}
	}
	return rec, nil
}
