package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/densign01/baby-tracker/internal/domain"
)

const subjectColumns = `subject_id, name, time_zone, owner_id, shared_with, created_at`

// CreateSubject inserts a subject.
func (r *Repository) CreateSubject(ctx context.Context, subject domain.Subject) error {
	shared := subject.SharedWith
	if shared == nil {
		shared = []string{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subjects (`+subjectColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		subject.ID, subject.Name, subject.TimeZone, subject.OwnerID, shared, subject.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres.Repository.CreateSubject: %w", err)
	}
	return nil
}

// GetSubject returns nil when the subject does not exist.
func (r *Repository) GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE subject_id=$1`, subjectID)
	subject, err := scanSubject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres.Repository.GetSubject: %w", err)
	}
	return &subject, nil
}

// ListSubjects returns the subjects owned by or shared with the caregiver, oldest first.
func (r *Repository) ListSubjects(ctx context.Context, caregiverID string) ([]domain.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+subjectColumns+` FROM subjects
          WHERE owner_id=$1 OR $1 = ANY(shared_with)
          ORDER BY created_at, subject_id`,
		caregiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.Repository.ListSubjects: %w", err)
	}
	defer rows.Close()

	var out []domain.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.Repository.ListSubjects: %w", err)
		}
		out = append(out, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.Repository.ListSubjects: %w", err)
	}
	return out, nil
}

// AddCaregiver appends caregiverID to the subject's shared list unless it is already there.
func (r *Repository) AddCaregiver(ctx context.Context, subjectID, caregiverID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE subjects
            SET shared_with = CASE WHEN $2 = ANY(shared_with) THEN shared_with ELSE array_append(shared_with, $2) END
          WHERE subject_id=$1`,
		subjectID, caregiverID,
	)
	if err != nil {
		return fmt.Errorf("postgres.Repository.AddCaregiver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres.Repository.AddCaregiver: %w", domain.ErrSubjectNotFound)
	}
	return nil
}

func scanSubject(row pgx.Row) (domain.Subject, error) {
	var s domain.Subject
	if err := row.Scan(&s.ID, &s.Name, &s.TimeZone, &s.OwnerID, &s.SharedWith, &s.CreatedAt); err != nil {
		return domain.Subject{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}
