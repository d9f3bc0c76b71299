package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/densign01/baby-tracker/internal/domain"
)

// CreateSubject implements domain.SubjectRepository.
func (s *Store) CreateSubject(ctx context.Context, subject domain.Subject) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite.Store.CreateSubject: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO subjects (subject_id, name, time_zone, owner_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		subject.ID, subject.Name, subject.TimeZone, subject.OwnerID, toMillis(subject.CreatedAt),
	); err != nil {
		return fmt.Errorf("sqlite.Store.CreateSubject: %w", err)
	}
	for _, caregiver := range subject.SharedWith {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO subject_caregivers (subject_id, caregiver_id) VALUES (?, ?)`,
			subject.ID, caregiver,
		); err != nil {
			return fmt.Errorf("sqlite.Store.CreateSubject: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite.Store.CreateSubject: %w", err)
	}
	return nil
}

// GetSubject implements domain.SubjectRepository.
func (s *Store) GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error) {
	var (
		subject   domain.Subject
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT subject_id, name, time_zone, owner_id, created_at FROM subjects WHERE subject_id = ?`, subjectID,
	).Scan(&subject.ID, &subject.Name, &subject.TimeZone, &subject.OwnerID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite.Store.GetSubject: %w", err)
	}
	subject.CreatedAt = fromMillis(createdAt)
	if subject.SharedWith, err = s.caregivers(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("sqlite.Store.GetSubject: %w", err)
	}
	return &subject, nil
}

// ListSubjects implements domain.SubjectRepository.
func (s *Store) ListSubjects(ctx context.Context, caregiverID string) ([]domain.Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_id FROM subjects
		  WHERE owner_id = ?
		     OR subject_id IN (SELECT subject_id FROM subject_caregivers WHERE caregiver_id = ?)
		  ORDER BY created_at, subject_id`,
		caregiverID, caregiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Store.ListSubjects: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite.Store.ListSubjects: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.Store.ListSubjects: %w", err)
	}

	out := make([]domain.Subject, 0, len(ids))
	for _, id := range ids {
		subject, err := s.GetSubject(ctx, id)
		if err != nil {
			return nil, err
		}
		if subject != nil {
			out = append(out, *subject)
		}
	}
	return out, nil
}

// AddCaregiver implements domain.SubjectRepository.
func (s *Store) AddCaregiver(ctx context.Context, subjectID, caregiverID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subject_caregivers (subject_id, caregiver_id) VALUES (?, ?)`,
		subjectID, caregiverID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("sqlite.Store.AddCaregiver: %w", domain.ErrSubjectNotFound)
		}
		return fmt.Errorf("sqlite.Store.AddCaregiver: %w", err)
	}
	return nil
}

func (s *Store) caregivers(ctx context.Context, subjectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT caregiver_id FROM subject_caregivers WHERE subject_id = ? ORDER BY rowid`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
