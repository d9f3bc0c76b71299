package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/densign01/baby-tracker/internal/domain"
)

// CreateSubjectInput captures a new tracked child.
type CreateSubjectInput struct {
	Name     string
	TimeZone string
	OwnerID  string
}

// CreateSubject validates and persists a subject owned by the caller.
func (s *Service) CreateSubject(ctx context.Context, in CreateSubjectInput) (*domain.Subject, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("service.Service.CreateSubject: name is required: %w", domain.ErrValidation)
	}
	if in.OwnerID == "" {
		return nil, fmt.Errorf("service.Service.CreateSubject: owner is required: %w", domain.ErrValidation)
	}
	zone := in.TimeZone
	if zone == "" {
		zone = s.defaultTimeZone
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return nil, fmt.Errorf("service.Service.CreateSubject: time zone %q: %w", zone, domain.ErrValidation)
	}

	subject := domain.Subject{
		ID:        uuid.NewString(),
		Name:      name,
		TimeZone:  zone,
		OwnerID:   in.OwnerID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.subjects.CreateSubject(ctx, subject); err != nil {
		return nil, fmt.Errorf("service.Service.CreateSubject: %w", err)
	}
	return &subject, nil
}

// GetSubject returns a subject the caregiver has access to.
func (s *Service) GetSubject(ctx context.Context, subjectID, caregiverID string) (*domain.Subject, error) {
	subject, err := s.authorize(ctx, subjectID, caregiverID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetSubject: %w", err)
	}
	return subject, nil
}

// ListSubjects returns every subject owned by or shared with the caregiver.
func (s *Service) ListSubjects(ctx context.Context, caregiverID string) ([]domain.Subject, error) {
	subjects, err := s.subjects.ListSubjects(ctx, caregiverID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.ListSubjects: %w", err)
	}
	return subjects, nil
}

// ShareSubject grants caregiverID access. Only the owner may share.
func (s *Service) ShareSubject(ctx context.Context, subjectID, ownerID, caregiverID string) (*domain.Subject, error) {
	caregiverID = strings.TrimSpace(caregiverID)
	if caregiverID == "" {
		return nil, fmt.Errorf("service.Service.ShareSubject: caregiver is required: %w", domain.ErrValidation)
	}
	subject, err := s.authorize(ctx, subjectID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.ShareSubject: %w", err)
	}
	if subject.OwnerID != ownerID {
		return nil, fmt.Errorf("service.Service.ShareSubject: only the owner may share: %w", domain.ErrForbidden)
	}
	if caregiverID == subject.OwnerID || slices.Contains(subject.SharedWith, caregiverID) {
		return subject, nil
	}
	if err := s.subjects.AddCaregiver(ctx, subjectID, caregiverID); err != nil {
		return nil, fmt.Errorf("service.Service.ShareSubject: %w", err)
	}
	subject.SharedWith = append(subject.SharedWith, caregiverID)
	return subject, nil
}
