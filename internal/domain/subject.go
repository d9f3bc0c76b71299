package domain

import (
	"fmt"
	"slices"
	"time"
)

// Subject is the child whose activities are tracked. The owner may share it with other caregivers.
type Subject struct {
	ID         string
	Name       string
	TimeZone   string
	OwnerID    string
	SharedWith []string
	CreatedAt  time.Time
}

// Location resolves the subject's IANA time zone. An empty zone means the process local zone.
func (s Subject) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("subject %s time zone %q: %w", s.ID, s.TimeZone, ErrValidation)
	}
	return loc, nil
}

// CanAccess reports whether caregiverID may read and log records for the subject.
func (s Subject) CanAccess(caregiverID string) bool {
	if caregiverID == "" {
		return false
	}
	return s.OwnerID == caregiverID || slices.Contains(s.SharedWith, caregiverID)
}
