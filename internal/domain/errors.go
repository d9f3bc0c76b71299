package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIdempotentReplay indicates an existing record was found for the provided idempotency key.
	ErrIdempotentReplay = errors.New("record already exists for idempotency key")
	// ErrRecordNotFound is returned when a record cannot be located.
	ErrRecordNotFound = errors.New("record not found")
	// ErrSubjectNotFound is returned when a subject cannot be located.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrValidation is wrapped by every input validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when a caregiver has no access to a subject.
	ErrForbidden = errors.New("caregiver has no access to subject")
	// ErrSleepInProgress is returned when a sleep is started while another is still open.
	ErrSleepInProgress = errors.New("a sleep is already in progress")
	// ErrNoActiveSleep is returned when stopping a sleep that was never started.
	ErrNoActiveSleep = errors.New("no sleep in progress")
)

// MalformedRecordError reports a record the aggregator cannot interpret.
type MalformedRecordError struct {
	RecordID string
	Kind     Kind
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q (kind %q): %s", e.RecordID, e.Kind, e.Reason)
}
