// Package events defines the activity record event payloads written to the outbox.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types.
const (
	TypeActivityLogged  = "activity.logged"
	TypeActivityClosed  = "activity.closed"
	TypeActivityDeleted = "activity.deleted"
)

// ActivityLogged is emitted when a record is stored, including imported and started sleeps.
type ActivityLogged struct {
	RecordID   string    `json:"record_id"`
	SubjectID  string    `json:"subject_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordedBy string    `json:"recorded_by"`
	InProgress bool      `json:"in_progress,omitempty"`
}

// ActivityClosed is emitted when an open sleep is stopped. The record moves from
// PreviousOccurredAt (the start) to OccurredAt (the end).
type ActivityClosed struct {
	RecordID           string    `json:"record_id"`
	SubjectID          string    `json:"subject_id"`
	OccurredAt         time.Time `json:"occurred_at"`
	PreviousOccurredAt time.Time `json:"previous_occurred_at"`
	DurationMs         int64     `json:"duration_ms"`
}

// ActivityDeleted is emitted when a record is removed.
type ActivityDeleted struct {
	RecordID   string    `json:"record_id"`
	SubjectID  string    `json:"subject_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Touched names the subject and the instants whose calendar days an event changed.
type Touched struct {
	SubjectID string
	Instants  []time.Time
}

// Affected decodes payload according to eventType and reports what it touched.
func Affected(eventType string, payload []byte) (Touched, error) {
	switch eventType {
	case TypeActivityLogged:
		var e ActivityLogged
		if err := json.Unmarshal(payload, &e); err != nil {
			return Touched{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return Touched{SubjectID: e.SubjectID, Instants: []time.Time{e.OccurredAt}}, nil
	case TypeActivityClosed:
		var e ActivityClosed
		if err := json.Unmarshal(payload, &e); err != nil {
			return Touched{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return Touched{SubjectID: e.SubjectID, Instants: []time.Time{e.PreviousOccurredAt, e.OccurredAt}}, nil
	case TypeActivityDeleted:
		var e ActivityDeleted
		if err := json.Unmarshal(payload, &e); err != nil {
			return Touched{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return Touched{SubjectID: e.SubjectID, Instants: []time.Time{e.OccurredAt}}, nil
	}
	return Touched{}, fmt.Errorf("unknown event type %q", eventType)
}
