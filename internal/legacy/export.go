// Package legacy reads the activity export of the browser version of the tracker. Diaper changes in
// that format carry the flattened kinds "pee" and "poop"; they are kept as is and resolved by
// the aggregator's normalization.
package legacy

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/densign01/baby-tracker/internal/domain"
)

// Activity is one entry of the exported babyActivities array.
type Activity struct {
	ID          json.Number `json:"id"`
	Type        string      `json:"type"`
	Timestamp   time.Time   `json:"timestamp"`
	StartTime   *time.Time  `json:"startTime,omitempty"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
	Duration    *int64      `json:"duration,omitempty"`
	FeedingType string      `json:"feedingType,omitempty"`
	Side        string      `json:"side,omitempty"`
	Amount      *float64    `json:"amount,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// Decode reads an export. It accepts either the bare array or an object holding it under
// "babyActivities", which is how a full localStorage dump looks.
func Decode(r io.Reader) ([]domain.Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read export")
	}

	var activities []Activity
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var dump struct {
			Activities json.RawMessage `json:"babyActivities"`
		}
		if err := json.Unmarshal(raw, &dump); err != nil {
			return nil, errors.Wrap(err, "decode export")
		}
		raw = dump.Activities
		// localStorage stores the array as a JSON string
		var nested string
		if json.Unmarshal(raw, &nested) == nil {
			raw = []byte(nested)
		}
	}
	if err := json.Unmarshal(raw, &activities); err != nil {
		return nil, errors.Wrap(err, "decode export")
	}

	records := make([]domain.Record, 0, len(activities))
	for i, a := range activities {
		rec, err := a.Record()
		if err != nil {
			return nil, errors.Wrapf(err, "activity %d", i)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Record converts the entry. The exported id becomes the record id so re-importing the same
// file is detected.
func (a Activity) Record() (domain.Record, error) {
	if a.Timestamp.IsZero() {
		return domain.Record{}, fmt.Errorf("timestamp is required: %w", domain.ErrValidation)
	}
	rec := domain.Record{
		ID:         legacyID(a),
		Kind:       domain.Kind(a.Type),
		OccurredAt: a.Timestamp.UTC(),
		Notes:      strings.TrimSpace(a.Notes),
	}

	switch rec.Kind {
	case domain.KindSleep:
		sleep := &domain.Sleep{DurationMs: a.Duration}
		switch {
		case a.StartTime != nil:
			started := a.StartTime.UTC()
			sleep.StartedAt = &started
		case a.Duration != nil:
			started := rec.OccurredAt.Add(-time.Duration(*a.Duration) * time.Millisecond)
			sleep.StartedAt = &started
		}
		if a.EndTime != nil {
			rec.OccurredAt = a.EndTime.UTC()
		}
		if sleep.DurationMs == nil {
			var zero int64
			sleep.DurationMs = &zero
		}
		rec.Sleep = sleep
	case domain.KindFeeding:
		rec.Feeding = &domain.Feeding{
			Method:   domain.FeedingMethod(a.FeedingType),
			Side:     domain.FeedingSide(a.Side),
			AmountOz: a.Amount,
		}
	case domain.KindDiaper:
		rec.Diaper = &domain.Diaper{}
	}
	return rec, nil
}

func legacyID(a Activity) string {
	if a.ID == "" {
		return ""
	}
	return "legacy-" + a.ID.String()
}
