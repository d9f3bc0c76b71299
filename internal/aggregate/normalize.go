// Package aggregate turns activity records into per-day summaries and detail lists.
//
// Everything here is pure: functions take a snapshot of records and return new values without
// touching their input. Day boundaries are evaluated in the location of the reference time passed
// by the caller.
package aggregate

import (
	"time"

	"github.com/densign01/baby-tracker/internal/domain"
)

// Normalize maps flattened legacy diaper kinds onto the diaper kind and validates the record.
// The returned record is a copy; r is never modified.
func Normalize(r domain.Record) (domain.Record, error) {
	if r.OccurredAt.IsZero() {
		return domain.Record{}, malformed(r, "occurredAt is not set")
	}

	out := r
	out.OccurredAt = r.OccurredAt.Truncate(time.Millisecond)

	switch {
	case r.Kind.Legacy():
		out.Kind = domain.KindDiaper
		out.Diaper = &domain.Diaper{Kind: legacyDiaperKind(r.Kind)}
		out.Sleep = nil
		out.Feeding = nil
		return out, nil
	case !r.Kind.Canonical():
		return domain.Record{}, malformed(r, "unknown kind")
	}

	switch out.Kind {
	case domain.KindSleep:
		if s := out.Sleep; s != nil && s.DurationMs != nil && *s.DurationMs < 0 {
			return domain.Record{}, malformed(r, "negative sleep duration")
		}
	case domain.KindFeeding:
		if f := out.Feeding; f != nil && f.AmountOz != nil && *f.AmountOz < 0 {
			return domain.Record{}, malformed(r, "negative feeding amount")
		}
	case domain.KindDiaper:
		if out.Diaper == nil {
			break
		}
		d := *out.Diaper
		switch d.Kind {
		case domain.DiaperWet, domain.DiaperDirty, domain.DiaperBoth, "":
		case domain.DiaperLegacyPee:
			d.Kind = domain.DiaperWet
		case domain.DiaperLegacyPoop:
			d.Kind = domain.DiaperDirty
		default:
			return domain.Record{}, malformed(r, "unknown diaper kind "+string(d.Kind))
		}
		out.Diaper = &d
	}
	return out, nil
}

// NormalizeAll normalizes every record into a new slice. The first malformed record aborts.
func NormalizeAll(records []domain.Record) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		n, err := Normalize(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func legacyDiaperKind(k domain.Kind) domain.DiaperKind {
	switch k {
	case domain.KindLegacyPoop, domain.KindLegacyDirty:
		return domain.DiaperDirty
	default:
		return domain.DiaperWet
	}
}

func malformed(r domain.Record, reason string) *domain.MalformedRecordError {
	return &domain.MalformedRecordError{RecordID: r.ID, Kind: r.Kind, Reason: reason}
}
