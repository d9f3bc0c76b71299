package aggregate

import (
	"time"

	"github.com/densign01/baby-tracker/internal/domain"
)

// DateLayout is the civil date format used in keys and URLs.
const DateLayout = "2006-01-02"

// StartOfDay returns local midnight of the calendar day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 local time of the calendar day containing t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// InDay reports whether occurredAt falls inside the calendar day of ref, both ends inclusive.
func InDay(occurredAt, ref time.Time) bool {
	at := occurredAt.Truncate(time.Millisecond)
	return !at.Before(StartOfDay(ref)) && !at.After(EndOfDay(ref))
}

// BucketByDay returns the records that occurred on the calendar day of ref, in input order.
func BucketByDay(records []domain.Record, ref time.Time) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if InDay(r.OccurredAt, ref) {
			out = append(out, r)
		}
	}
	return out
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return a.In(loc).Format(DateLayout) == b.In(loc).Format(DateLayout)
}

// AddDays moves a civil date by n days and returns local midnight of the result.
// Calendar arithmetic keeps DST transition days at their real length.
func AddDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}

// ParseDay parses a civil date in loc and returns its local midnight.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, loc)
}
