package aggregate

import (
	"fmt"
	"slices"
	"time"

	"github.com/densign01/baby-tracker/internal/domain"
)

// DailySummary is the fixed-shape rollup of one calendar day.
type DailySummary struct {
	Date             time.Time
	TotalSleepMs     int64
	SleepCount       int
	FeedingCount     int
	BottleTotalOz    float64
	DiaperCount      int
	WetDiaperCount   int
	DirtyDiaperCount int
}

// DayReport is what a day view shows: the summary of the whole day plus the filtered detail list.
type DayReport struct {
	Summary DailySummary
	Filter  Category
	// Entries are the filtered records of the day, newest first.
	Entries []domain.Record
}

// Aggregate normalizes records, keeps those on the calendar day of ref and summarizes them.
func Aggregate(records []domain.Record, ref time.Time) (DailySummary, error) {
	normalized, err := NormalizeAll(records)
	if err != nil {
		return DailySummary{}, err
	}
	return summarize(ref, BucketByDay(normalized, ref)), nil
}

// Report builds the day view for ref. The summary always covers every category; filter only
// narrows Entries.
func Report(records []domain.Record, ref time.Time, filter Category) (DayReport, error) {
	normalized, err := NormalizeAll(records)
	if err != nil {
		return DayReport{}, err
	}
	if filter == "" {
		filter = CategoryAll
	}
	day := BucketByDay(normalized, ref)
	entries := Filter(day, filter)
	sortNewestFirst(entries)
	return DayReport{
		Summary: summarize(ref, day),
		Filter:  filter,
		Entries: entries,
	}, nil
}

// SummarizeRange returns one summary for every calendar day from the day of from through the
// day of to, in from's location. Days without records yield zero summaries.
func SummarizeRange(records []domain.Record, from, to time.Time) ([]DailySummary, error) {
	loc := from.Location()
	first := StartOfDay(from)
	last := StartOfDay(to.In(loc))
	if last.Before(first) {
		return nil, fmt.Errorf("range ends %s before it starts %s: %w", last.Format(DateLayout), first.Format(DateLayout), domain.ErrValidation)
	}

	normalized, err := NormalizeAll(records)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]domain.Record)
	for _, r := range normalized {
		key := r.OccurredAt.In(loc).Format(DateLayout)
		byDay[key] = append(byDay[key], r)
	}

	var out []DailySummary
	for d := first; !d.After(last); d = AddDays(d, 1) {
		out = append(out, summarize(d, byDay[d.Format(DateLayout)]))
	}
	return out, nil
}

// summarize expects normalized records of a single day.
func summarize(ref time.Time, records []domain.Record) DailySummary {
	s := DailySummary{Date: StartOfDay(ref)}
	for _, r := range records {
		switch r.Kind {
		case domain.KindSleep:
			s.SleepCount++
			if r.Sleep != nil && r.Sleep.DurationMs != nil {
				s.TotalSleepMs += *r.Sleep.DurationMs
			}
		case domain.KindFeeding:
			s.FeedingCount++
			if f := r.Feeding; f != nil && f.Method == domain.FeedingBottle && f.AmountOz != nil {
				s.BottleTotalOz += *f.AmountOz
			}
		case domain.KindDiaper:
			s.DiaperCount++
			if r.Diaper == nil {
				continue
			}
			switch r.Diaper.Kind {
			case domain.DiaperWet:
				s.WetDiaperCount++
			case domain.DiaperDirty:
				s.DirtyDiaperCount++
			case domain.DiaperBoth:
				s.WetDiaperCount++
				s.DirtyDiaperCount++
			}
		}
	}
	return s
}

func sortNewestFirst(records []domain.Record) {
	slices.SortStableFunc(records, func(a, b domain.Record) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
}

// Materialized is a DailySummary persisted by the summary projector. Version is the position of
// the event that triggered the recomputation; a lower version never overwrites a higher one.
type Materialized struct {
	SubjectID  string
	TimeZone   string
	Summary    DailySummary
	Version    int64
	ComputedAt time.Time
}
