package service

import (
	"context"
	"fmt"
	"time"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/observability"
)

// statusWindow is the number of newest records Status scans for the latest entry per category.
const statusWindow = 500

// DayQuery selects a day view. An empty Date means today in the resolved zone; an empty
// TimeZone means the subject's zone.
type DayQuery struct {
	SubjectID   string
	CaregiverID string
	Date        string
	TimeZone    string
	Filter      aggregate.Category
}

// DayView is a day report plus the navigation state around it.
type DayView struct {
	aggregate.DayReport
	Day      time.Time
	Label    string
	IsToday  bool
	Previous time.Time
	// Next is nil when the view is already on today.
	Next *time.Time
}

// DayReport loads the records of one calendar day and aggregates them.
func (s *Service) DayReport(ctx context.Context, q DayQuery) (*DayView, error) {
	started := time.Now()
	subject, err := s.authorize(ctx, q.SubjectID, q.CaregiverID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.DayReport: %w", err)
	}
	loc, err := location(subject, q.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("service.Service.DayReport: %w", err)
	}

	nav := aggregate.NewNavigator(loc, s.now)
	day := nav.Today()
	if q.Date != "" {
		if day, err = aggregate.ParseDay(q.Date, loc); err != nil {
			return nil, fmt.Errorf("service.Service.DayReport: date %q: %w", q.Date, domain.ErrValidation)
		}
	}

	records, err := s.records.ListBetween(ctx, q.SubjectID, aggregate.StartOfDay(day), aggregate.EndOfDay(day))
	if err != nil {
		return nil, fmt.Errorf("service.Service.DayReport: %w", err)
	}

	report, err := aggregate.Report(records, day, q.Filter)
	if err != nil {
		s.recordMalformed(err, q.SubjectID)
		return nil, fmt.Errorf("service.Service.DayReport: %w", err)
	}
	observability.ObserveReport("day_report", started)

	view := &DayView{
		DayReport: report,
		Day:       day,
		Label:     nav.Label(day),
		IsToday:   nav.IsToday(day),
		Previous:  nav.Previous(day),
	}
	if next, ok := nav.Next(day); ok {
		view.Next = &next
	}
	return view, nil
}

// RangeQuery selects an inclusive span of calendar days.
type RangeQuery struct {
	SubjectID   string
	CaregiverID string
	From        string
	To          string
	TimeZone    string
}

func (s *Service) resolveRange(ctx context.Context, q RangeQuery) (time.Time, time.Time, error) {
	subject, err := s.authorize(ctx, q.SubjectID, q.CaregiverID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	loc, err := location(subject, q.TimeZone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	to := aggregate.StartOfDay(s.now().In(loc))
	if q.To != "" {
		if to, err = aggregate.ParseDay(q.To, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to %q: %w", q.To, domain.ErrValidation)
		}
	}
	from := aggregate.AddDays(to, -6)
	if q.From != "" {
		if from, err = aggregate.ParseDay(q.From, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from %q: %w", q.From, domain.ErrValidation)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must not be after to: %w", domain.ErrValidation)
	}
	if aggregate.AddDays(from, maxRangeDays).Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("range exceeds %d days: %w", maxRangeDays, domain.ErrValidation)
	}
	return from, to, nil
}

// RangeSummaries aggregates every day in the range from the live records. Without From and To
// it covers the last seven days.
func (s *Service) RangeSummaries(ctx context.Context, q RangeQuery) ([]aggregate.DailySummary, error) {
	started := time.Now()
	from, to, err := s.resolveRange(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service.Service.RangeSummaries: %w", err)
	}

	records, err := s.records.ListBetween(ctx, q.SubjectID, from, aggregate.EndOfDay(to))
	if err != nil {
		return nil, fmt.Errorf("service.Service.RangeSummaries: %w", err)
	}
	summaries, err := aggregate.SummarizeRange(records, from, to)
	if err != nil {
		s.recordMalformed(err, q.SubjectID)
		return nil, fmt.Errorf("service.Service.RangeSummaries: %w", err)
	}
	observability.ObserveReport("range_summaries", started)
	return summaries, nil
}

// StoredSummaries returns the summaries materialized by the projector for the range. The range
// is always read in the subject's zone; TimeZone is ignored.
func (s *Service) StoredSummaries(ctx context.Context, q RangeQuery) ([]aggregate.Materialized, error) {
	if s.summaries == nil {
		return nil, fmt.Errorf("service.Service.StoredSummaries: %w", ErrSummariesUnavailable)
	}
	// rows are keyed by calendar days of the subject's zone
	q.TimeZone = ""
	from, to, err := s.resolveRange(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service.Service.StoredSummaries: %w", err)
	}
	out, err := s.summaries.ListDailySummaries(ctx, q.SubjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service.Service.StoredSummaries: %w", err)
	}
	return out, nil
}

// LatestEntry is the most recent record of a category and how long ago it happened.
type LatestEntry struct {
	Record domain.Record
	Ago    string
}

// Status is the at-a-glance state of a subject.
type Status struct {
	Now         time.Time
	ActiveSleep *domain.Record
	// SleepingFor is the formatted elapsed time of the active sleep.
	SleepingFor string
	Latest      map[aggregate.Category]LatestEntry
}

// Status reports the open sleep and the latest record per category.
func (s *Service) Status(ctx context.Context, subjectID, caregiverID string) (*Status, error) {
	subject, err := s.authorize(ctx, subjectID, caregiverID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.Status: %w", err)
	}
	loc, err := subject.Location()
	if err != nil {
		return nil, fmt.Errorf("service.Service.Status: %w", err)
	}

	now := s.now().In(loc)
	status := &Status{Now: now, Latest: make(map[aggregate.Category]LatestEntry)}

	active, err := s.records.FindActiveSleep(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("service.Service.Status: %w", err)
	}
	if active != nil {
		status.ActiveSleep = active
		status.SleepingFor = aggregate.FormatDuration(now.Sub(active.OccurredAt).Milliseconds())
	}

	recent, _, err := s.records.ListBySubject(ctx, subjectID, nil, statusWindow)
	if err != nil {
		return nil, fmt.Errorf("service.Service.Status: %w", err)
	}
	normalized, err := aggregate.NormalizeAll(recent)
	if err != nil {
		s.recordMalformed(err, subjectID)
		return nil, fmt.Errorf("service.Service.Status: %w", err)
	}
	for _, c := range []aggregate.Category{aggregate.CategorySleep, aggregate.CategoryFeeding, aggregate.CategoryDiaper} {
		if latest, ok := aggregate.Latest(normalized, c); ok {
			status.Latest[c] = LatestEntry{Record: latest, Ago: aggregate.TimeAgo(latest.OccurredAt.In(loc), now)}
		}
	}
	return status, nil
}
