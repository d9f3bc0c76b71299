package api

import (
	"time"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/service"
)

// SubjectView exposes a tracked subject.
type SubjectView struct {
	SubjectID  string    `json:"subject_id"`
	Name       string    `json:"name"`
	TimeZone   string    `json:"time_zone"`
	OwnerID    string    `json:"owner_id"`
	SharedWith []string  `json:"shared_with"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListSubjectsResponse packages subject list results.
type ListSubjectsResponse struct {
	Items []SubjectView `json:"items"`
}

// RecordView exposes full details about an activity record.
type RecordView struct {
	ActivityID     string       `json:"activity_id"`
	SubjectID      string       `json:"subject_id"`
	Kind           string       `json:"kind"`
	OccurredAt     time.Time    `json:"occurred_at"`
	RecordedBy     string       `json:"recorded_by"`
	RecordedByName string       `json:"recorded_by_name,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	Sleep          *SleepView   `json:"sleep,omitempty"`
	Feeding        *FeedingView `json:"feeding,omitempty"`
	Diaper         *DiaperView  `json:"diaper,omitempty"`
}

// SleepView holds sleep details. Duration is the display form of DurationMs.
type SleepView struct {
	StartedAt  *time.Time `json:"started_at,omitempty"`
	DurationMs *int64     `json:"duration_ms,omitempty"`
	Duration   string     `json:"duration,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// FeedingView holds feeding details.
type FeedingView struct {
	Method   string   `json:"method"`
	Side     string   `json:"side,omitempty"`
	AmountOz *float64 `json:"amount_oz,omitempty"`
}

// DiaperView holds diaper details.
type DiaperView struct {
	Kind string `json:"kind,omitempty"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items      []RecordView `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// SummaryView is one day's totals.
type SummaryView struct {
	Date             string  `json:"date"`
	TotalSleepMs     int64   `json:"total_sleep_ms"`
	TotalSleep       string  `json:"total_sleep"`
	SleepCount       int     `json:"sleep_count"`
	FeedingCount     int     `json:"feeding_count"`
	BottleTotalOz    float64 `json:"bottle_total_oz"`
	DiaperCount      int     `json:"diaper_count"`
	WetDiaperCount   int     `json:"wet_diaper_count"`
	DirtyDiaperCount int     `json:"dirty_diaper_count"`
}

// NavigationView tells a client where the previous and next days are. Next is omitted on today.
type NavigationView struct {
	Previous string  `json:"previous"`
	Next     *string `json:"next,omitempty"`
	IsToday  bool    `json:"is_today"`
}

// DayResponse is the body of GET /v1/subjects/{subjectID}/days/{date}.
type DayResponse struct {
	Date       string         `json:"date"`
	Label      string         `json:"label"`
	Filter     string         `json:"filter"`
	Summary    SummaryView    `json:"summary"`
	Entries    []RecordView   `json:"entries"`
	Navigation NavigationView `json:"navigation"`
}

// RangeResponse lists live summaries for a span of days, oldest first.
type RangeResponse struct {
	Days []SummaryView `json:"days"`
}

// StoredSummaryView is a materialized summary with its projection metadata.
type StoredSummaryView struct {
	SummaryView
	TimeZone   string    `json:"time_zone"`
	Version    int64     `json:"version"`
	ComputedAt time.Time `json:"computed_at"`
}

// StoredSummariesResponse lists materialized summaries, oldest first.
type StoredSummariesResponse struct {
	Days []StoredSummaryView `json:"days"`
}

// LatestView is the most recent record of one category.
type LatestView struct {
	Activity RecordView `json:"activity"`
	Ago      string     `json:"ago"`
}

// StatusResponse is the body of GET /v1/subjects/{subjectID}/status.
type StatusResponse struct {
	Now         time.Time             `json:"now"`
	ActiveSleep *RecordView           `json:"active_sleep,omitempty"`
	SleepingFor string                `json:"sleeping_for,omitempty"`
	Latest      map[string]LatestView `json:"latest"`
}

func toSubjectView(s domain.Subject) SubjectView {
	shared := s.SharedWith
	if shared == nil {
		shared = []string{}
	}
	return SubjectView{
		SubjectID:  s.ID,
		Name:       s.Name,
		TimeZone:   s.TimeZone,
		OwnerID:    s.OwnerID,
		SharedWith: shared,
		CreatedAt:  s.CreatedAt,
	}
}

func toRecordView(r domain.Record) RecordView {
	view := RecordView{
		ActivityID:     r.ID,
		SubjectID:      r.SubjectID,
		Kind:           string(r.Kind),
		OccurredAt:     r.OccurredAt,
		RecordedBy:     r.RecordedBy,
		RecordedByName: r.RecordedByName,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
	}
	if s := r.Sleep; s != nil {
		view.Sleep = &SleepView{StartedAt: s.StartedAt, DurationMs: s.DurationMs, InProgress: s.InProgress()}
		if s.DurationMs != nil {
			view.Sleep.Duration = aggregate.FormatDuration(*s.DurationMs)
		}
	}
	if f := r.Feeding; f != nil {
		view.Feeding = &FeedingView{Method: string(f.Method), Side: string(f.Side), AmountOz: f.AmountOz}
	}
	if d := r.Diaper; d != nil {
		view.Diaper = &DiaperView{Kind: string(d.Kind)}
	}
	return view
}

func toSummaryView(s aggregate.DailySummary) SummaryView {
	return SummaryView{
		Date:             s.Date.Format(aggregate.DateLayout),
		TotalSleepMs:     s.TotalSleepMs,
		TotalSleep:       aggregate.FormatDuration(s.TotalSleepMs),
		SleepCount:       s.SleepCount,
		FeedingCount:     s.FeedingCount,
		BottleTotalOz:    s.BottleTotalOz,
		DiaperCount:      s.DiaperCount,
		WetDiaperCount:   s.WetDiaperCount,
		DirtyDiaperCount: s.DirtyDiaperCount,
	}
}

func toDayResponse(v service.DayView) DayResponse {
	entries := make([]RecordView, 0, len(v.Entries))
	for _, r := range v.Entries {
		entries = append(entries, toRecordView(r))
	}
	nav := NavigationView{
		Previous: v.Previous.Format(aggregate.DateLayout),
		IsToday:  v.IsToday,
	}
	if v.Next != nil {
		next := v.Next.Format(aggregate.DateLayout)
		nav.Next = &next
	}
	return DayResponse{
		Date:       v.Day.Format(aggregate.DateLayout),
		Label:      v.Label,
		Filter:     string(v.Filter),
		Summary:    toSummaryView(v.Summary),
		Entries:    entries,
		Navigation: nav,
	}
}

func toStatusResponse(s service.Status) StatusResponse {
	resp := StatusResponse{
		Now:         s.Now,
		SleepingFor: s.SleepingFor,
		Latest:      make(map[string]LatestView, len(s.Latest)),
	}
	if s.ActiveSleep != nil {
		active := toRecordView(*s.ActiveSleep)
		resp.ActiveSleep = &active
	}
	for category, entry := range s.Latest {
		resp.Latest[string(category)] = LatestView{Activity: toRecordView(entry.Record), Ago: entry.Ago}
	}
	return resp
}
