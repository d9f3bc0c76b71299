// Package domain defines the records, subjects and errors shared by the tracker services.
package domain

import "time"

// Kind identifies the category of a logged activity.
type Kind string

const (
	KindSleep   Kind = "sleep"
	KindFeeding Kind = "feeding"
	KindDiaper  Kind = "diaper"

	// Flattened diaper kinds written by early clients. They are only valid as input to normalization.
	KindLegacyPee   Kind = "pee"
	KindLegacyWet   Kind = "wet"
	KindLegacyPoop  Kind = "poop"
	KindLegacyDirty Kind = "dirty"
)

// Canonical reports whether k is one of the three current kinds.
func (k Kind) Canonical() bool {
	switch k {
	case KindSleep, KindFeeding, KindDiaper:
		return true
	}
	return false
}

// Legacy reports whether k is a flattened diaper kind.
func (k Kind) Legacy() bool {
	switch k {
	case KindLegacyPee, KindLegacyWet, KindLegacyPoop, KindLegacyDirty:
		return true
	}
	return false
}

// FeedingMethod describes how a feeding was given.
type FeedingMethod string

const (
	FeedingBreast FeedingMethod = "breast"
	FeedingBottle FeedingMethod = "bottle"
	FeedingSolid  FeedingMethod = "solid"
)

// FeedingSide applies to breast feedings only.
type FeedingSide string

const (
	SideLeft  FeedingSide = "left"
	SideRight FeedingSide = "right"
	SideBoth  FeedingSide = "both"
)

// DiaperKind is the content of a diaper change.
type DiaperKind string

const (
	DiaperWet   DiaperKind = "wet"
	DiaperDirty DiaperKind = "dirty"
	DiaperBoth  DiaperKind = "both"

	DiaperLegacyPee  DiaperKind = "pee"
	DiaperLegacyPoop DiaperKind = "poop"
)

// Record is a single logged activity for a subject.
//
// OccurredAt is the instant used for day bucketing. For a finished sleep it is the end of the
// sleep; for an in-progress sleep it is the start.
type Record struct {
	ID             string
	SubjectID      string
	Kind           Kind
	OccurredAt     time.Time
	RecordedBy     string
	RecordedByName string
	Notes          string
	CreatedAt      time.Time

	Sleep   *Sleep
	Feeding *Feeding
	Diaper  *Diaper
}

// Sleep holds the sleep specific fields. A nil DurationMs marks an in-progress sleep.
type Sleep struct {
	StartedAt  *time.Time
	DurationMs *int64
}

// InProgress reports whether the sleep has not been stopped yet.
func (s *Sleep) InProgress() bool {
	return s == nil || s.DurationMs == nil
}

// Feeding holds the feeding specific fields.
type Feeding struct {
	Method   FeedingMethod
	Side     FeedingSide
	AmountOz *float64
}

// Diaper holds the diaper specific fields.
type Diaper struct {
	Kind DiaperKind
}

// IsActiveSleep reports whether r is a sleep that has been started but not stopped.
func (r Record) IsActiveSleep() bool {
	return r.Kind == KindSleep && r.Sleep.InProgress()
}

// Cursor models the pagination token for record listings.
type Cursor struct {
	OccurredAt time.Time
	ID         string
}
