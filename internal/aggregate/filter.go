package aggregate

import (
	"fmt"

	"github.com/densign01/baby-tracker/internal/domain"
)

// Category selects which records a detail list shows.
type Category string

const (
	CategoryAll     Category = "all"
	CategorySleep   Category = "sleep"
	CategoryFeeding Category = "feeding"
	CategoryDiaper  Category = "diaper"
)

const (
	recentPerCategory = 10
	recentAll         = 20
)

// ParseCategory validates a filter value. The empty string selects all categories.
func ParseCategory(value string) (Category, error) {
	switch c := Category(value); c {
	case "":
		return CategoryAll, nil
	case CategoryAll, CategorySleep, CategoryFeeding, CategoryDiaper:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q: %w", value, domain.ErrValidation)
	}
}

// Matches reports whether a record of kind k belongs to the category. Legacy diaper kinds match
// the diaper category.
func (c Category) Matches(k domain.Kind) bool {
	switch c {
	case CategoryAll, "":
		return true
	case CategoryDiaper:
		return k == domain.KindDiaper || k.Legacy()
	default:
		return domain.Kind(c) == k
	}
}

// Filter keeps the records matching c, preserving order.
func Filter(records []domain.Record, c Category) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if c.Matches(r.Kind) {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the most recent record in the category.
func Latest(records []domain.Record, c Category) (domain.Record, bool) {
	var (
		latest domain.Record
		found  bool
	)
	for _, r := range records {
		if !c.Matches(r.Kind) {
			continue
		}
		if !found || r.OccurredAt.After(latest.OccurredAt) {
			latest = r
			found = true
		}
	}
	return latest, found
}

// Recent returns up to limit records of the category, newest first. A non-positive limit uses
// 10 for a single category and 20 for all.
func Recent(records []domain.Record, c Category, limit int) []domain.Record {
	if limit <= 0 {
		limit = recentPerCategory
		if c == CategoryAll || c == "" {
			limit = recentAll
		}
	}
	out := Filter(records, c)
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ActiveSleep returns the most recently started sleep that has not been stopped.
func ActiveSleep(records []domain.Record) (domain.Record, bool) {
	var (
		active domain.Record
		found  bool
	)
	for _, r := range records {
		if !r.IsActiveSleep() {
			continue
		}
		if !found || r.OccurredAt.After(active.OccurredAt) {
			active = r
			found = true
		}
	}
	return active, found
}
