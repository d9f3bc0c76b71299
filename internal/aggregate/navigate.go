package aggregate

import "time"

// Navigator moves a day view between calendar days. It never moves past today.
type Navigator struct {
	loc *time.Location
	now func() time.Time
}

// NewNavigator builds a Navigator for loc. A nil clock uses time.Now.
func NewNavigator(loc *time.Location, now func() time.Time) Navigator {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return Navigator{loc: loc, now: now}
}

// Location is the zone the navigator evaluates calendar days in.
func (n Navigator) Location() *time.Location {
	return n.loc
}

// Today returns local midnight of the current day.
func (n Navigator) Today() time.Time {
	return StartOfDay(n.now().In(n.loc))
}

// Previous returns the calendar day before day.
func (n Navigator) Previous(day time.Time) time.Time {
	return AddDays(StartOfDay(day.In(n.loc)), -1)
}

// Next returns the calendar day after day. When that would be in the future the view stays on
// day and ok is false.
func (n Navigator) Next(day time.Time) (next time.Time, ok bool) {
	current := StartOfDay(day.In(n.loc))
	next = AddDays(current, 1)
	if next.After(n.Today()) {
		return current, false
	}
	return next, true
}

// IsToday reports whether day is the current calendar day.
func (n Navigator) IsToday(day time.Time) bool {
	return SameDay(day, n.now(), n.loc)
}

// Label renders the heading of a day view.
func (n Navigator) Label(day time.Time) string {
	switch {
	case n.IsToday(day):
		return "Today"
	case SameDay(day, AddDays(n.Today(), -1), n.loc):
		return "Yesterday"
	default:
		return day.In(n.loc).Format("Mon, Jan 2")
	}
}
