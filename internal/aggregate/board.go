package aggregate

import (
	"sync"
	"time"
)

// DefaultBoardRetention is how many calendar days behind the newest published day a Board keeps.
const DefaultBoardRetention = 14

// Board keeps the latest summary per subject and day. Each summary carries the version of the
// snapshot it was computed from; an older version never replaces a newer one.
//
// Days older than the retention window behind the newest published day are evicted, so a
// long-running consumer holds at most subjects × retention entries. Late events for evicted
// days are accepted again; the durable summary store still guards their versions.
type Board struct {
	mu        sync.RWMutex
	entries   map[boardKey]boardEntry
	retention int
	newest    string
}

type boardKey struct {
	subjectID string
	day       string
}

type boardEntry struct {
	version int64
	summary DailySummary
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithRetention sets how many days behind the newest day are kept. Values below 1 keep one day.
func WithRetention(days int) BoardOption {
	return func(b *Board) { b.retention = max(days, 1) }
}

// NewBoard constructs an empty Board.
func NewBoard(opts ...BoardOption) *Board {
	b := &Board{entries: make(map[boardKey]boardEntry), retention: DefaultBoardRetention}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish stores summary unless a newer version is already held. It reports whether the
// summary was accepted. Republishing the current version is accepted.
func (b *Board) Publish(subjectID string, summary DailySummary, version int64) bool {
	day := summary.Date.Format(DateLayout)
	key := boardKey{subjectID: subjectID, day: day}

	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.entries[key]; ok && current.version > version {
		return false
	}
	b.entries[key] = boardEntry{version: version, summary: summary}
	if day > b.newest {
		b.newest = day
		b.evict(AddDays(StartOfDay(summary.Date), -b.retention).Format(DateLayout))
	}
	return true
}

// evict drops every entry for a day before cutoff. Callers hold mu.
func (b *Board) evict(cutoff string) {
	for key := range b.entries {
		if key.day < cutoff {
			delete(b.entries, key)
		}
	}
}

// Get returns the held summary for the calendar day of day.
func (b *Board) Get(subjectID string, day time.Time) (DailySummary, int64, bool) {
	key := boardKey{subjectID: subjectID, day: day.Format(DateLayout)}

	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.entries[key]
	return entry.summary, entry.version, ok
}

// Len reports how many (subject, day) entries are held.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
