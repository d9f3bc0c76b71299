package aggregate

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/densign01/baby-tracker/internal/domain"
)

func TestDayBoundsAreInclusive(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	ref := time.Date(2024, 6, 15, 13, 0, 0, 0, loc)

	require.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, loc), StartOfDay(ref))
	require.Equal(t, time.Date(2024, 6, 15, 23, 59, 59, 999000000, loc), EndOfDay(ref))

	require.True(t, InDay(StartOfDay(ref), ref))
	require.True(t, InDay(EndOfDay(ref), ref))
	require.False(t, InDay(StartOfDay(ref).Add(-time.Millisecond), ref))
	require.False(t, InDay(EndOfDay(ref).Add(time.Millisecond), ref))
}

func TestMidnightBelongsToStartingDay(t *testing.T) {
	loc := time.UTC
	midnight := time.Date(2024, 1, 2, 0, 0, 0, 0, loc)
	records := []domain.Record{diaperRecord("m", midnight, domain.DiaperWet)}

	require.Len(t, BucketByDay(records, time.Date(2024, 1, 2, 18, 0, 0, 0, loc)), 1)
	require.Empty(t, BucketByDay(records, time.Date(2024, 1, 1, 18, 0, 0, 0, loc)))
}

func TestBucketByDayUsesReferenceLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:30 UTC on Jan 2 is still Jan 1 in New York.
	late := diaperRecord("late", time.Date(2024, 1, 2, 3, 30, 0, 0, time.UTC), domain.DiaperWet)

	require.Len(t, BucketByDay([]domain.Record{late}, time.Date(2024, 1, 1, 12, 0, 0, 0, ny)), 1)
	require.Empty(t, BucketByDay([]domain.Record{late}, time.Date(2024, 1, 2, 12, 0, 0, 0, ny)))
}

func TestBucketByDayPreservesOrder(t *testing.T) {
	loc := time.UTC
	records := []domain.Record{
		diaperRecord("c", at(loc, 2024, 1, 1, 20, 0), domain.DiaperWet),
		diaperRecord("x", at(loc, 2024, 1, 3, 20, 0), domain.DiaperWet),
		diaperRecord("a", at(loc, 2024, 1, 1, 5, 0), domain.DiaperWet),
		diaperRecord("b", at(loc, 2024, 1, 1, 12, 0), domain.DiaperWet),
	}

	bucket := BucketByDay(records, at(loc, 2024, 1, 1, 0, 0))
	require.Equal(t, []string{"c", "a", "b"}, ids(bucket))
	require.Len(t, records, 4)
}

func TestEndOfDayOnDSTTransitions(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	spring := time.Date(2024, 3, 10, 12, 0, 0, 0, ny)
	require.Equal(t, 23*time.Hour-time.Millisecond, EndOfDay(spring).Sub(StartOfDay(spring)))

	fall := time.Date(2024, 11, 3, 12, 0, 0, 0, ny)
	require.Equal(t, 25*time.Hour-time.Millisecond, EndOfDay(fall).Sub(StartOfDay(fall)))
}

func TestSubMillisecondInstantBeforeMidnightStaysInDay(t *testing.T) {
	loc := time.UTC
	ts := time.Date(2024, 1, 1, 23, 59, 59, 999_600_000, loc)
	require.True(t, InDay(ts, at(loc, 2024, 1, 1, 0, 0)))
	require.False(t, InDay(ts, at(loc, 2024, 1, 2, 0, 0)))
}

func TestParseDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	day, err := ParseDay("2024-03-10", ny)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, ny), day)

	_, err = ParseDay("03/10/2024", ny)
	require.Error(t, err)
}
