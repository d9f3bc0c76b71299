package aggregate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBoardLastWriteWins(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	board := NewBoard()

	require.True(t, board.Publish("baby-1", DailySummary{Date: day, SleepCount: 1}, 5))
	require.False(t, board.Publish("baby-1", DailySummary{Date: day, SleepCount: 9}, 3))
	require.True(t, board.Publish("baby-1", DailySummary{Date: day, SleepCount: 2}, 5))

	summary, version, ok := board.Get("baby-1", day)
	require.True(t, ok)
	require.Equal(t, int64(5), version)
	require.Equal(t, 2, summary.SleepCount)

	_, _, ok = board.Get("baby-2", day)
	require.False(t, ok)
}

func TestBoardConcurrentPublishKeepsHighestVersion(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	board := NewBoard()

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(version int64) {
			defer wg.Done()
			board.Publish("baby-1", DailySummary{Date: day, FeedingCount: int(version)}, version)
		}(i)
	}
	wg.Wait()

	summary, version, ok := board.Get("baby-1", day)
	require.True(t, ok)
	require.Equal(t, int64(50), version)
	require.Equal(t, 50, summary.FeedingCount)
}

func TestBoardEvictsDaysBehindRetention(t *testing.T) {
	board := NewBoard(WithRetention(2))
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }

	require.True(t, board.Publish("baby-1", DailySummary{Date: day(1)}, 1))
	require.True(t, board.Publish("baby-2", DailySummary{Date: day(2)}, 2))
	require.True(t, board.Publish("baby-1", DailySummary{Date: day(3)}, 3))
	require.Equal(t, 3, board.Len())

	require.True(t, board.Publish("baby-1", DailySummary{Date: day(4)}, 4))
	require.Equal(t, 3, board.Len())
	_, _, ok := board.Get("baby-1", day(1))
	require.False(t, ok)
	_, _, ok = board.Get("baby-2", day(2))
	require.True(t, ok)

	require.True(t, board.Publish("baby-1", DailySummary{Date: day(10)}, 5))
	require.Equal(t, 1, board.Len())

	// late events for evicted days are accepted again
	require.True(t, board.Publish("baby-1", DailySummary{Date: day(1)}, 0))
}
