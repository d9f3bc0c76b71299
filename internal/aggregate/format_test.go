package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		-5000:    "0h 0m",
		0:        "0h 0m",
		59999:    "0h 0m",
		60000:    "0h 1m",
		2700000:  "0h 45m",
		3600000:  "1h 0m",
		5400000:  "1h 30m",
		45000000: "12h 30m",
	}
	for input, want := range cases {
		require.Equal(t, want, FormatDuration(input), "input %d", input)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	require.Equal(t, "just now", TimeAgo(now, now))
	require.Equal(t, "just now", TimeAgo(now.Add(-59*time.Second), now))
	require.Equal(t, "just now", TimeAgo(now.Add(2*time.Minute), now))
	require.Equal(t, "1m ago", TimeAgo(now.Add(-time.Minute), now))
	require.Equal(t, "59m ago", TimeAgo(now.Add(-59*time.Minute-30*time.Second), now))
	require.Equal(t, "1h ago", TimeAgo(now.Add(-time.Hour), now))
	require.Equal(t, "23h ago", TimeAgo(now.Add(-23*time.Hour-59*time.Minute), now))
	require.Equal(t, "5/19/2024", TimeAgo(now.Add(-24*time.Hour), now))
	require.Equal(t, "1/3/2024", TimeAgo(time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC), now))
}
