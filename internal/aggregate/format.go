package aggregate

import (
	"fmt"
	"time"
)

// FormatDuration renders a millisecond duration as "{H}h {M}m", truncating to whole minutes.
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "0h 0m"
	}
	minutes := ms / int64(time.Minute/time.Millisecond)
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// TimeAgo renders how long before now ts happened. Anything older than a day falls back to the
// date of ts in its own location. Future timestamps read as "just now".
func TimeAgo(ts, now time.Time) string {
	diff := now.Sub(ts)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	default:
		return ts.Format("1/2/2006")
	}
}
