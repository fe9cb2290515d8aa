package views

import (
	"fmt"
	"time"
)

// FormatTimeAgo renders how long before now the epoch-millisecond timestamp
// was. Thresholds are strict: under a minute is "Just now", then whole
// minutes, hours and days, truncated.
func FormatTimeAgo(now time.Time, timestampMS int64) string {
	seconds := (now.UnixMilli() - timestampMS) / 1000
	if seconds < 60 {
		return "Just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d %s ago", hours, plural(hours, "hour"))
	}
	days := hours / 24
	return fmt.Sprintf("%d %s ago", days, plural(days, "day"))
}

// TimeAgo is FormatTimeAgo relative to the current time.
func TimeAgo(timestampMS int64) string {
	return FormatTimeAgo(time.Now(), timestampMS)
}

func plural(n int64, unit string) string {
	if n > 1 {
		return unit + "s"
	}
	return unit
}
