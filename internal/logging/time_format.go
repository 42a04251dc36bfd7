package logging

import "time"

const (
	consoleTimestampLayout = "2006-01-02 15:04:05"
	jsonTimestampLayout    = "2006-01-02T15:04:05.000Z07:00"
)

// formatTimestamp renders console timestamps in local time at second
// precision.
func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimestampLayout)
}

// formatJSONTimestamp renders UTC with milliseconds so model round-trips in
// the same second still order correctly.
func formatJSONTimestamp(ts time.Time) string {
	return ts.UTC().Format(jsonTimestampLayout)
}

// formatElapsed rounds a duration for display. Sub-second values keep
// millisecond precision, longer ones keep tenths of a second.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
