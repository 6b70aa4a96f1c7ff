package exporter

import (
	"strconv"
	"time"
)

// formatFloat renders f without trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// wallClock re-expresses t in UTC with the same wall clock reading. Excel
// cells carry no zone, so the sheet shows what the source file showed.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
