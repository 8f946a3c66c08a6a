package sqlite

import (
	"fmt"
	"time"
)

// TimeLayout is a fixed-width UTC layout so TEXT columns sort chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a TEXT timestamp written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}

// DayKey returns the UTC calendar day of t, e.g. "2026-03-01".
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
