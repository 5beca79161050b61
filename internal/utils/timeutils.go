package utils

import (
	"fmt"
	"time"
)

// ParseRFC3339 returns a time from the provided string or an error.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// RunWindow truncates a timestamp to the signal-freshness window, identifying
// the pipeline run it belongs to.
func RunWindow(t time.Time, window time.Duration) time.Time {
	if window <= 0 {
		window = time.Hour
	}
	return t.UTC().Truncate(window)
}

// DayAfter returns midnight UTC n days after the given time.
func DayAfter(t time.Time, n int) time.Time {
	d := t.UTC().AddDate(0, 0, n)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
