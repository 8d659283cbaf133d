// Package timeutil puts every timestamp the planner compares into one
// reference frame: UTC.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Normalize converts t to UTC. The zero time stays zero and normalizing an
// already normalized value returns it unchanged.
func Normalize(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}

// NormalizePtr normalizes an optional timestamp.
func NormalizePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := Normalize(*t)
	return &n
}

// NormalizeWindow normalizes both bounds of a window.
func NormalizeWindow(start, end time.Time) (time.Time, time.Time) {
	return Normalize(start), Normalize(end)
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse reads an ISO-8601 timestamp. A trailing Z and explicit offsets are
// honoured; values without an offset are taken as UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = Normalize(t)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WholeDays is the number of complete 24h periods between start and end.
func WholeDays(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / (24 * time.Hour))
}

// WholeHours is the number of complete hours between start and end.
func WholeHours(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Hour)
}
