package analytics

import (
	"strings"
	"time"
)

// =============================================================================
// CALENDAR HELPERS - All results are in t's location
// =============================================================================

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Monday 00:00 of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	daysBack := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-daysBack, 0, 0, 0, 0, t.Location())
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfQuarter returns the first day of the Jan/Apr/Jul/Oct block containing t.
func StartOfQuarter(t time.Time) time.Time {
	quarter := (int(t.Month()) - 1) / 3
	return time.Date(t.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, t.Location())
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// lastInstantBefore returns the final representable instant before next.
// Periods are inclusive on both ends, so a period ending here abuts one
// starting at next with neither gap nor overlap.
func lastInstantBefore(next time.Time) time.Time {
	return next.Add(-time.Nanosecond)
}

// CalendarDays counts the calendar days touched by [from, to], both inclusive.
// Day arithmetic goes through UTC dates so DST transitions never skew the count.
func CalendarDays(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) + 1
}

// =============================================================================
// TIMESTAMP PARSING
// =============================================================================

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a stored or transmitted timestamp leniently.
// Layouts without a zone are interpreted in loc (UTC when nil).
// It returns the zero time when s is empty or matches no layout, which the
// engine treats as a missing date.
func ParseTimestamp(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}
