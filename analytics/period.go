package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// RANGE - What the caller asks for
// =============================================================================

// RangeName identifies a calendar-aligned period relative to a reference date.
type RangeName string

const (
	RangeWeek    RangeName = "week"    // Monday 00:00 - Sunday end of day
	RangeMonth   RangeName = "month"   // Calendar month
	RangeQuarter RangeName = "quarter" // Jan/Apr/Jul/Oct blocks
	RangeYear    RangeName = "year"    // Jan 1 - Dec 31

	// RangeCustom labels a ResolvedPeriod produced from explicit bounds.
	RangeCustom RangeName = "custom"
)

// NamedRanges lists the supported named ranges, shortest first.
var NamedRanges = []RangeName{RangeWeek, RangeMonth, RangeQuarter, RangeYear}

// ParseRangeName accepts a named range case-insensitively.
func ParseRangeName(s string) (RangeName, error) {
	name := RangeName(strings.ToLower(strings.TrimSpace(s)))
	for _, n := range NamedRanges {
		if name == n {
			return n, nil
		}
	}
	return "", &InvalidRangeError{Name: s, Reason: "unrecognized named range"}
}

// Range is either a named range or explicit bounds, never both.
type Range struct {
	Name RangeName
	From time.Time
	To   time.Time
}

// Named builds a named range.
func Named(name RangeName) Range { return Range{Name: name} }

// Between builds an explicit range. Both bounds are inclusive.
func Between(from, to time.Time) Range { return Range{From: from, To: to} }

func (r Range) IsExplicit() bool { return r.Name == "" }

// =============================================================================
// PERIOD - An inclusive time window
// =============================================================================

// Period is a window [Start, End], inclusive on both ends.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t is within [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format(time.RFC3339) + ", " + p.End.Format(time.RFC3339) + "]"
}

// =============================================================================
// RESOLVED PERIOD - Concrete boundaries plus the comparison window
// =============================================================================

// BucketUnit is the granularity of time-series buckets.
type BucketUnit string

const (
	BucketDay   BucketUnit = "day"
	BucketWeek  BucketUnit = "week"
	BucketMonth BucketUnit = "month"
)

const (
	maxDayBucketSpan  = 31  // days; a month of day buckets at most
	maxWeekBucketSpan = 120 // days; a quarter of week buckets at most
)

// ResolvedPeriod holds the concrete boundaries a snapshot was computed for.
type ResolvedPeriod struct {
	Range        RangeName
	From         time.Time
	To           time.Time
	PreviousFrom time.Time
	PreviousTo   time.Time
	BucketUnit   BucketUnit
}

func (p ResolvedPeriod) Current() Period  { return Period{Start: p.From, End: p.To} }
func (p ResolvedPeriod) Previous() Period { return Period{Start: p.PreviousFrom, End: p.PreviousTo} }

// Location returns the location the period boundaries are expressed in.
func (p ResolvedPeriod) Location() *time.Location { return p.From.Location() }

// ResolvePeriod computes concrete boundaries for r relative to ref.
// Named ranges are calendar-aligned in loc (UTC when nil); the previous
// period is the preceding calendar period, so "previous month" of March is
// all of February whatever its length. Explicit ranges are used verbatim and
// compared against the window of identical duration ending just before From.
func ResolvePeriod(r Range, ref time.Time, loc *time.Location) (ResolvedPeriod, error) {
	if loc == nil {
		loc = time.UTC
	}

	if r.IsExplicit() {
		return resolveExplicit(r.From.In(loc), r.To.In(loc))
	}

	ref = ref.In(loc)

	var start time.Time
	var step func(t time.Time, n int) time.Time

	switch r.Name {
	case RangeWeek:
		start = StartOfWeek(ref)
		step = func(t time.Time, n int) time.Time {
			return time.Date(t.Year(), t.Month(), t.Day()+7*n, 0, 0, 0, 0, t.Location())
		}
	case RangeMonth:
		start = StartOfMonth(ref)
		step = func(t time.Time, n int) time.Time {
			return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
		}
	case RangeQuarter:
		start = StartOfQuarter(ref)
		step = func(t time.Time, n int) time.Time {
			return time.Date(t.Year(), t.Month()+time.Month(3*n), 1, 0, 0, 0, 0, t.Location())
		}
	case RangeYear:
		start = StartOfYear(ref)
		step = func(t time.Time, n int) time.Time {
			return time.Date(t.Year()+n, time.January, 1, 0, 0, 0, 0, t.Location())
		}
	default:
		return ResolvedPeriod{}, &InvalidRangeError{Name: string(r.Name), Reason: "unrecognized named range"}
	}

	p := ResolvedPeriod{
		Range:        r.Name,
		From:         start,
		To:           lastInstantBefore(step(start, 1)),
		PreviousFrom: step(start, -1),
		PreviousTo:   lastInstantBefore(start),
	}
	p.BucketUnit = bucketUnitFor(p.From, p.To)
	return p, nil
}

func resolveExplicit(from, to time.Time) (ResolvedPeriod, error) {
	if from.IsZero() || to.IsZero() {
		return ResolvedPeriod{}, &InvalidRangeError{From: from, To: to, Reason: "both bounds are required"}
	}
	if to.Before(from) {
		return ResolvedPeriod{}, &InvalidRangeError{From: from, To: to, Reason: "end before start"}
	}

	span := to.Sub(from)
	previousTo := from.Add(-time.Nanosecond)
	return ResolvedPeriod{
		Range:        RangeCustom,
		From:         from,
		To:           to,
		PreviousFrom: previousTo.Add(-span),
		PreviousTo:   previousTo,
		BucketUnit:   bucketUnitFor(from, to),
	}, nil
}

func bucketUnitFor(from, to time.Time) BucketUnit {
	days := CalendarDays(from, to)
	switch {
	case days <= maxDayBucketSpan:
		return BucketDay
	case days <= maxWeekBucketSpan:
		return BucketWeek
	default:
		return BucketMonth
	}
}

// =============================================================================
// BUCKETS - Sub-intervals for time series
// =============================================================================

// Bucket is one time-series slot. Buckets partition the current period:
// the first and last are clipped to the period bounds.
type Bucket struct {
	Period
	Label string
}

// Buckets partitions the current period by BucketUnit, in chronological order.
func (p ResolvedPeriod) Buckets() []Bucket {
	if p.To.Before(p.From) {
		return nil
	}

	var cursor time.Time
	var next func(time.Time) time.Time
	layout := "2006-01-02"

	switch p.BucketUnit {
	case BucketWeek:
		cursor = StartOfWeek(p.From)
		next = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day()+7, 0, 0, 0, 0, t.Location()) }
	case BucketMonth:
		cursor = StartOfMonth(p.From)
		next = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location()) }
		layout = "2006-01"
	default:
		cursor = StartOfDay(p.From)
		next = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location()) }
	}

	var buckets []Bucket
	for !cursor.After(p.To) {
		following := next(cursor)
		start, end := cursor, lastInstantBefore(following)
		if start.Before(p.From) {
			start = p.From
		}
		if end.After(p.To) {
			end = p.To
		}
		buckets = append(buckets, Bucket{
			Period: Period{Start: start, End: end},
			Label:  start.Format(layout),
		})
		cursor = following
	}
	return buckets
}

// bucketIndex returns the index of the bucket containing t, or -1.
func bucketIndex(buckets []Bucket, t time.Time) int {
	i := sort.Search(len(buckets), func(i int) bool {
		return !buckets[i].End.Before(t)
	})
	if i < len(buckets) && buckets[i].Contains(t) {
		return i
	}
	return -1
}

func (p ResolvedPeriod) String() string {
	return fmt.Sprintf("%s %s (previous %s, buckets by %s)",
		p.Range, p.Current(), p.Previous(), p.BucketUnit)
}
