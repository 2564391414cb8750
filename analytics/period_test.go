package analytics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/practice-analytics/analytics"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func endOfDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 999999999, time.UTC)
}

func resolve(t *testing.T, name analytics.RangeName, ref time.Time) analytics.ResolvedPeriod {
	t.Helper()
	p, err := analytics.ResolvePeriod(analytics.Named(name), ref, time.UTC)
	require.NoError(t, err)
	return p
}

// =============================================================================
// NAMED RANGES
// =============================================================================

func TestResolvePeriod_Week_MondayAligned(t *testing.T) {
	// 2024-03-15 is a Friday
	p := resolve(t, analytics.RangeWeek, at(2024, time.March, 15, 14))

	assert.Equal(t, analytics.RangeWeek, p.Range)
	assert.Equal(t, date(2024, time.March, 11), p.From)
	assert.Equal(t, endOfDay(2024, time.March, 17), p.To)
	assert.Equal(t, date(2024, time.March, 4), p.PreviousFrom)
	assert.Equal(t, endOfDay(2024, time.March, 10), p.PreviousTo)
	assert.Equal(t, analytics.BucketDay, p.BucketUnit)
}

func TestResolvePeriod_Week_SundayBelongsToPrecedingMonday(t *testing.T) {
	p := resolve(t, analytics.RangeWeek, date(2024, time.March, 17))
	assert.Equal(t, date(2024, time.March, 11), p.From)
}

func TestResolvePeriod_Month(t *testing.T) {
	p := resolve(t, analytics.RangeMonth, date(2024, time.March, 15))

	assert.Equal(t, date(2024, time.March, 1), p.From)
	assert.Equal(t, endOfDay(2024, time.March, 31), p.To)
	assert.Equal(t, analytics.BucketDay, p.BucketUnit)
}

func TestResolvePeriod_Month_PreviousIsLeapFebruary(t *testing.T) {
	// GIVEN: March 2024, whose preceding month has 29 days
	// THEN: previous period is all of February, not a 31-day window
	p := resolve(t, analytics.RangeMonth, date(2024, time.March, 31))

	assert.Equal(t, date(2024, time.February, 1), p.PreviousFrom)
	assert.Equal(t, endOfDay(2024, time.February, 29), p.PreviousTo)
}

func TestResolvePeriod_Month_PreviousIsCommonFebruary(t *testing.T) {
	p := resolve(t, analytics.RangeMonth, date(2023, time.March, 10))

	assert.Equal(t, date(2023, time.February, 1), p.PreviousFrom)
	assert.Equal(t, endOfDay(2023, time.February, 28), p.PreviousTo)
}

func TestResolvePeriod_Month_CommonFebruaryHas28Buckets(t *testing.T) {
	p := resolve(t, analytics.RangeMonth, date(2023, time.February, 10))

	assert.Equal(t, endOfDay(2023, time.February, 28), p.To)
	buckets := p.Buckets()
	require.Len(t, buckets, 28)
	assert.Equal(t, "2023-02-28", buckets[27].Label)
}

func TestResolvePeriod_Month_JanuaryRollsBackIntoPreviousYear(t *testing.T) {
	p := resolve(t, analytics.RangeMonth, date(2024, time.January, 20))

	assert.Equal(t, date(2023, time.December, 1), p.PreviousFrom)
	assert.Equal(t, endOfDay(2023, time.December, 31), p.PreviousTo)
}

func TestResolvePeriod_Quarter(t *testing.T) {
	p := resolve(t, analytics.RangeQuarter, date(2024, time.February, 10))

	assert.Equal(t, date(2024, time.January, 1), p.From)
	assert.Equal(t, endOfDay(2024, time.March, 31), p.To)
	assert.Equal(t, date(2023, time.October, 1), p.PreviousFrom)
	assert.Equal(t, endOfDay(2023, time.December, 31), p.PreviousTo)
	assert.Equal(t, analytics.BucketWeek, p.BucketUnit)
}

func TestResolvePeriod_Year(t *testing.T) {
	p := resolve(t, analytics.RangeYear, date(2024, time.July, 4))

	assert.Equal(t, date(2024, time.January, 1), p.From)
	assert.Equal(t, endOfDay(2024, time.December, 31), p.To)
	assert.Equal(t, date(2023, time.January, 1), p.PreviousFrom)
	assert.Equal(t, endOfDay(2023, time.December, 31), p.PreviousTo)
	assert.Equal(t, analytics.BucketMonth, p.BucketUnit)
}

func TestResolvePeriod_PreviousAbutsCurrent(t *testing.T) {
	ref := at(2024, time.August, 30, 9)
	for _, name := range analytics.NamedRanges {
		t.Run(string(name), func(t *testing.T) {
			p := resolve(t, name, ref)
			assert.Equal(t, p.From, p.PreviousTo.Add(time.Nanosecond))
			assert.True(t, p.PreviousFrom.Before(p.PreviousTo))
			assert.True(t, p.Current().Contains(ref))
			assert.False(t, p.Previous().Contains(ref))
		})
	}
}

func TestResolvePeriod_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	// 03:00 UTC on April 1 is still March 31 at UTC-5
	p, err := analytics.ResolvePeriod(analytics.Named(analytics.RangeMonth), at(2024, time.April, 1, 3), loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, loc), p.From)
	assert.Equal(t, loc, p.Location())
}

func TestResolvePeriod_UnknownName(t *testing.T) {
	_, err := analytics.ResolvePeriod(analytics.Named("fortnight"), date(2024, time.March, 1), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
	assert.True(t, analytics.IsClientError(err))
}

func TestParseRangeName(t *testing.T) {
	name, err := analytics.ParseRangeName(" Quarter ")
	require.NoError(t, err)
	assert.Equal(t, analytics.RangeQuarter, name)

	_, err = analytics.ParseRangeName("decade")
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
}

// =============================================================================
// EXPLICIT RANGES
// =============================================================================

func TestResolvePeriod_Explicit(t *testing.T) {
	from, to := date(2024, time.January, 1), date(2024, time.January, 10)

	p, err := analytics.ResolvePeriod(analytics.Between(from, to), time.Time{}, nil)
	require.NoError(t, err)

	assert.Equal(t, analytics.RangeCustom, p.Range)
	assert.Equal(t, from, p.From)
	assert.Equal(t, to, p.To)
	assert.Equal(t, from.Add(-time.Nanosecond), p.PreviousTo)
	assert.Equal(t, p.To.Sub(p.From), p.PreviousTo.Sub(p.PreviousFrom))
}

func TestResolvePeriod_Explicit_EndBeforeStart(t *testing.T) {
	// GIVEN: from 2024-01-10, to 2024-01-05
	_, err := analytics.ResolvePeriod(
		analytics.Between(date(2024, time.January, 10), date(2024, time.January, 5)),
		time.Time{}, nil,
	)

	var rangeErr *analytics.InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "end before start", rangeErr.Reason)
}

func TestResolvePeriod_Explicit_SingleInstant(t *testing.T) {
	instant := at(2024, time.May, 5, 12)
	p, err := analytics.ResolvePeriod(analytics.Between(instant, instant), time.Time{}, nil)
	require.NoError(t, err)

	assert.Equal(t, analytics.BucketDay, p.BucketUnit)
	assert.Len(t, p.Buckets(), 1)
}

func TestResolvePeriod_Explicit_MissingBound(t *testing.T) {
	_, err := analytics.ResolvePeriod(analytics.Between(time.Time{}, date(2024, time.January, 5)), time.Time{}, nil)
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
}

func TestResolvePeriod_Explicit_BucketThresholds(t *testing.T) {
	tests := []struct {
		name string
		to   time.Time
		want analytics.BucketUnit
	}{
		{"31 days", endOfDay(2024, time.January, 31), analytics.BucketDay},
		{"32 days", endOfDay(2024, time.February, 1), analytics.BucketWeek},
		{"120 days", endOfDay(2024, time.April, 29), analytics.BucketWeek},
		{"121 days", endOfDay(2024, time.April, 30), analytics.BucketMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := analytics.ResolvePeriod(analytics.Between(date(2024, time.January, 1), tt.to), time.Time{}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.BucketUnit)
		})
	}
}

// =============================================================================
// BUCKETS
// =============================================================================

func TestBuckets_CountPerRange(t *testing.T) {
	ref := date(2024, time.March, 15)
	tests := []struct {
		name  analytics.RangeName
		count int
		first string
		last  string
	}{
		{analytics.RangeWeek, 7, "2024-03-11", "2024-03-17"},
		{analytics.RangeMonth, 31, "2024-03-01", "2024-03-31"},
		{analytics.RangeQuarter, 13, "2024-01-01", "2024-03-25"},
		{analytics.RangeYear, 12, "2024-01", "2024-12"},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			buckets := resolve(t, tt.name, ref).Buckets()
			require.Len(t, buckets, tt.count)
			assert.Equal(t, tt.first, buckets[0].Label)
			assert.Equal(t, tt.last, buckets[len(buckets)-1].Label)
		})
	}
}

func TestBuckets_PartitionThePeriod(t *testing.T) {
	p := resolve(t, analytics.RangeQuarter, date(2024, time.May, 1))
	buckets := p.Buckets()

	require.NotEmpty(t, buckets)
	assert.Equal(t, p.From, buckets[0].Start)
	assert.Equal(t, p.To, buckets[len(buckets)-1].End)
	for i := 1; i < len(buckets); i++ {
		assert.Equal(t, buckets[i].Start, buckets[i-1].End.Add(time.Nanosecond))
	}
}

func TestBuckets_WeekBucketsClippedToPeriod(t *testing.T) {
	// Q3 2024 runs from Monday July 1 to Monday September 30.
	p := resolve(t, analytics.RangeQuarter, date(2024, time.August, 1))
	buckets := p.Buckets()

	last := buckets[len(buckets)-1]
	assert.Equal(t, "2024-09-30", last.Label)
	assert.Equal(t, date(2024, time.September, 30), last.Start)
	assert.Equal(t, p.To, last.End)
}
