package analytics

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SERIES BUILDERS - Current-period records -> []SeriesPoint
// =============================================================================
// Builders never drop a bucket or category: empty slots are emitted with a
// zero value so charts keep a stable shape across periods.

// DefaultTopPatientsLimit is used when the caller passes a non-positive limit.
const DefaultTopPatientsLimit = 5

// SessionsOverTime counts appointments per time bucket of the period.
func SessionsOverTime(appts []Appointment, p ResolvedPeriod) []SeriesPoint {
	buckets := p.Buckets()
	values := zeroValues(len(buckets))
	for _, a := range appts {
		if i := bucketIndex(buckets, a.ScheduledFrom); i >= 0 {
			values[i] = values[i].Add(decimal.NewFromInt(1))
		}
	}
	return bucketSeries(buckets, values)
}

// IncomeOverTime sums paid payments per time bucket of the period.
func IncomeOverTime(payments []Payment, p ResolvedPeriod) []SeriesPoint {
	buckets := p.Buckets()
	values := zeroValues(len(buckets))
	for _, pay := range payments {
		if pay.Status != PaymentPaid {
			continue
		}
		if i := bucketIndex(buckets, pay.PaymentDate); i >= 0 {
			values[i] = values[i].Add(pay.Amount)
		}
	}
	return bucketSeries(buckets, values)
}

// SessionStatusBreakdown counts appointments per status, every status present.
func SessionStatusBreakdown(appts []Appointment) []SeriesPoint {
	counts := make(map[AppointmentStatus]int, len(AppointmentStatuses))
	for _, a := range appts {
		counts[a.Status]++
	}
	points := make([]SeriesPoint, len(AppointmentStatuses))
	for i, s := range AppointmentStatuses {
		points[i] = SeriesPoint{Label: string(s), Value: countOf(counts[s])}
	}
	return points
}

// PaymentStatusBreakdown counts payments per status, every status present.
func PaymentStatusBreakdown(payments []Payment) []SeriesPoint {
	counts := make(map[PaymentStatus]int, len(PaymentStatuses))
	for _, p := range payments {
		counts[p.Status]++
	}
	points := make([]SeriesPoint, len(PaymentStatuses))
	for i, s := range PaymentStatuses {
		points[i] = SeriesPoint{Label: string(s), Value: countOf(counts[s])}
	}
	return points
}

// HourlyOccupancy counts appointments by starting hour (0-23) in loc.
func HourlyOccupancy(appts []Appointment, loc *time.Location) []SeriesPoint {
	if loc == nil {
		loc = time.UTC
	}
	var counts [24]int
	for _, a := range appts {
		if a.ScheduledFrom.IsZero() {
			continue
		}
		counts[a.ScheduledFrom.In(loc).Hour()]++
	}
	points := make([]SeriesPoint, len(counts))
	for h, n := range counts {
		points[h] = SeriesPoint{Label: strconv.Itoa(h), Value: countOf(n)}
	}
	return points
}

// WeeklyOccupancy counts appointments by starting weekday in loc.
// Points run Sunday through Saturday regardless of the Monday week start
// used for period resolution.
func WeeklyOccupancy(appts []Appointment, loc *time.Location) []SeriesPoint {
	if loc == nil {
		loc = time.UTC
	}
	var counts [7]int
	for _, a := range appts {
		if a.ScheduledFrom.IsZero() {
			continue
		}
		counts[a.ScheduledFrom.In(loc).Weekday()]++
	}
	points := make([]SeriesPoint, len(counts))
	for d, n := range counts {
		points[d] = SeriesPoint{Label: strings.ToLower(time.Weekday(d).String()), Value: countOf(n)}
	}
	return points
}

// TopPatients ranks patients by appointment count.
func TopPatients(appts []Appointment, limit int) []SeriesPoint {
	totals := make(map[string]decimal.Decimal)
	for _, a := range appts {
		if a.PatientID == "" {
			continue
		}
		totals[a.PatientID] = totals[a.PatientID].Add(decimal.NewFromInt(1))
	}
	return rankPatients(totals, limit)
}

// TopPatientsByIncome ranks patients by the amount they paid in the period.
func TopPatientsByIncome(payments []Payment, limit int) []SeriesPoint {
	totals := make(map[string]decimal.Decimal)
	for _, p := range payments {
		if p.PatientID == "" || p.Status != PaymentPaid {
			continue
		}
		totals[p.PatientID] = totals[p.PatientID].Add(p.Amount)
	}
	return rankPatients(totals, limit)
}

// rankPatients sorts by value descending with ties broken by patient id
// ascending, then truncates to limit.
func rankPatients(totals map[string]decimal.Decimal, limit int) []SeriesPoint {
	if limit <= 0 {
		limit = DefaultTopPatientsLimit
	}
	points := make([]SeriesPoint, 0, len(totals))
	for id, v := range totals {
		points = append(points, SeriesPoint{Label: id, Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		if c := points[i].Value.Cmp(points[j].Value); c != 0 {
			return c > 0
		}
		return points[i].Label < points[j].Label
	})
	if len(points) > limit {
		points = points[:limit]
	}
	return points
}

func zeroValues(n int) []decimal.Decimal {
	values := make([]decimal.Decimal, n)
	for i := range values {
		values[i] = decimal.Zero
	}
	return values
}

func bucketSeries(buckets []Bucket, values []decimal.Decimal) []SeriesPoint {
	points := make([]SeriesPoint, len(buckets))
	for i, b := range buckets {
		points[i] = SeriesPoint{Label: b.Label, Value: values[i]}
	}
	return points
}
