package analytics

import "github.com/shopspring/decimal"

// =============================================================================
// STAT CALCULATORS - (current, previous) -> StatResult
// =============================================================================
// Every calculator is pure and reads only the partitions it is given.

var hundred = decimal.NewFromInt(100)

// SessionCount counts appointments of any status.
func SessionCount(current, previous []Appointment) StatResult {
	return newStat(countOf(len(current)), countOf(len(previous)))
}

// CompletionRate is completed / total as a whole percentage; 0 with no sessions.
func CompletionRate(current, previous []Appointment) StatResult {
	rate := func(appts []Appointment) decimal.Decimal {
		return percentOf(countStatus(appts, AppointmentCompleted), len(appts))
	}
	return newStat(rate(current), rate(previous))
}

// AttendanceRate is (completed + confirmed) / total as a whole percentage.
func AttendanceRate(current, previous []Appointment) StatResult {
	rate := func(appts []Appointment) decimal.Decimal {
		attended := countStatus(appts, AppointmentCompleted) + countStatus(appts, AppointmentConfirmed)
		return percentOf(attended, len(appts))
	}
	return newStat(rate(current), rate(previous))
}

// CancellationCount counts cancelled appointments.
func CancellationCount(current, previous []Appointment) StatResult {
	return newStat(
		countOf(countStatus(current, AppointmentCancelled)),
		countOf(countStatus(previous, AppointmentCancelled)),
	)
}

// ActivePatients counts distinct patients seen in the period's appointments.
func ActivePatients(current, previous []Appointment) StatResult {
	distinct := func(appts []Appointment) decimal.Decimal {
		seen := make(map[string]struct{}, len(appts))
		for _, a := range appts {
			if a.PatientID != "" {
				seen[a.PatientID] = struct{}{}
			}
		}
		return countOf(len(seen))
	}
	return newStat(distinct(current), distinct(previous))
}

// BilledValue sums the cost of completed appointments. Appointments without
// a cost contribute nothing.
func BilledValue(current, previous []Appointment) StatResult {
	billed := func(appts []Appointment) decimal.Decimal {
		total := decimal.Zero
		for _, a := range appts {
			if a.Status == AppointmentCompleted && a.Cost != nil {
				total = total.Add(*a.Cost)
			}
		}
		return total
	}
	return newStat(billed(current), billed(previous))
}

// IncomeCollected sums paid payments.
func IncomeCollected(current, previous []Payment) StatResult {
	return newStat(
		sumPayments(current, PaymentPaid),
		sumPayments(previous, PaymentPaid),
	)
}

// IncomePending sums payments still owed: pending and overdue.
func IncomePending(current, previous []Payment) StatResult {
	return newStat(
		sumPayments(current, PaymentPending, PaymentOverdue),
		sumPayments(previous, PaymentPending, PaymentOverdue),
	)
}

// CollectionRate is paid / (paid + pending + overdue) by amount, as a whole
// percentage; 0 when nothing was billed.
func CollectionRate(current, previous []Payment) StatResult {
	rate := func(payments []Payment) decimal.Decimal {
		return ratioPercent(
			sumPayments(payments, PaymentPaid),
			sumPayments(payments, PaymentStatuses...),
		)
	}
	return newStat(rate(current), rate(previous))
}

// NewPatients counts patients created in the period.
func NewPatients(current, previous []Patient) StatResult {
	return newStat(countOf(len(current)), countOf(len(previous)))
}

// =============================================================================
// DELTA & RATIO MATH
// =============================================================================

// DeltaPercent returns ((current - previous) / previous) * 100 rounded to the
// nearest integer (half away from zero), or nil when previous is zero.
func DeltaPercent(current, previous decimal.Decimal) *int64 {
	if previous.IsZero() {
		return nil
	}
	delta := current.Sub(previous).Div(previous).Mul(hundred).Round(0).IntPart()
	return &delta
}

func newStat(current, previous decimal.Decimal) StatResult {
	return StatResult{
		Value:         current,
		PreviousValue: &previous,
		DeltaPercent:  DeltaPercent(current, previous),
	}
}

// percentOf returns part/total*100 rounded to 0 places; 0 when total is 0.
func percentOf(part, total int) decimal.Decimal {
	return ratioPercent(countOf(part), countOf(total))
}

func ratioPercent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(total).Round(0)
}

func countOf(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

func countStatus(appts []Appointment, status AppointmentStatus) int {
	n := 0
	for _, a := range appts {
		if a.Status == status {
			n++
		}
	}
	return n
}

func sumPayments(payments []Payment, statuses ...PaymentStatus) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		for _, s := range statuses {
			if p.Status == s {
				total = total.Add(p.Amount)
				break
			}
		}
	}
	return total
}
