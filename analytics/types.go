/*
Package analytics provides the practice dashboard aggregation engine.

PURPOSE:
  Turns raw appointment, payment and patient records into the statistics
  and chart series shown on a clinician's practice dashboard. Every
  computation is bounded by a resolved calendar period and compared
  against the equivalent previous period.

KEY CONCEPTS IN THIS FILE (types.go):
  - Appointment, Payment, Patient: read-only input records
  - StatResult: a headline number with its previous value and delta
  - SeriesPoint: one ready-to-plot {label, value} pair
  - Metric / Chart: the keys of a Snapshot

DESIGN PRINCIPLES:
  1. Purity: nothing in this package performs I/O or keeps state
  2. Precision: money and stat values use decimal.Decimal
  3. Explicit absence: a zero time.Time is a missing date, a nil delta is "no baseline"

USAGE:
  snap, err := analytics.ComputeSnapshot(analytics.Input{
      Appointments: appts,
      Payments:     payments,
      Patients:     patients,
  }, analytics.Named(analytics.RangeMonth), time.Now())

SEE ALSO:
  - period.go: Period resolution and bucketing
  - filter.go: Partitioning records into current/previous periods
  - stats.go: Headline metric calculators
  - series.go: Chart series builders
  - snapshot.go: The aggregation facade
*/
package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT RECORDS - Owned by the record stores, read-only here
// =============================================================================

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// AppointmentStatuses lists every appointment status in display order.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentPending,
	AppointmentConfirmed,
	AppointmentCompleted,
	AppointmentCancelled,
}

func (s AppointmentStatus) Valid() bool {
	for _, v := range AppointmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// PaymentStatuses lists every payment status in display order.
var PaymentStatuses = []PaymentStatus{
	PaymentPending,
	PaymentPaid,
	PaymentOverdue,
}

func (s PaymentStatus) Valid() bool {
	for _, v := range PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PatientStatus string

const (
	PatientActive   PatientStatus = "active"
	PatientInactive PatientStatus = "inactive"
)

func (s PatientStatus) Valid() bool {
	return s == PatientActive || s == PatientInactive
}

// Appointment is a scheduled session with a patient.
// A zero ScheduledFrom means the record's date is missing or unparseable.
type Appointment struct {
	ID            string
	ScheduledFrom time.Time
	ScheduledTo   time.Time
	Status        AppointmentStatus
	PatientID     string
	Cost          *decimal.Decimal
}

// Payment is money owed or received for care.
type Payment struct {
	ID          string
	Amount      decimal.Decimal
	Status      PaymentStatus
	PaymentDate time.Time
	PatientID   string
}

// Patient is a roster entry.
type Patient struct {
	ID        string
	CreatedAt time.Time
	Status    PatientStatus
}

// Input bundles the three collections consumed by ComputeSnapshot.
// The engine never mutates them.
type Input struct {
	Appointments []Appointment
	Payments     []Payment
	Patients     []Patient
}

// =============================================================================
// RESULTS - Engine-owned value objects, recomputed per call
// =============================================================================

// StatResult is one headline metric.
// DeltaPercent is nil when PreviousValue is zero: "no baseline" is not "no change".
type StatResult struct {
	Value         decimal.Decimal
	PreviousValue *decimal.Decimal
	DeltaPercent  *int64
}

// SeriesPoint is one plottable value.
type SeriesPoint struct {
	Label string
	Value decimal.Decimal
}

// Metric names a StatResult inside a Snapshot.
type Metric string

const (
	MetricSessionCount      Metric = "session_count"
	MetricCompletionRate    Metric = "completion_rate"
	MetricCancellationCount Metric = "cancellation_count"
	MetricIncomeCollected   Metric = "income_collected"
	MetricIncomePending     Metric = "income_pending"
	MetricActivePatients    Metric = "active_patients"
	MetricNewPatients       Metric = "new_patients"
	MetricAttendanceRate    Metric = "attendance_rate"
	MetricCollectionRate    Metric = "collection_rate"
	MetricBilledValue       Metric = "billed_value"
)

// Metrics lists every metric a Snapshot carries, in display order.
var Metrics = []Metric{
	MetricSessionCount,
	MetricCompletionRate,
	MetricCancellationCount,
	MetricAttendanceRate,
	MetricIncomeCollected,
	MetricIncomePending,
	MetricCollectionRate,
	MetricBilledValue,
	MetricActivePatients,
	MetricNewPatients,
}

// Chart names a series inside a Snapshot.
type Chart string

const (
	ChartSessionsOverTime    Chart = "sessions_over_time"
	ChartIncomeOverTime      Chart = "income_over_time"
	ChartSessionStatus       Chart = "session_status"
	ChartPaymentStatus       Chart = "payment_status"
	ChartHourlyOccupancy     Chart = "hourly_occupancy"
	ChartWeeklyOccupancy     Chart = "weekly_occupancy"
	ChartTopPatients         Chart = "top_patients"
	ChartTopPatientsByIncome Chart = "top_patients_by_income"
)

// Charts lists every chart a Snapshot carries, in display order.
var Charts = []Chart{
	ChartSessionsOverTime,
	ChartIncomeOverTime,
	ChartSessionStatus,
	ChartPaymentStatus,
	ChartHourlyOccupancy,
	ChartWeeklyOccupancy,
	ChartTopPatients,
	ChartTopPatientsByIncome,
}

// RecordCounts tallies records per entity kind.
type RecordCounts struct {
	Appointments int
	Payments     int
	Patients     int
}

func (c RecordCounts) Total() int { return c.Appointments + c.Payments + c.Patients }
