/*
snapshot.go - The aggregation facade

PURPOSE:
  Orchestrates the engine: resolve the period once, partition every entity
  kind against the current and previous windows, run every calculator and
  builder, and assemble one Snapshot.

GUARANTEES:
  - Empty input yields a fully populated Snapshot: zero stats, zero-filled
    series. Only an unresolvable range is an error.
  - Input collections are read, never written. Builders that sort work on
    their own copies.
  - Calculators and builders share nothing, so a Snapshot is the same
    whatever order they run in.

SEE ALSO:
  - service.go: Loads records from a RecordSource and calls ComputeSnapshot
*/
package analytics

import "time"

// Snapshot is the complete result of one aggregation call.
type Snapshot struct {
	Period ResolvedPeriod
	Stats  map[Metric]StatResult
	Series map[Chart][]SeriesPoint

	// Skipped counts records excluded for a missing or unparseable date.
	Skipped RecordCounts
}

// Stat returns the named metric; the zero StatResult if absent.
func (s Snapshot) Stat(m Metric) StatResult { return s.Stats[m] }

// =============================================================================
// OPTIONS
// =============================================================================

type options struct {
	topPatients int
	location    *time.Location
}

// Option tunes ComputeSnapshot.
type Option func(*options)

// WithTopPatientsLimit caps the ranking series. Non-positive means default.
func WithTopPatientsLimit(n int) Option {
	return func(o *options) { o.topPatients = n }
}

// WithLocation sets the zone used for calendar boundaries and for
// hour/weekday bucketing. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

func newOptions(opts []Option) options {
	o := options{topPatients: DefaultTopPatientsLimit, location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// =============================================================================
// FACADE
// =============================================================================

// ComputeSnapshot aggregates in over range r relative to ref.
func ComputeSnapshot(in Input, r Range, ref time.Time, opts ...Option) (Snapshot, error) {
	o := newOptions(opts)

	period, err := ResolvePeriod(r, ref, o.location)
	if err != nil {
		return Snapshot{}, err
	}

	appts := FilterByPeriod(in.Appointments, period, AppointmentDate)
	payments := FilterByPeriod(in.Payments, period, PaymentDate)
	patients := FilterByPeriod(in.Patients, period, PatientDate)

	stats := map[Metric]StatResult{
		MetricSessionCount:      SessionCount(appts.Current, appts.Previous),
		MetricCompletionRate:    CompletionRate(appts.Current, appts.Previous),
		MetricCancellationCount: CancellationCount(appts.Current, appts.Previous),
		MetricAttendanceRate:    AttendanceRate(appts.Current, appts.Previous),
		MetricActivePatients:    ActivePatients(appts.Current, appts.Previous),
		MetricBilledValue:       BilledValue(appts.Current, appts.Previous),
		MetricIncomeCollected:   IncomeCollected(payments.Current, payments.Previous),
		MetricIncomePending:     IncomePending(payments.Current, payments.Previous),
		MetricCollectionRate:    CollectionRate(payments.Current, payments.Previous),
		MetricNewPatients:       NewPatients(patients.Current, patients.Previous),
	}

	series := map[Chart][]SeriesPoint{
		ChartSessionsOverTime:    SessionsOverTime(appts.Current, period),
		ChartIncomeOverTime:      IncomeOverTime(payments.Current, period),
		ChartSessionStatus:       SessionStatusBreakdown(appts.Current),
		ChartPaymentStatus:       PaymentStatusBreakdown(payments.Current),
		ChartHourlyOccupancy:     HourlyOccupancy(appts.Current, o.location),
		ChartWeeklyOccupancy:     WeeklyOccupancy(appts.Current, o.location),
		ChartTopPatients:         TopPatients(appts.Current, o.topPatients),
		ChartTopPatientsByIncome: TopPatientsByIncome(payments.Current, o.topPatients),
	}

	return Snapshot{
		Period: period,
		Stats:  stats,
		Series: series,
		Skipped: RecordCounts{
			Appointments: appts.Skipped,
			Payments:     payments.Skipped,
			Patients:     patients.Skipped,
		},
	}, nil
}
