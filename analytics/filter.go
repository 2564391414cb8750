package analytics

import "time"

// Partition splits one collection between the current and previous periods.
// Skipped counts records with a zero (missing or unparseable) date; they are
// absent from both sets rather than counted as zero.
type Partition[T any] struct {
	Current  []T
	Previous []T
	Skipped  int
}

// FilterByPeriod partitions records by the date dateOf extracts, using an
// inclusive From <= t <= To test for each window. The input slice is never
// modified and the relative order of records is preserved.
func FilterByPeriod[T any](records []T, p ResolvedPeriod, dateOf func(T) time.Time) Partition[T] {
	current, previous := p.Current(), p.Previous()

	part := Partition[T]{
		Current:  make([]T, 0),
		Previous: make([]T, 0),
	}
	for _, rec := range records {
		t := dateOf(rec)
		if t.IsZero() {
			part.Skipped++
			continue
		}
		if current.Contains(t) {
			part.Current = append(part.Current, rec)
		}
		if previous.Contains(t) {
			part.Previous = append(part.Previous, rec)
		}
	}
	return part
}

// Date extractors for each entity kind.

func AppointmentDate(a Appointment) time.Time { return a.ScheduledFrom }
func PaymentDate(p Payment) time.Time         { return p.PaymentDate }
func PatientDate(p Patient) time.Time         { return p.CreatedAt }
