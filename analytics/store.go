/*
store.go - Interfaces between the engine and the record stores

PURPOSE:
  The engine consumes already-fetched collections. These interfaces describe
  the record stores that fetch them, so the Service can load a superset
  window for one snapshot and the API can persist CRUD mutations.

KEY INTERFACES:
  RecordSource: Read side, range queries by each kind's relevant date
  RecordStore:  RecordSource plus upserts, deletes and reset

RANGE CONTRACT:
  ListAppointments and ListPayments return records whose relevant date is in
  [from, to], inclusive. Records whose stored date cannot be parsed are
  returned with a zero date so the engine can exclude and count them.

IMPLEMENTATIONS:
  - analytics/store/memory.go: In-memory, for tests and demo scenarios
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - service.go: Uses RecordSource
*/
package analytics

import (
	"context"
	"time"
)

// RecordSource supplies raw records to the Service.
type RecordSource interface {
	// ListAppointments returns appointments with ScheduledFrom in [from, to],
	// plus any whose ScheduledFrom is missing.
	ListAppointments(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// ListPayments returns payments with PaymentDate in [from, to], plus any
	// whose PaymentDate is missing.
	ListPayments(ctx context.Context, from, to time.Time) ([]Payment, error)

	// ListPatients returns the whole roster.
	ListPatients(ctx context.Context) ([]Patient, error)
}

// RecordStore extends RecordSource with the CRUD side of the record stores.
type RecordStore interface {
	RecordSource

	SaveAppointment(ctx context.Context, a Appointment) error
	SavePayment(ctx context.Context, p Payment) error
	SavePatient(ctx context.Context, p Patient) error

	// Delete* return ErrRecordNotFound when no record has the id.
	DeleteAppointment(ctx context.Context, id string) error
	DeletePayment(ctx context.Context, id string) error
	DeletePatient(ctx context.Context, id string) error

	// Reset removes every record.
	Reset(ctx context.Context) error
}

// =============================================================================
// INGESTION VALIDATION
// =============================================================================
// The engine tolerates malformed records; stores reject them on the way in.

func ValidateAppointment(a Appointment) error {
	switch {
	case a.ID == "":
		return &ValidationError{Kind: "appointment", Field: "id", Message: "is required"}
	case a.PatientID == "":
		return &ValidationError{Kind: "appointment", Field: "patient_id", Message: "is required"}
	case !a.Status.Valid():
		return &ValidationError{Kind: "appointment", Field: "status", Message: "must be pending, confirmed, completed or cancelled"}
	case a.ScheduledFrom.IsZero() || a.ScheduledTo.IsZero():
		return &ValidationError{Kind: "appointment", Field: "scheduled_from", Message: "scheduled_from and scheduled_to are required"}
	case !a.ScheduledTo.After(a.ScheduledFrom):
		return &ValidationError{Kind: "appointment", Field: "scheduled_to", Message: "must be after scheduled_from"}
	case a.Cost != nil && a.Cost.IsNegative():
		return &ValidationError{Kind: "appointment", Field: "cost", Message: "must not be negative"}
	}
	return nil
}

func ValidatePayment(p Payment) error {
	switch {
	case p.ID == "":
		return &ValidationError{Kind: "payment", Field: "id", Message: "is required"}
	case p.PatientID == "":
		return &ValidationError{Kind: "payment", Field: "patient_id", Message: "is required"}
	case !p.Status.Valid():
		return &ValidationError{Kind: "payment", Field: "status", Message: "must be pending, paid or overdue"}
	case p.Amount.IsNegative():
		return &ValidationError{Kind: "payment", Field: "amount", Message: "must not be negative"}
	case p.PaymentDate.IsZero():
		return &ValidationError{Kind: "payment", Field: "payment_date", Message: "is required"}
	}
	return nil
}

func ValidatePatient(p Patient) error {
	switch {
	case p.ID == "":
		return &ValidationError{Kind: "patient", Field: "id", Message: "is required"}
	case !p.Status.Valid():
		return &ValidationError{Kind: "patient", Field: "status", Message: "must be active or inactive"}
	case p.CreatedAt.IsZero():
		return &ValidationError{Kind: "patient", Field: "created_at", Message: "is required"}
	}
	return nil
}
