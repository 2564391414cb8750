/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's value objects from the external API contract: decimals become
  JSON numbers, metric and chart names become snake_case keys.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Analytics:
    SnapshotDTO, PeriodDTO, StatDTO, SeriesPointDTO, OverviewDTO

  Records:
    AppointmentDTO, CreateAppointmentRequest
    PaymentDTO, CreatePaymentRequest
    PatientDTO, CreatePatientRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by the record stores, not in DTOs. DTOs are pure data
  carriers; the only parsing here is of timestamps and amounts.

SEE ALSO:
  - handlers.go: Uses these types
  - analytics/types.go: The engine's value objects
*/
package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/practice-analytics/analytics"
)

// =============================================================================
// ANALYTICS
// =============================================================================

// SnapshotDTO is one aggregation result.
type SnapshotDTO struct {
	Range   string                      `json:"range"`
	Period  PeriodDTO                   `json:"period"`
	Stats   map[string]StatDTO          `json:"stats"`
	Series  map[string][]SeriesPointDTO `json:"series"`
	Skipped SkippedDTO                  `json:"skipped"`
}

type PeriodDTO struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	PreviousFrom time.Time `json:"previous_from"`
	PreviousTo   time.Time `json:"previous_to"`
	BucketUnit   string    `json:"bucket_unit"`
}

// StatDTO is one headline metric. DeltaPercent is null when there is no
// previous value to compare against.
type StatDTO struct {
	Value         float64  `json:"value"`
	PreviousValue *float64 `json:"previous_value"`
	DeltaPercent  *int64   `json:"delta_percent"`
}

type SeriesPointDTO struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type SkippedDTO struct {
	Appointments int `json:"appointments"`
	Payments     int `json:"payments"`
	Patients     int `json:"patients"`
}

// OverviewDTO holds one snapshot per named range, keyed by range name.
type OverviewDTO struct {
	Date      string                 `json:"date"`
	Snapshots map[string]SnapshotDTO `json:"snapshots"`
}

func toSnapshotDTO(s analytics.Snapshot) SnapshotDTO {
	dto := SnapshotDTO{
		Range: string(s.Period.Range),
		Period: PeriodDTO{
			From:         s.Period.From,
			To:           s.Period.To,
			PreviousFrom: s.Period.PreviousFrom,
			PreviousTo:   s.Period.PreviousTo,
			BucketUnit:   string(s.Period.BucketUnit),
		},
		Stats:  make(map[string]StatDTO, len(s.Stats)),
		Series: make(map[string][]SeriesPointDTO, len(s.Series)),
		Skipped: SkippedDTO{
			Appointments: s.Skipped.Appointments,
			Payments:     s.Skipped.Payments,
			Patients:     s.Skipped.Patients,
		},
	}

	for metric, stat := range s.Stats {
		sd := StatDTO{
			Value:        stat.Value.InexactFloat64(),
			DeltaPercent: stat.DeltaPercent,
		}
		if stat.PreviousValue != nil {
			prev := stat.PreviousValue.InexactFloat64()
			sd.PreviousValue = &prev
		}
		dto.Stats[string(metric)] = sd
	}

	for chart, points := range s.Series {
		out := make([]SeriesPointDTO, len(points))
		for i, p := range points {
			out[i] = SeriesPointDTO{Label: p.Label, Value: p.Value.InexactFloat64()}
		}
		dto.Series[string(chart)] = out
	}
	return dto
}

// =============================================================================
// RECORDS
// =============================================================================

type AppointmentDTO struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	Status        string    `json:"status"`
	ScheduledFrom time.Time `json:"scheduled_from"`
	ScheduledTo   time.Time `json:"scheduled_to"`
	Cost          *float64  `json:"cost,omitempty"`
}

// CreateAppointmentRequest creates or replaces an appointment. Timestamps
// without a zone are read in the analytics timezone. Cost accepts a JSON
// number or a decimal string.
type CreateAppointmentRequest struct {
	ID            string           `json:"id,omitempty"`
	PatientID     string           `json:"patient_id"`
	Status        string           `json:"status"`
	ScheduledFrom string           `json:"scheduled_from"`
	ScheduledTo   string           `json:"scheduled_to"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
}

func (r CreateAppointmentRequest) toAppointment(loc *time.Location) analytics.Appointment {
	return analytics.Appointment{
		ID:            idOrNew(r.ID),
		PatientID:     r.PatientID,
		Status:        analytics.AppointmentStatus(r.Status),
		ScheduledFrom: analytics.ParseTimestamp(r.ScheduledFrom, loc),
		ScheduledTo:   analytics.ParseTimestamp(r.ScheduledTo, loc),
		Cost:          r.Cost,
	}
}

func toAppointmentDTO(a analytics.Appointment) AppointmentDTO {
	dto := AppointmentDTO{
		ID:            a.ID,
		PatientID:     a.PatientID,
		Status:        string(a.Status),
		ScheduledFrom: a.ScheduledFrom,
		ScheduledTo:   a.ScheduledTo,
	}
	if a.Cost != nil {
		cost := a.Cost.InexactFloat64()
		dto.Cost = &cost
	}
	return dto
}

type PaymentDTO struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	Status      string    `json:"status"`
	Amount      float64   `json:"amount"`
	PaymentDate time.Time `json:"payment_date"`
}

type CreatePaymentRequest struct {
	ID          string          `json:"id,omitempty"`
	PatientID   string          `json:"patient_id"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
}

func (r CreatePaymentRequest) toPayment(loc *time.Location) analytics.Payment {
	return analytics.Payment{
		ID:          idOrNew(r.ID),
		PatientID:   r.PatientID,
		Status:      analytics.PaymentStatus(r.Status),
		Amount:      r.Amount,
		PaymentDate: analytics.ParseTimestamp(r.PaymentDate, loc),
	}
}

func toPaymentDTO(p analytics.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID,
		PatientID:   p.PatientID,
		Status:      string(p.Status),
		Amount:      p.Amount.InexactFloat64(),
		PaymentDate: p.PaymentDate,
	}
}

type PatientDTO struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePatientRequest registers a patient. CreatedAt defaults to now.
type CreatePatientRequest struct {
	ID        string `json:"id,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (r CreatePatientRequest) toPatient(loc *time.Location, now time.Time) analytics.Patient {
	created := now
	if r.CreatedAt != "" {
		created = analytics.ParseTimestamp(r.CreatedAt, loc)
	}
	status := analytics.PatientStatus(r.Status)
	if status == "" {
		status = analytics.PatientActive
	}
	return analytics.Patient{
		ID:        idOrNew(r.ID),
		Status:    status,
		CreatedAt: created,
	}
}

func toPatientDTO(p analytics.Patient) PatientDTO {
	return PatientDTO{ID: p.ID, Status: string(p.Status), CreatedAt: p.CreatedAt}
}

func idOrNew(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo practice.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest loads a scenario generated relative to Date
// (YYYY-MM-DD, default today).
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	Date       string `json:"date,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
