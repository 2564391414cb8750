/*
Package scenario generates demo practices for development and demonstrations.

PURPOSE:
  Populates a record store with realistic appointments, payments and patients
  so the dashboard and the report command have something to aggregate. Each
  scenario is generated relative to a reference date, so "this month" always
  has data whenever the demo is loaded.

AVAILABLE SCENARIOS:
  solo-practice:  One therapist, weekday sessions, mostly paid on time
  busy-clinic:    Several practitioners, six days a week, more overdue money
  new-practice:   Opened six weeks ago; previous periods are mostly empty
  empty-practice: No records at all

DETERMINISM:
  Generation is seeded per scenario and ids are name-based UUIDs, so the same
  scenario and reference date always produce identical records.

HOW LOADING WORKS:
 1. Reset the store (clear all data)
 2. Generate the records
 3. Save patients, then appointments, then payments

NOTE:
  Loading resets the store. Only use in development/demo environments.

SEE ALSO:
  - api/scenarios.go: HTTP handlers
  - cmd/server/report.go: report --scenario
*/
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/practice-analytics/analytics"
)

// ErrUnknownScenario is returned for an id not in List.
var ErrUnknownScenario = errors.New("unknown scenario")

// namespace roots the name-based UUIDs of generated records.
var namespace = uuid.MustParse("6f1c2e9a-4b7d-4c55-9a43-2f0e8d1b7c60")

// Scenario describes one demo practice.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Category    string

	profile *profile
}

// profile parameterizes the generator. A nil profile generates nothing.
type profile struct {
	seed          uint64
	patients      int
	openedDaysAgo int
	maxPerDay     int
	saturdays     bool
	fee           decimal.Decimal
	cancelRate    float64
	paidRate      float64
	inactiveRate  float64
	lookaheadDays int
	overdueAfter  int // days; unpaid sessions older than this are overdue
	firstHour     int
	openingHours  int
}

var scenarios = []Scenario{
	{
		ID:          "solo-practice",
		Name:        "Solo Practice",
		Description: "One therapist seeing a dozen patients on weekdays, most sessions paid within a week",
		Category:    "practice",
		profile: &profile{
			seed:          1,
			patients:      14,
			openedDaysAgo: 420,
			maxPerDay:     5,
			fee:           decimal.NewFromInt(120),
			cancelRate:    0.08,
			paidRate:      0.85,
			inactiveRate:  0.15,
			lookaheadDays: 14,
			overdueAfter:  30,
			firstHour:     9,
			openingHours:  9,
		},
	},
	{
		ID:          "busy-clinic",
		Name:        "Busy Clinic",
		Description: "Several practitioners, six days a week, with a backlog of overdue payments",
		Category:    "practice",
		profile: &profile{
			seed:          2,
			patients:      80,
			openedDaysAgo: 800,
			maxPerDay:     16,
			saturdays:     true,
			fee:           decimal.RequireFromString("95.50"),
			cancelRate:    0.15,
			paidRate:      0.65,
			inactiveRate:  0.25,
			lookaheadDays: 21,
			overdueAfter:  21,
			firstHour:     7,
			openingHours:  13,
		},
	},
	{
		ID:          "new-practice",
		Name:        "New Practice",
		Description: "Opened six weeks ago: growing roster, little history to compare against",
		Category:    "practice",
		profile: &profile{
			seed:          3,
			patients:      9,
			openedDaysAgo: 42,
			maxPerDay:     3,
			fee:           decimal.NewFromInt(150),
			cancelRate:    0.05,
			paidRate:      0.9,
			lookaheadDays: 14,
			overdueAfter:  30,
			firstHour:     10,
			openingHours:  8,
		},
	},
	{
		ID:          "empty-practice",
		Name:        "Empty Practice",
		Description: "No records: every stat is zero and every chart is zero-filled",
		Category:    "edge-case",
	},
}

// List returns every scenario in display order.
func List() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// Get returns the scenario with the given id.
func Get(id string) (Scenario, error) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
}

// Load resets store and fills it with the scenario generated at ref.
func Load(ctx context.Context, store analytics.RecordStore, id string, ref time.Time) (analytics.RecordCounts, error) {
	s, err := Get(id)
	if err != nil {
		return analytics.RecordCounts{}, err
	}
	if err := store.Reset(ctx); err != nil {
		return analytics.RecordCounts{}, fmt.Errorf("failed to reset store: %w", err)
	}

	in := s.Generate(ref)
	for _, p := range in.Patients {
		if err := store.SavePatient(ctx, p); err != nil {
			return analytics.RecordCounts{}, fmt.Errorf("failed to save patient %s: %w", p.ID, err)
		}
	}
	for _, a := range in.Appointments {
		if err := store.SaveAppointment(ctx, a); err != nil {
			return analytics.RecordCounts{}, fmt.Errorf("failed to save appointment %s: %w", a.ID, err)
		}
	}
	for _, p := range in.Payments {
		if err := store.SavePayment(ctx, p); err != nil {
			return analytics.RecordCounts{}, fmt.Errorf("failed to save payment %s: %w", p.ID, err)
		}
	}

	return analytics.RecordCounts{
		Appointments: len(in.Appointments),
		Payments:     len(in.Payments),
		Patients:     len(in.Patients),
	}, nil
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generate builds the scenario's records relative to ref, in UTC.
func (s Scenario) Generate(ref time.Time) analytics.Input {
	in := analytics.Input{
		Appointments: []analytics.Appointment{},
		Payments:     []analytics.Payment{},
		Patients:     []analytics.Patient{},
	}
	if s.profile == nil {
		return in
	}
	p := s.profile
	rng := rand.New(rand.NewPCG(p.seed, p.seed*7919))

	today := analytics.StartOfDay(ref.UTC())
	opened := today.AddDate(0, 0, -p.openedDaysAgo)

	// Patients join across the practice's lifetime, the first on opening day.
	for i := 0; i < p.patients; i++ {
		joined := opened
		if i > 0 {
			joined = opened.AddDate(0, 0, rng.IntN(p.openedDaysAgo+1)).Add(time.Duration(rng.IntN(8*60)) * time.Minute)
		}
		status := analytics.PatientActive
		if rng.Float64() < p.inactiveRate {
			status = analytics.PatientInactive
		}
		in.Patients = append(in.Patients, analytics.Patient{
			ID:        s.recordID("patient", i),
			CreatedAt: joined,
			Status:    status,
		})
	}

	last := today.AddDate(0, 0, p.lookaheadDays)
	for day := opened; !day.After(last); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Sunday || (day.Weekday() == time.Saturday && !p.saturdays) {
			continue
		}

		eligible := patientsBy(in.Patients, day)
		if len(eligible) == 0 {
			continue
		}

		for n := rng.IntN(p.maxPerDay + 1); n > 0; n-- {
			start := day.Add(time.Duration(p.firstHour+rng.IntN(p.openingHours)) * time.Hour)
			patient := eligible[rng.IntN(len(eligible))]
			fee := p.fee

			appt := analytics.Appointment{
				ID:            s.recordID("appointment", len(in.Appointments)),
				ScheduledFrom: start,
				ScheduledTo:   start.Add(50 * time.Minute),
				PatientID:     patient.ID,
				Cost:          &fee,
				Status:        p.status(rng, start, ref),
			}
			in.Appointments = append(in.Appointments, appt)

			if appt.Status == analytics.AppointmentCompleted {
				in.Payments = append(in.Payments, s.paymentFor(rng, appt, len(in.Payments), ref))
			}
		}
	}
	return in
}

func (p *profile) status(rng *rand.Rand, start, ref time.Time) analytics.AppointmentStatus {
	switch {
	case rng.Float64() < p.cancelRate:
		return analytics.AppointmentCancelled
	case start.After(ref):
		if rng.IntN(3) == 0 {
			return analytics.AppointmentPending
		}
		return analytics.AppointmentConfirmed
	default:
		return analytics.AppointmentCompleted
	}
}

func (s Scenario) paymentFor(rng *rand.Rand, appt analytics.Appointment, n int, ref time.Time) analytics.Payment {
	p := s.profile
	pay := analytics.Payment{
		ID:          s.recordID("payment", n),
		Amount:      *appt.Cost,
		PatientID:   appt.PatientID,
		PaymentDate: appt.ScheduledFrom,
		Status:      analytics.PaymentPending,
	}

	if rng.Float64() < p.paidRate {
		paidOn := appt.ScheduledFrom.AddDate(0, 0, rng.IntN(7))
		if !paidOn.After(ref) {
			pay.Status = analytics.PaymentPaid
			pay.PaymentDate = paidOn
			return pay
		}
	}
	if ref.Sub(appt.ScheduledFrom) > time.Duration(p.overdueAfter)*24*time.Hour {
		pay.Status = analytics.PaymentOverdue
	}
	return pay
}

func (s Scenario) recordID(kind string, n int) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s/%s/%d", s.ID, kind, n))).String()
}

// patientsBy returns patients who joined before cutoff.
func patientsBy(patients []analytics.Patient, cutoff time.Time) []analytics.Patient {
	var out []analytics.Patient
	for _, p := range patients {
		if p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}
