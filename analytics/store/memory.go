// Package store provides RecordStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/practice-analytics/analytics"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	appointments map[string]analytics.Appointment
	payments     map[string]analytics.Payment
	patients     map[string]analytics.Patient
}

func NewMemory() *Memory {
	return &Memory{
		appointments: make(map[string]analytics.Appointment),
		payments:     make(map[string]analytics.Payment),
		patients:     make(map[string]analytics.Patient),
	}
}

// SaveAppointment inserts or replaces an appointment.
func (m *Memory) SaveAppointment(_ context.Context, a analytics.Appointment) error {
	if err := analytics.ValidateAppointment(a); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.Cost != nil {
		cost := *a.Cost
		a.Cost = &cost
	}
	m.appointments[a.ID] = a
	return nil
}

// SavePayment inserts or replaces a payment.
func (m *Memory) SavePayment(_ context.Context, p analytics.Payment) error {
	if err := analytics.ValidatePayment(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

// SavePatient inserts or replaces a patient.
func (m *Memory) SavePatient(_ context.Context, p analytics.Patient) error {
	if err := analytics.ValidatePatient(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
	return nil
}

// ListAppointments returns appointments by ScheduledFrom, oldest first.
func (m *Memory) ListAppointments(_ context.Context, from, to time.Time) ([]analytics.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]analytics.Appointment, 0)
	for _, a := range m.appointments {
		if inWindow(a.ScheduledFrom, from, to) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return before(result[i].ScheduledFrom, result[j].ScheduledFrom, result[i].ID, result[j].ID)
	})
	return result, nil
}

// ListPayments returns payments by PaymentDate, oldest first.
func (m *Memory) ListPayments(_ context.Context, from, to time.Time) ([]analytics.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]analytics.Payment, 0)
	for _, p := range m.payments {
		if inWindow(p.PaymentDate, from, to) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return before(result[i].PaymentDate, result[j].PaymentDate, result[i].ID, result[j].ID)
	})
	return result, nil
}

// ListPatients returns the roster by CreatedAt, oldest first.
func (m *Memory) ListPatients(_ context.Context) ([]analytics.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]analytics.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return before(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result, nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return analytics.ErrRecordNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *Memory) DeletePayment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return analytics.ErrRecordNotFound
	}
	delete(m.payments, id)
	return nil
}

func (m *Memory) DeletePatient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[id]; !ok {
		return analytics.ErrRecordNotFound
	}
	delete(m.patients, id)
	return nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments = make(map[string]analytics.Appointment)
	m.payments = make(map[string]analytics.Payment)
	m.patients = make(map[string]analytics.Patient)
	return nil
}

// inWindow keeps dated records inside [from, to] and every undated record,
// which the engine excludes and counts.
func inWindow(t, from, to time.Time) bool {
	if t.IsZero() {
		return true
	}
	return !t.Before(from) && !t.After(to)
}

func before(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return idA < idB
}

var _ analytics.RecordStore = (*Memory)(nil)
