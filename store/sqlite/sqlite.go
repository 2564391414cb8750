/*
Package sqlite provides a SQLite-backed implementation of the record store.

PURPOSE:
  Implements analytics.RecordStore using SQLite. The dashboard's CRUD layer
  writes appointments, payments and patients here; the analytics Service
  reads superset windows back for each snapshot.

KEY TABLES:
  appointments: Sessions, keyed by id, dated by scheduled_from
  payments:     Money owed or received, dated by payment_date
  patients:     The roster, dated by created_at

TIMESTAMPS:
  Written in UTC with a fixed-width layout so that TEXT comparison in range
  queries matches chronological order. Rows written by other tools in a
  different format are still returned by range queries and parsed leniently;
  values that cannot be parsed come back as the zero time, which the engine
  excludes and counts.

MONEY:
  Amounts and costs are stored as decimal strings, never REAL.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): readers don't block the writer.

USAGE:
  store, err := sqlite.New("./data/practice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := analytics.NewService(store, logger)

SEE ALSO:
  - analytics/store.go: Interface definitions
  - analytics/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/practice-analytics/analytics"
)

// timeLayout is fixed width so TEXT ordering is chronological. Window
// queries also return every row not in this exact form (other widths or
// zones) and leave the date check to the engine.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements analytics.RecordStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a distinct database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		status TEXT NOT NULL,
		scheduled_from TEXT NOT NULL DEFAULT '',
		scheduled_to TEXT NOT NULL DEFAULT '',
		cost TEXT,
		inserted_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Snapshot window queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_appointments_scheduled_from
		ON appointments(scheduled_from);
	CREATE INDEX IF NOT EXISTS idx_appointments_patient
		ON appointments(patient_id);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		status TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_date TEXT NOT NULL DEFAULT '',
		inserted_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_payment_date
		ON payments(payment_date);
	CREATE INDEX IF NOT EXISTS idx_payments_patient
		ON payments(patient_id);

	CREATE TABLE IF NOT EXISTS patients (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT '',
		inserted_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

// SaveAppointment inserts or replaces an appointment.
func (s *Store) SaveAppointment(ctx context.Context, a analytics.Appointment) error {
	if err := analytics.ValidateAppointment(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO appointments (id, patient_id, status, scheduled_from, scheduled_to, cost, inserted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			patient_id = excluded.patient_id,
			status = excluded.status,
			scheduled_from = excluded.scheduled_from,
			scheduled_to = excluded.scheduled_to,
			cost = excluded.cost,
			updated_at = excluded.updated_at
	`

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.PatientID, string(a.Status),
		formatTime(a.ScheduledFrom), formatTime(a.ScheduledTo),
		nullDecimal(a.Cost), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save appointment: %w", err)
	}
	return nil
}

// ListAppointments returns appointments with scheduled_from in [from, to],
// plus rows whose scheduled_from is not in canonical form.
func (s *Store) ListAppointments(ctx context.Context, from, to time.Time) ([]analytics.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, patient_id, status, scheduled_from, scheduled_to, cost
		FROM appointments
		WHERE (scheduled_from >= ? AND scheduled_from <= ?)
		   OR scheduled_from NOT LIKE '____-__-__T__:__:__._________Z'
		ORDER BY scheduled_from ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	appts := make([]analytics.Appointment, 0)
	for rows.Next() {
		var (
			a                   analytics.Appointment
			status              string
			scheduledFrom, upTo string
			cost                sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.PatientID, &status, &scheduledFrom, &upTo, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		a.Status = analytics.AppointmentStatus(status)
		a.ScheduledFrom = analytics.ParseTimestamp(scheduledFrom, time.UTC)
		a.ScheduledTo = analytics.ParseTimestamp(upTo, time.UTC)
		a.Cost = parseNullDecimal(cost)
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// DeleteAppointment removes an appointment.
func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "appointments", id)
}

// =============================================================================
// PAYMENTS
// =============================================================================

// SavePayment inserts or replaces a payment.
func (s *Store) SavePayment(ctx context.Context, p analytics.Payment) error {
	if err := analytics.ValidatePayment(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payments (id, patient_id, status, amount, payment_date, inserted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			patient_id = excluded.patient_id,
			status = excluded.status,
			amount = excluded.amount,
			payment_date = excluded.payment_date,
			updated_at = excluded.updated_at
	`

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.PatientID, string(p.Status), p.Amount.String(),
		formatTime(p.PaymentDate), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// ListPayments returns payments with payment_date in [from, to], plus rows
// whose payment_date is not in canonical form.
func (s *Store) ListPayments(ctx context.Context, from, to time.Time) ([]analytics.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, patient_id, status, amount, payment_date
		FROM payments
		WHERE (payment_date >= ? AND payment_date <= ?)
		   OR payment_date NOT LIKE '____-__-__T__:__:__._________Z'
		ORDER BY payment_date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]analytics.Payment, 0)
	for rows.Next() {
		var (
			p                    analytics.Payment
			status, amount, date string
		)
		if err := rows.Scan(&p.ID, &p.PatientID, &status, &amount, &date); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Status = analytics.PaymentStatus(status)
		p.Amount = parseDecimal(amount)
		p.PaymentDate = analytics.ParseTimestamp(date, time.UTC)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// DeletePayment removes a payment.
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "payments", id)
}

// =============================================================================
// PATIENTS
// =============================================================================

// SavePatient inserts or replaces a patient.
func (s *Store) SavePatient(ctx context.Context, p analytics.Patient) error {
	if err := analytics.ValidatePatient(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO patients (id, status, created_at, inserted_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, query,
		p.ID, string(p.Status), formatTime(p.CreatedAt), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	return nil
}

// ListPatients returns the whole roster.
func (s *Store) ListPatients(ctx context.Context) ([]analytics.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, status, created_at FROM patients ORDER BY created_at ASC, id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := make([]analytics.Patient, 0)
	for rows.Next() {
		var (
			p                 analytics.Patient
			status, createdAt string
		)
		if err := rows.Scan(&p.ID, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		p.Status = analytics.PatientStatus(status)
		p.CreatedAt = analytics.ParseTimestamp(createdAt, time.UTC)
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// DeletePatient removes a patient.
func (s *Store) DeletePatient(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "patients", id)
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"appointments", "payments", "patients"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Exec runs a raw statement. Used by tests and migrations that import rows
// written by other tools.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// table is always one of the package's own table names.
func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", strings.TrimSuffix(table, "s"), id, analytics.ErrRecordNotFound)
	}
	return nil
}

// Helper functions

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseNullDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}

var _ analytics.RecordStore = (*Store)(nil)
