/*
handlers.go - HTTP API handlers for the practice dashboard

PURPOSE:
  Exposes the analytics engine and the record stores via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the analytics
  Service and the RecordStore.

ENDPOINTS:
  Analytics:
    GET    /api/analytics/snapshot     Snapshot for ?range= or ?from=&to=
    GET    /api/analytics/overview     Week, month, quarter and year at ?date=

  Records:
    GET    /api/appointments           List, optionally within ?from=&to=
    POST   /api/appointments           Create or replace
    DELETE /api/appointments/{id}      Delete
    (same for /api/payments and /api/patients)

  Scenarios:
    GET    /api/scenarios              List demo practices
    GET    /api/scenarios/current      Currently loaded practice
    POST   /api/scenarios/load         Load a demo practice
    POST   /api/scenarios/reset        Clear all records

  Health:
    GET    /api/health

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Record persistence (CRUD side)
  - Service: Snapshot computation (read side)
  - Now: Clock for default reference dates

ERROR HANDLING:
  Errors are returned as JSON {error, code, details} with HTTP status:
  - 400: Invalid range, unparseable date, record validation failure
  - 404: Record not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/practice-analytics/analytics"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   analytics.RecordStore
	Service *analytics.Service
	Logger  zerolog.Logger
	Now     func() time.Time

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over store. Snapshots are computed by svc,
// which must read from the same store.
func NewHandler(store analytics.RecordStore, svc *analytics.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:   store,
		Service: svc,
		Logger:  logger,
		Now:     time.Now,
	}
}

// errBadQuery marks malformed query parameters.
var errBadQuery = errors.New("invalid query parameter")

// =============================================================================
// ANALYTICS HANDLERS
// =============================================================================

// GetSnapshot computes one snapshot.
//
//	?range=week|month|quarter|year&date=YYYY-MM-DD  named range at date (default today)
//	?from=YYYY-MM-DD&to=YYYY-MM-DD                  explicit range, to through end of day
//	&top=N                                          ranking size
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rng, err := h.parseRange(q.Get("range"), q.Get("from"), q.Get("to"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	ref, err := h.parseDate(q.Get("date"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var opts []analytics.Option
	if top := q.Get("top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n <= 0 {
			h.writeDomainError(w, fmt.Errorf("%w: top must be a positive integer, got %q", errBadQuery, top))
			return
		}
		opts = append(opts, analytics.WithTopPatientsLimit(n))
	}

	snap, err := h.Service.Snapshot(r.Context(), rng, ref, opts...)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// GetOverview computes the snapshot of every named range at ?date=.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ref, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	overview, err := h.Service.Overview(r.Context(), ref)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dto := OverviewDTO{
		Date:      ref.Format("2006-01-02"),
		Snapshots: make(map[string]SnapshotDTO, len(overview)),
	}
	for name, snap := range overview {
		dto.Snapshots[string(name)] = toSnapshotDTO(snap)
	}
	writeJSON(w, http.StatusOK, dto)
}

// parseRange builds a Range from query parameters. A named range wins;
// otherwise both explicit bounds are required.
func (h *Handler) parseRange(name, from, to string) (analytics.Range, error) {
	if name != "" {
		n, err := analytics.ParseRangeName(name)
		if err != nil {
			return analytics.Range{}, err
		}
		return analytics.Named(n), nil
	}
	if from == "" && to == "" {
		return analytics.Named(analytics.RangeMonth), nil
	}

	loc := h.Service.Location
	start := analytics.ParseTimestamp(from, loc)
	end := analytics.ParseTimestamp(to, loc)
	if start.IsZero() || end.IsZero() {
		return analytics.Range{}, &analytics.InvalidRangeError{
			From: start, To: end, Reason: fmt.Sprintf("from %q and to %q must both be dates", from, to),
		}
	}
	if isDateOnly(to) {
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return analytics.Between(start, end), nil
}

// parseDate reads a reference date, defaulting to now.
func (h *Handler) parseDate(s string) (time.Time, error) {
	if s == "" {
		return h.Now().In(h.Service.Location), nil
	}
	t := analytics.ParseTimestamp(s, h.Service.Location)
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("%w: date %q", errBadQuery, s)
	}
	return t, nil
}

func isDateOnly(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// window reads optional ?from=&to= bounds for list endpoints.
func (h *Handler) window(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	from, to := time.Time{}, time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	if s := q.Get("from"); s != "" {
		if from = analytics.ParseTimestamp(s, h.Service.Location); from.IsZero() {
			return from, to, fmt.Errorf("%w: from %q", errBadQuery, s)
		}
	}
	if s := q.Get("to"); s != "" {
		if to = analytics.ParseTimestamp(s, h.Service.Location); to.IsZero() {
			return from, to, fmt.Errorf("%w: to %q", errBadQuery, s)
		}
		if isDateOnly(s) {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	return from, to, nil
}

// ListAppointments returns appointments, oldest first.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.window(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	appts, err := h.Store.ListAppointments(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list appointments", err)
		return
	}

	dtos := make([]AppointmentDTO, len(appts))
	for i, a := range appts {
		dtos[i] = toAppointmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAppointment creates or replaces an appointment.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	appt := req.toAppointment(h.Service.Location)
	if err := h.Store.SaveAppointment(r.Context(), appt); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentDTO(appt))
}

// DeleteAppointment removes an appointment.
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, h.Store.DeleteAppointment)
}

// ListPayments returns payments, oldest first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.window(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	payments, err := h.Store.ListPayments(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayment creates or replaces a payment.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payment := req.toPayment(h.Service.Location)
	if err := h.Store.SavePayment(r.Context(), payment); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(payment))
}

// DeletePayment removes a payment.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, h.Store.DeletePayment)
}

// ListPatients returns the roster.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.Store.ListPatients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list patients", err)
		return
	}

	dtos := make([]PatientDTO, len(patients))
	for i, p := range patients {
		dtos[i] = toPatientDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePatient registers or replaces a patient.
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patient := req.toPatient(h.Service.Location, h.Now())
	if err := h.Store.SavePatient(r.Context(), patient); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPatientDTO(patient))
}

// DeletePatient removes a patient.
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, h.Store.DeletePatient)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id string) error) {
	id := chi.URLParam(r, "id")
	if err := del(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"timezone": h.Service.Location.String(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: codeFor(status)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case analytics.IsClientError(err):
		message := "Invalid record"
		if errors.Is(err, analytics.ErrInvalidRange) {
			message = "Invalid range"
		}
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, errBadQuery):
		writeError(w, http.StatusBadRequest, "Invalid query", err)
	case analytics.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		h.Logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal"
	}
}
