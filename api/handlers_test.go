/*
handlers_test.go - HTTP tests for the API

Tests for:
- Snapshot and overview endpoints, including error mapping
- Record CRUD round trips through SQLite
- Scenario loading
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/practice-analytics/analytics"
	"github.com/warp/practice-analytics/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := analytics.NewService(store, zerolog.Nop())
	h := NewHandler(store, svc, zerolog.Nop())
	h.Now = func() time.Time { return fixedNow }

	srv := httptest.NewServer(NewRouter(h, []string{"http://localhost:5173"}))
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// =============================================================================
// ANALYTICS
// =============================================================================

func TestGetSnapshot_MonthWithDelta(t *testing.T) {
	srv, _ := newTestServer(t)

	status := doJSON(t, http.MethodPost, srv.URL+"/api/payments", CreatePaymentRequest{
		ID: "pay-feb", PatientID: "p1", Status: "paid",
		Amount: mustDecimal(t, "10000"), PaymentDate: "2024-02-10",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	status = doJSON(t, http.MethodPost, srv.URL+"/api/payments", CreatePaymentRequest{
		ID: "pay-mar", PatientID: "p1", Status: "paid",
		Amount: mustDecimal(t, "2500.50"), PaymentDate: "2024-03-02T10:30:00Z",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var snap SnapshotDTO
	status = doJSON(t, http.MethodGet, srv.URL+"/api/analytics/snapshot?range=month&date=2024-03-15", nil, &snap)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "month", snap.Range)
	assert.Equal(t, "day", snap.Period.BucketUnit)
	income := snap.Stats["income_collected"]
	assert.Equal(t, 2500.5, income.Value)
	require.NotNil(t, income.PreviousValue)
	assert.Equal(t, 10000.0, *income.PreviousValue)
	require.NotNil(t, income.DeltaPercent)
	assert.Equal(t, int64(-75), *income.DeltaPercent)
	assert.Len(t, snap.Series["income_over_time"], 31)
	assert.Len(t, snap.Stats, len(analytics.Metrics))
}

func TestGetSnapshot_DefaultsToCurrentMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	var snap SnapshotDTO
	status := doJSON(t, http.MethodGet, srv.URL+"/api/analytics/snapshot", nil, &snap)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "month", snap.Range)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), snap.Period.From.UTC())
	assert.Nil(t, snap.Stats["session_count"].DeltaPercent)
}

func TestGetSnapshot_ExplicitRangeThroughEndOfDay(t *testing.T) {
	srv, _ := newTestServer(t)

	status := doJSON(t, http.MethodPost, srv.URL+"/api/appointments", CreateAppointmentRequest{
		ID: "a1", PatientID: "p1", Status: "completed",
		ScheduledFrom: "2024-01-05 18:00", ScheduledTo: "2024-01-05 18:50",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var snap SnapshotDTO
	status = doJSON(t, http.MethodGet, srv.URL+"/api/analytics/snapshot?from=2024-01-01&to=2024-01-05", nil, &snap)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "custom", snap.Range)
	assert.Equal(t, 1.0, snap.Stats["session_count"].Value)
	assert.Len(t, snap.Series["sessions_over_time"], 5)
}

func TestGetSnapshot_InvalidRange(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"end before start", "from=2024-01-10&to=2024-01-05", "Invalid range"},
		{"unknown name", "range=decade", "Invalid range"},
		{"missing bound", "from=2024-01-10", "Invalid range"},
		{"bad date", "range=week&date=yesterday", "Invalid query"},
		{"bad top", "range=week&top=-1", "Invalid query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			status := doJSON(t, http.MethodGet, srv.URL+"/api/analytics/snapshot?"+tt.query, nil, &resp)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "bad_request", resp.Code)
			assert.Equal(t, tt.message, resp.Error)
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestGetOverview(t *testing.T) {
	srv, _ := newTestServer(t)

	var overview OverviewDTO
	status := doJSON(t, http.MethodGet, srv.URL+"/api/analytics/overview?date=2024-03-15", nil, &overview)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "2024-03-15", overview.Date)
	require.Len(t, overview.Snapshots, 4)
	assert.Equal(t, "month", overview.Snapshots["year"].Period.BucketUnit)
	assert.Equal(t, "week", overview.Snapshots["quarter"].Period.BucketUnit)
}

// =============================================================================
// RECORDS
// =============================================================================

func TestAppointments_CreateListDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	var created AppointmentDTO
	status := doJSON(t, http.MethodPost, srv.URL+"/api/appointments", map[string]any{
		"patient_id":     "p1",
		"status":         "confirmed",
		"scheduled_from": "2024-03-20T14:00:00Z",
		"scheduled_to":   "2024-03-20T14:50:00Z",
		"cost":           "120.50",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID, "id should be generated")
	require.NotNil(t, created.Cost)
	assert.Equal(t, 120.5, *created.Cost)

	var list []AppointmentDTO
	status = doJSON(t, http.MethodGet, srv.URL+"/api/appointments?from=2024-03-20&to=2024-03-20", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	status = doJSON(t, http.MethodDelete, srv.URL+"/api/appointments/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	var resp ErrorResponse
	status = doJSON(t, http.MethodDelete, srv.URL+"/api/appointments/"+created.ID, nil, &resp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", resp.Code)
}

func TestAppointments_ValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"bad status", map[string]any{
			"patient_id": "p1", "status": "maybe",
			"scheduled_from": "2024-03-20T14:00:00Z", "scheduled_to": "2024-03-20T14:50:00Z",
		}},
		{"ends before it starts", map[string]any{
			"patient_id": "p1", "status": "pending",
			"scheduled_from": "2024-03-20T14:00:00Z", "scheduled_to": "2024-03-20T13:00:00Z",
		}},
		{"negative cost", map[string]any{
			"patient_id": "p1", "status": "pending", "cost": -5,
			"scheduled_from": "2024-03-20T14:00:00Z", "scheduled_to": "2024-03-20T14:50:00Z",
		}},
		{"unparseable date", map[string]any{
			"patient_id": "p1", "status": "pending",
			"scheduled_from": "next tuesday", "scheduled_to": "2024-03-20T14:50:00Z",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			status := doJSON(t, http.MethodPost, srv.URL+"/api/appointments", tt.body, &resp)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "Invalid record", resp.Error)
		})
	}
}

func TestPatients_CreateDefaultsAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	var created PatientDTO
	status := doJSON(t, http.MethodPost, srv.URL+"/api/patients", map[string]any{"id": "p1"}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "active", created.Status)
	assert.True(t, created.CreatedAt.Equal(fixedNow))

	var list []PatientDTO
	status = doJSON(t, http.MethodGet, srv.URL+"/api/patients", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)
}

func TestCreatePayment_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/payments", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestLoadScenario_PopulatesSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)

	var list []ScenarioDTO
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/scenarios", nil, &list))
	require.NotEmpty(t, list)

	status := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "solo-practice"}, nil)
	require.Equal(t, http.StatusOK, status)

	var current ScenarioDTO
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/scenarios/current", nil, &current))
	assert.Equal(t, "solo-practice", current.ID)

	var snap SnapshotDTO
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/analytics/snapshot?range=year", nil, &snap))
	assert.Positive(t, snap.Stats["session_count"].Value)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/reset", nil, nil))
	var empty SnapshotDTO
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/analytics/snapshot?range=year", nil, &empty))
	assert.Zero(t, empty.Stats["session_count"].Value)
}

func TestLoadScenario_Unknown(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp ErrorResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}, &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Unknown scenario", resp.Error)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "UTC", body["timezone"])
}
