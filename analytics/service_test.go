package analytics_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/practice-analytics/analytics"
	"github.com/warp/practice-analytics/analytics/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*analytics.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return analytics.NewService(mem, zerolog.Nop()), mem
}

type failingSource struct {
	analytics.RecordSource
}

func (failingSource) ListPayments(context.Context, time.Time, time.Time) ([]analytics.Payment, error) {
	return nil, errors.New("connection refused")
}

// skippingSource returns a record with a missing date, as a store does for
// rows it cannot parse.
type skippingSource struct {
	analytics.RecordSource
}

func (skippingSource) ListAppointments(context.Context, time.Time, time.Time) ([]analytics.Appointment, error) {
	return []analytics.Appointment{{ID: "broken", Status: analytics.AppointmentCompleted}}, nil
}

// =============================================================================
// SNAPSHOT
// =============================================================================

func TestService_Snapshot_LoadsBothWindows(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)

	require.NoError(t, mem.SavePayment(ctx, payment("pay1", "p1", analytics.PaymentPaid, "10000", at(2024, time.February, 10, 12))))
	require.NoError(t, mem.SavePayment(ctx, payment("pay2", "p1", analytics.PaymentPaid, "5000", at(2024, time.March, 3, 12))))
	require.NoError(t, mem.SavePayment(ctx, payment("pay3", "p1", analytics.PaymentPaid, "999", at(2023, time.December, 3, 12))))

	snap, err := svc.Snapshot(ctx, analytics.Named(analytics.RangeMonth), date(2024, time.March, 15))
	require.NoError(t, err)

	income := snap.Stat(analytics.MetricIncomeCollected)
	assertDecimal(t, "5000", income.Value)
	assertDecimal(t, "10000", *income.PreviousValue)
	assertDelta(t, -50, income.DeltaPercent)
}

func TestService_Snapshot_UsesConfiguredLocation(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	svc.Location = time.FixedZone("UTC-5", -5*60*60)

	// 02:00 UTC on April 1 is March 31 at UTC-5
	require.NoError(t, mem.SaveAppointment(ctx, appt("a1", "p1", analytics.AppointmentCompleted, at(2024, time.April, 1, 2))))

	snap, err := svc.Snapshot(ctx, analytics.Named(analytics.RangeMonth), date(2024, time.March, 20))
	require.NoError(t, err)

	assertDecimal(t, "1", snap.Stat(analytics.MetricSessionCount).Value)
	assertDecimal(t, "1", snap.Series[analytics.ChartHourlyOccupancy][21].Value)
}

func TestService_Snapshot_LocationOptionWidensLoadWindow(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	loc := time.FixedZone("UTC-10", -10*60*60)

	// GIVEN: 05:00 UTC on April 1, which is March 31 at UTC-10
	require.NoError(t, mem.SaveAppointment(ctx, appt("a1", "p1", analytics.AppointmentCompleted, at(2024, time.April, 1, 5))))

	// WHEN: the call overrides the service's UTC location
	snap, err := svc.Snapshot(ctx, analytics.Named(analytics.RangeMonth), date(2024, time.March, 20), analytics.WithLocation(loc))
	require.NoError(t, err)

	// THEN: the record is loaded and counted in March
	assert.Equal(t, time.Date(2024, time.March, 31, 23, 59, 59, 999999999, loc).Unix(), snap.Period.To.Unix())
	assertDecimal(t, "1", snap.Stat(analytics.MetricSessionCount).Value)
	assertDecimal(t, "1", snap.Series[analytics.ChartHourlyOccupancy][19].Value)
}

func TestService_Snapshot_InvalidRange(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Snapshot(context.Background(),
		analytics.Between(date(2024, time.January, 10), date(2024, time.January, 5)),
		time.Time{},
	)
	assert.True(t, analytics.IsClientError(err))
}

func TestService_Snapshot_SourceError(t *testing.T) {
	svc := analytics.NewService(failingSource{RecordSource: store.NewMemory()}, zerolog.Nop())

	_, err := svc.Snapshot(context.Background(), analytics.Named(analytics.RangeWeek), date(2024, time.March, 15))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load payments")
	assert.False(t, analytics.IsClientError(err))
}

func TestService_Snapshot_LogsSkippedRecords(t *testing.T) {
	var buf bytes.Buffer
	svc := analytics.NewService(skippingSource{RecordSource: store.NewMemory()}, zerolog.New(&buf))

	snap, err := svc.Snapshot(context.Background(), analytics.Named(analytics.RangeWeek), date(2024, time.March, 15))
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Skipped.Appointments)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"appointments":1`)
}

// =============================================================================
// OVERVIEW
// =============================================================================

func TestService_Overview_EveryNamedRange(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	require.NoError(t, mem.SaveAppointment(ctx, appt("a1", "p1", analytics.AppointmentCompleted, at(2024, time.March, 14, 9))))
	require.NoError(t, mem.SaveAppointment(ctx, appt("a2", "p1", analytics.AppointmentCompleted, at(2024, time.January, 2, 9))))

	overview, err := svc.Overview(ctx, date(2024, time.March, 15))
	require.NoError(t, err)

	require.Len(t, overview, len(analytics.NamedRanges))
	assertDecimal(t, "1", overview[analytics.RangeWeek].Stat(analytics.MetricSessionCount).Value)
	assertDecimal(t, "1", overview[analytics.RangeMonth].Stat(analytics.MetricSessionCount).Value)
	assertDecimal(t, "2", overview[analytics.RangeQuarter].Stat(analytics.MetricSessionCount).Value)
	assertDecimal(t, "2", overview[analytics.RangeYear].Stat(analytics.MetricSessionCount).Value)
	assert.Equal(t, analytics.RangeYear, overview[analytics.RangeYear].Period.Range)
}

func TestService_Overview_PropagatesErrors(t *testing.T) {
	svc := analytics.NewService(failingSource{RecordSource: store.NewMemory()}, zerolog.Nop())

	_, err := svc.Overview(context.Background(), date(2024, time.March, 15))
	assert.Error(t, err)
}
