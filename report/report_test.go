package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/practice-analytics/analytics"
	"github.com/warp/practice-analytics/report"
)

func TestRender(t *testing.T) {
	color.NoColor = true

	cost := decimal.NewFromInt(100)
	in := analytics.Input{
		Appointments: []analytics.Appointment{{
			ID: "a1", PatientID: "ana", Status: analytics.AppointmentCompleted, Cost: &cost,
			ScheduledFrom: time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC),
			ScheduledTo:   time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC),
		}},
		Payments: []analytics.Payment{
			{ID: "p1", PatientID: "ana", Status: analytics.PaymentPaid, Amount: decimal.NewFromInt(50),
				PaymentDate: time.Date(2024, time.February, 4, 9, 0, 0, 0, time.UTC)},
			{ID: "p2", PatientID: "ana", Status: analytics.PaymentPaid, Amount: decimal.NewFromInt(100),
				PaymentDate: time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)},
			{ID: "p3", PatientID: "ana", Status: analytics.PaymentPending, Amount: decimal.NewFromInt(10)},
		},
	}
	snap, err := analytics.ComputeSnapshot(in, analytics.Named(analytics.RangeMonth),
		time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, snap))
	out := buf.String()

	assert.Contains(t, out, "MONTH: 2024-03-01 to 2024-03-31")
	assert.Contains(t, out, "compared with 2024-02-01 to 2024-02-29")
	assert.Contains(t, out, "session_count")
	assert.Contains(t, out, "+100% ▲")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "1 records without a usable date were excluded")
}
