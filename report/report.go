// Package report renders snapshots as terminal tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/shopspring/decimal"

	"github.com/warp/practice-analytics/analytics"
)

// lowerIsBetter lists metrics whose growth is bad news.
var lowerIsBetter = map[analytics.Metric]bool{
	analytics.MetricCancellationCount: true,
	analytics.MetricIncomePending:     true,
}

var (
	goodColor    = color.New(color.FgGreen)
	badColor     = color.New(color.FgRed)
	neutralColor = color.New(color.FgYellow)
	mutedColor   = color.New(color.FgHiBlack)
	titleColor   = color.New(color.Bold)
)

// Render writes the snapshot's period, stats and breakdowns to w.
func Render(w io.Writer, snap analytics.Snapshot) error {
	p := snap.Period
	titleColor.Fprintf(w, "%s: %s to %s\n", strings.ToUpper(string(p.Range)),
		p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	mutedColor.Fprintf(w, "compared with %s to %s\n\n",
		p.PreviousFrom.Format("2006-01-02"), p.PreviousTo.Format("2006-01-02"))

	if err := renderStats(w, snap); err != nil {
		return err
	}

	sections := []struct {
		title string
		chart analytics.Chart
	}{
		{"Sessions by status", analytics.ChartSessionStatus},
		{"Payments by status", analytics.ChartPaymentStatus},
		{"Busiest weekdays", analytics.ChartWeeklyOccupancy},
		{"Busiest hours", analytics.ChartHourlyOccupancy},
		{"Top patients by sessions", analytics.ChartTopPatients},
		{"Top patients by income", analytics.ChartTopPatientsByIncome},
	}
	for _, s := range sections {
		fmt.Fprintln(w)
		titleColor.Fprintln(w, s.title)
		if err := renderSeries(w, snap.Series[s.chart]); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	titleColor.Fprintf(w, "Sessions per %s\n", p.BucketUnit)
	if err := renderSeries(w, snap.Series[analytics.ChartSessionsOverTime]); err != nil {
		return err
	}

	fmt.Fprintln(w)
	titleColor.Fprintf(w, "Income per %s\n", p.BucketUnit)
	if err := renderSeries(w, snap.Series[analytics.ChartIncomeOverTime]); err != nil {
		return err
	}

	if n := snap.Skipped.Total(); n > 0 {
		neutralColor.Fprintf(w, "\n%d records without a usable date were excluded (%d appointments, %d payments, %d patients)\n",
			n, snap.Skipped.Appointments, snap.Skipped.Payments, snap.Skipped.Patients)
	}
	return nil
}

func renderStats(w io.Writer, snap analytics.Snapshot) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Current", "Previous", "Change"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, m := range analytics.Metrics {
		stat := snap.Stat(m)
		previous := "-"
		if stat.PreviousValue != nil {
			previous = formatValue(m, *stat.PreviousValue)
		}
		data = append(data, []string{
			string(m),
			formatValue(m, stat.Value),
			previous,
			formatDelta(m, stat.DeltaPercent),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func renderSeries(w io.Writer, points []analytics.SeriesPoint) error {
	if len(points) == 0 {
		mutedColor.Fprintln(w, "  no data")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Label", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, len(points))
	for i, p := range points {
		data[i] = []string{p.Label, p.Value.StringFixed(2)}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func formatValue(m analytics.Metric, v decimal.Decimal) string {
	switch m {
	case analytics.MetricCompletionRate, analytics.MetricAttendanceRate, analytics.MetricCollectionRate:
		return v.String() + "%"
	case analytics.MetricIncomeCollected, analytics.MetricIncomePending, analytics.MetricBilledValue:
		return v.StringFixed(2)
	default:
		return v.String()
	}
}

// formatDelta colors a change by whether it is good news for m.
func formatDelta(m analytics.Metric, delta *int64) string {
	if delta == nil {
		return mutedColor.Sprint("n/a")
	}
	d := *delta
	switch {
	case d == 0:
		return neutralColor.Sprint("0%")
	case (d > 0) != lowerIsBetter[m]:
		return goodColor.Sprint(arrow(d))
	default:
		return badColor.Sprint(arrow(d))
	}
}

func arrow(d int64) string {
	if d > 0 {
		return fmt.Sprintf("+%d%% ▲", d)
	}
	return fmt.Sprintf("%d%% ▼", d)
}
