package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/practice-analytics/analytics"
	"github.com/warp/practice-analytics/analytics/store"
	"github.com/warp/practice-analytics/report"
	"github.com/warp/practice-analytics/scenario"
	"github.com/warp/practice-analytics/store/sqlite"
)

type reportOptions struct {
	rangeName string
	date      string
	from      string
	to        string
	scenario  string
	top       int
}

func newReportCmd(v *viper.Viper) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a snapshot as tables",
		Long: "Computes one snapshot and prints its stats and breakdowns.\n" +
			"With --scenario the demo practice is generated in memory and the database is not touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), v, opts)
		},
	}
	cmd.Flags().StringVar(&opts.rangeName, "range", "month", "week, month, quarter or year")
	cmd.Flags().StringVar(&opts.date, "date", "", "reference date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.from, "from", "", "explicit range start, YYYY-MM-DD (overrides --range)")
	cmd.Flags().StringVar(&opts.to, "to", "", "explicit range end, YYYY-MM-DD, inclusive")
	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "report on a generated demo practice")
	cmd.Flags().IntVar(&opts.top, "top", 0, "ranking size (default TOP_PATIENTS_LIMIT)")
	return cmd
}

func runReport(ctx context.Context, out io.Writer, v *viper.Viper, opts reportOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig(v)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ref := time.Now().In(loc)
	if opts.date != "" {
		if ref = analytics.ParseTimestamp(opts.date, loc); ref.IsZero() {
			return fmt.Errorf("invalid --date %q", opts.date)
		}
	}

	rng, err := reportRange(opts, loc)
	if err != nil {
		return err
	}

	var source analytics.RecordSource
	if opts.scenario != "" {
		mem := store.NewMemory()
		if _, err := scenario.Load(ctx, mem, opts.scenario, ref); err != nil {
			return err
		}
		source = mem
	} else {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		source = db
	}

	svc := analytics.NewService(source, logger)
	svc.Location = loc
	svc.TopPatientsLimit = cfg.TopPatientsLimit

	var snapOpts []analytics.Option
	if opts.top > 0 {
		snapOpts = append(snapOpts, analytics.WithTopPatientsLimit(opts.top))
	}
	snap, err := svc.Snapshot(ctx, rng, ref, snapOpts...)
	if err != nil {
		return err
	}
	return report.Render(out, snap)
}

func reportRange(opts reportOptions, loc *time.Location) (analytics.Range, error) {
	if opts.from == "" && opts.to == "" {
		name, err := analytics.ParseRangeName(opts.rangeName)
		if err != nil {
			return analytics.Range{}, err
		}
		return analytics.Named(name), nil
	}

	from := analytics.ParseTimestamp(opts.from, loc)
	to := analytics.ParseTimestamp(opts.to, loc)
	if from.IsZero() || to.IsZero() {
		return analytics.Range{}, fmt.Errorf("--from and --to must both be dates")
	}
	// --to is inclusive of the whole day
	to = analytics.StartOfDay(to).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return analytics.Between(from, to), nil
}
