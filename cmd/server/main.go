/*
main.go - Application entry point

PURPOSE:
  Command-line entry point for the practice analytics engine. Serves the
  dashboard API or prints a snapshot report to the terminal.

COMMANDS:
  serve    Start the HTTP API
  report   Print one snapshot as tables

STARTUP SEQUENCE (serve):
  1. Load configuration (environment, .env, flags)
  2. Initialize SQLite store
  3. Create analytics service and API handler
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags override environment variables, which override .env:
  --port      PORT                 HTTP server port (default: 8080)
  --db        DATABASE_PATH        SQLite database path (default: practice.db)
              Use ":memory:" for in-memory database
  --timezone  ANALYTICS_TIMEZONE   Zone for period boundaries (default: UTC)
              LOG_LEVEL            zerolog level (default: info)
              CORS_ORIGINS         Comma-separated allowed origins
              TOP_PATIENTS_LIMIT   Ranking size (default: 5)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Serve with file database
  ./server serve --db=./data/practice.db

  # This month's report from a demo practice, nothing persisted
  ./server report --scenario=solo-practice

  # A quarter of real data in Lisbon time
  ./server report --range=quarter --date=2024-05-10 --timezone=Europe/Lisbon

SEE ALSO:
  - api/server.go: Router configuration
  - report/report.go: Terminal tables
  - config/config.go: Configuration keys
*/
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/practice-analytics/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "server",
		Short:         "Practice dashboard analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("db", "", "SQLite database path (\":memory:\" for in-memory)")
	root.PersistentFlags().String("timezone", "", "IANA zone for period boundaries")
	_ = v.BindPFlag("DATABASE_PATH", root.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("ANALYTICS_TIMEZONE", root.PersistentFlags().Lookup("timezone"))

	root.AddCommand(newServeCmd(v), newReportCmd(v))
	return root
}

// loadConfig reads configuration and builds the process logger from it.
func loadConfig(v *viper.Viper) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return cfg, logger.Level(cfg.Level()), nil
}
