package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Service loads the records one snapshot needs and runs the engine over them.
type Service struct {
	Source           RecordSource
	Logger           zerolog.Logger
	Location         *time.Location
	TopPatientsLimit int
}

// NewService creates a service over source with UTC boundaries and the
// default ranking size.
func NewService(source RecordSource, logger zerolog.Logger) *Service {
	return &Service{
		Source:           source,
		Logger:           logger,
		Location:         time.UTC,
		TopPatientsLimit: DefaultTopPatientsLimit,
	}
}

// Snapshot computes the snapshot for r at ref. It loads the superset window
// covering both the current and the previous period. opts override the
// service's own settings for this call.
func (s *Service) Snapshot(ctx context.Context, r Range, ref time.Time, opts ...Option) (Snapshot, error) {
	opts = append([]Option{
		WithLocation(s.Location),
		WithTopPatientsLimit(s.TopPatientsLimit),
	}, opts...)
	o := newOptions(opts)

	// The load window must come from the same location the snapshot uses.
	period, err := ResolvePeriod(r, ref, o.location)
	if err != nil {
		return Snapshot{}, err
	}

	in, err := s.load(ctx, period.PreviousFrom, period.To)
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := ComputeSnapshot(in, r, ref, opts...)
	if err != nil {
		return Snapshot{}, err
	}

	if snap.Skipped.Total() > 0 {
		s.Logger.Warn().
			Str("range", string(snap.Period.Range)).
			Int("appointments", snap.Skipped.Appointments).
			Int("payments", snap.Skipped.Payments).
			Int("patients", snap.Skipped.Patients).
			Msg("records with missing dates excluded from snapshot")
	}
	return snap, nil
}

// Overview computes the snapshot of every named range at ref. The snapshots
// are independent and computed concurrently.
func (s *Service) Overview(ctx context.Context, ref time.Time) (map[RangeName]Snapshot, error) {
	results := make([]Snapshot, len(NamedRanges))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range NamedRanges {
		g.Go(func() error {
			snap, err := s.Snapshot(gctx, Named(name), ref)
			if err != nil {
				return fmt.Errorf("%s snapshot: %w", name, err)
			}
			results[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overview := make(map[RangeName]Snapshot, len(NamedRanges))
	for i, name := range NamedRanges {
		overview[name] = results[i]
	}
	return overview, nil
}

func (s *Service) load(ctx context.Context, from, to time.Time) (Input, error) {
	appts, err := s.Source.ListAppointments(ctx, from, to)
	if err != nil {
		return Input{}, fmt.Errorf("failed to load appointments: %w", err)
	}
	payments, err := s.Source.ListPayments(ctx, from, to)
	if err != nil {
		return Input{}, fmt.Errorf("failed to load payments: %w", err)
	}
	patients, err := s.Source.ListPatients(ctx)
	if err != nil {
		return Input{}, fmt.Errorf("failed to load patients: %w", err)
	}
	return Input{Appointments: appts, Payments: payments, Patients: patients}, nil
}
