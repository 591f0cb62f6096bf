package schedule

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	bookinghandlers "staybook/internal/app/handlers/booking"
)

const defaultSweepInterval = 10 * time.Minute

// Sweeper periodically completes confirmed stays whose checkout has passed.
// Each tick dispatches one CompleteStaysCommand through the command bus so
// the run gets the same transaction and outbox treatment as API writes.
type Sweeper struct {
	Bus      commands.Bus
	Interval time.Duration
	Logger   *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	result, err := commands.Dispatch[bookinghandlers.CompleteStaysCommand, *bookinghandlers.CompleteStaysResult](
		ctx, s.Bus, bookinghandlers.CompleteStaysCommand{Now: now},
	)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("stay completion sweep failed", "error", err)
		}
		return
	}
	if s.Logger != nil && result != nil && result.Completed > 0 {
		s.Logger.Info("stays completed", "count", result.Completed)
	}
}
