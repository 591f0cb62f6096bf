package booking

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
)

const completeStaysKey = "booking.complete_stays"

type CompleteStaysCommand struct {
	// Now is the sweep instant; zero means wall clock.
	Now time.Time
}

func (c CompleteStaysCommand) Key() string { return completeStaysKey }

type CompleteStaysResult struct {
	Completed int `json:"completed"`
}

// CompleteStaysHandler closes out confirmed bookings whose checkout has
// passed. The sweep is idempotent: bookings already completed by a previous
// run are skipped by the query and by the aggregate itself.
type CompleteStaysHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CompleteStaysHandler) Handle(ctx context.Context, cmd CompleteStaysCommand) (*CompleteStaysResult, error) {
	unit, ctx, managed, commit, rollback, err := h.unit(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				rollback()
			}
		}()
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	due, err := unit.Bookings().DueForCompletion(ctx, now)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, bkg := range due {
		if err := bkg.Complete(now); err != nil {
			continue
		}
		if err := unit.Bookings().Save(ctx, bkg); err != nil {
			return nil, err
		}
		recorded := bkg.PendingEvents()
		bkg.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), recorded); err != nil {
			return nil, err
		}
		completed++
	}

	if managed {
		if err := commit(); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CompleteStaysResult{Completed: completed}, nil
}

func (h *CompleteStaysHandler) unit(ctx context.Context) (uow.UnitOfWork, context.Context, bool, func() error, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, false, nil, nil, nil
	}
	if h.UoWFactory == nil {
		return nil, ctx, false, nil, nil, ErrUnitOfWorkRequired
	}
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, false, nil, nil, err
	}
	execCtx := uow.ContextWithUnitOfWork(ctx, unit)
	return unit, execCtx, true,
		func() error { return unit.Commit(execCtx) },
		func() { _ = unit.Rollback(execCtx) },
		nil
}

func (h *CompleteStaysHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CompleteStaysCommand, *CompleteStaysResult] = (*CompleteStaysHandler)(nil)
