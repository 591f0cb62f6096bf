package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const updateStatusKey = "booking.update_status"

// ErrForbidden is returned when the acting user is not allowed to drive the
// requested transition.
var ErrForbidden = errors.New("booking: actor not allowed")

type UpdateStatusCommand struct {
	BookingID string
	ActorID   string
	// Requested is the client-submitted target status. It selects the
	// transition; the aggregate decides whether the move is legal.
	Requested string
	Reason    string
}

func (c UpdateStatusCommand) Key() string { return updateStatusKey }

type UpdateStatusResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type UpdateStatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

// Handle applies a host confirmation or a guest/host cancellation. COMPLETED
// is reserved for the sweep job and never accepted from a client.
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*UpdateStatusResult, error) {
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

	target, err := domainbooking.ParseState(cmd.Requested)
	if err != nil {
		return nil, err
	}

	bkg, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, bkg.ListingID)
	if err != nil {
		return nil, err
	}

	isGuest := bkg.GuestID == cmd.ActorID
	isHost := string(listing.Host) == cmd.ActorID
	if !isGuest && !isHost {
		return nil, ErrForbidden
	}

	now := h.now()
	switch target {
	case domainbooking.StateConfirmed:
		if !isHost {
			return nil, ErrForbidden
		}
		if err := bkg.Confirm(now); err != nil {
			return nil, err
		}
	case domainbooking.StateCancelled:
		if err := bkg.Cancel(cmd.Reason, now); err != nil {
			return nil, err
		}
		// free the dates for other guests
		cal, calErr := unit.Availability().Calendar(ctx, bkg.ListingID)
		if calErr != nil {
			return nil, calErr
		}
		if err := cal.Release(string(bkg.ID), now); err == nil {
			if err := unit.Availability().Save(ctx, cal); err != nil {
				return nil, err
			}
			recorded := cal.PendingEvents()
			cal.ClearEvents()
			if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), recorded); err != nil {
				return nil, err
			}
		}
	default:
		return nil, domainbooking.ErrInvalidTransition
	}

	if err := unit.Bookings().Save(ctx, bkg); err != nil {
		return nil, err
	}
	recorded := bkg.PendingEvents()
	bkg.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), recorded); err != nil {
		return nil, err
	}

	if managed {
		if err := commit(); err != nil {
			return nil, err
		}
		committed = true
	}
	return &UpdateStatusResult{BookingID: string(bkg.ID), Status: string(bkg.State)}, nil
}

func (h *UpdateStatusHandler) unit(ctx context.Context) (uow.UnitOfWork, context.Context, bool, func() error, func(), error) {
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

func (h *UpdateStatusHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *UpdateStatusHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[UpdateStatusCommand, *UpdateStatusResult] = (*UpdateStatusHandler)(nil)
