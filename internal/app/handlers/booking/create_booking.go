package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
)

const (
	createBookingKey = "booking.create"

	// reserveAttempts bounds the re-read/retry loop on calendar version
	// conflicts. Two concurrent requests for the same listing make at
	// most one extra pass each.
	reserveAttempts = 3
)

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

type CreateBookingCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	SpecialRequests string
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	BookingID       string `json:"booking_id"`
	Status          string `json:"status"`
	Nights          int    `json:"nights"`
	SubtotalCents   int64  `json:"subtotal_cents"`
	ServiceFeeCents int64  `json:"service_fee_cents"`
	TotalCents      int64  `json:"total_cents"`
	Currency        string `json:"currency"`
}

// Metrics receives counters for the booking hot path. Optional.
type Metrics interface {
	BookingCreated()
	BookingConflict()
}

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	FeeBps     int64
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Metrics    Metrics
	Clock      func() time.Time
}

// Handle runs the booking pipeline: validate the listing and the stay,
// check the ledger for overlaps, hold the dates on the listing calendar
// under an optimistic version, price the stay server-side and persist the
// booking. The calendar write is what makes two racing requests for the
// same dates resolve to exactly one booking.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
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

	now := h.now()
	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	if err := domainbooking.ValidateDateRange(dr, now); err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if !listing.Bookable() {
		return nil, domainlistings.ErrNotBookable
	}
	if err := domainbooking.ValidateStay(listing, dr, cmd.Guests); err != nil {
		return nil, err
	}

	overlapping, err := unit.Bookings().FindOverlapping(ctx, listing.ID, dr, domainbooking.ActiveStates())
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		h.conflict()
		return nil, domainbooking.ErrDatesUnavailable
	}

	bookingID := domainbooking.BookingID(cmd.CommandID)
	calendarEvents, err := h.reserve(ctx, unit, listing.ID, dr, string(bookingID), now)
	if err != nil {
		return nil, err
	}

	quote, err := domainpricing.Compute(listing.NightlyRate, dr, h.feeBps())
	if err != nil {
		return nil, err
	}

	bkg, err := domainbooking.New(domainbooking.CreateParams{
		ID:              bookingID,
		ListingID:       listing.ID,
		GuestID:         cmd.GuestID,
		Range:           dr,
		Guests:          cmd.Guests,
		Price:           quote,
		SpecialRequests: cmd.SpecialRequests,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if listing.InstantBook {
		if err := bkg.Confirm(now); err != nil {
			return nil, err
		}
	}

	if err := unit.Bookings().Insert(ctx, bkg); err != nil {
		h.release(ctx, unit, listing.ID, string(bookingID), now)
		return nil, err
	}

	recorded := append(calendarEvents, bkg.PendingEvents()...)
	bkg.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), recorded); err != nil {
		return nil, err
	}

	created := func() {
		if h.Metrics != nil {
			h.Metrics.BookingCreated()
		}
	}
	if managed {
		if err := commit(); err != nil {
			return nil, err
		}
		committed = true
		created()
	} else if !uow.AfterCommit(ctx, created) {
		// no transaction middleware around us; count immediately
		created()
	}

	return &CreateBookingResult{
		BookingID:       string(bkg.ID),
		Status:          string(bkg.State),
		Nights:          quote.Nights,
		SubtotalCents:   quote.Subtotal.Amount,
		ServiceFeeCents: quote.ServiceFee.Amount,
		TotalCents:      quote.Total.Amount,
		Currency:        quote.Total.Currency,
	}, nil
}

// reserve holds the range on the listing calendar, retrying when another
// request saved the calendar first.
func (h *CreateBookingHandler) reserve(
	ctx context.Context,
	unit uow.UnitOfWork,
	listingID domainlistings.ListingID,
	dr domainrange.DateRange,
	reference string,
	now time.Time,
) ([]events.DomainEvent, error) {
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		cal, err := unit.Availability().Calendar(ctx, listingID)
		if err != nil {
			return nil, err
		}
		if err := cal.Reserve(dr, reference, now); err != nil {
			h.conflict()
			return nil, domainbooking.ErrDatesUnavailable
		}
		err = unit.Availability().Save(ctx, cal)
		if errors.Is(err, domainavailability.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		recorded := cal.PendingEvents()
		cal.ClearEvents()
		return recorded, nil
	}
	h.conflict()
	return nil, domainbooking.ErrDatesUnavailable
}

// release is best-effort compensation when the booking insert fails after
// the calendar hold succeeded. Under a real transaction the rollback covers
// this; the memory store has no rollback.
func (h *CreateBookingHandler) release(ctx context.Context, unit uow.UnitOfWork, listingID domainlistings.ListingID, reference string, now time.Time) {
	cal, err := unit.Availability().Calendar(ctx, listingID)
	if err != nil {
		return
	}
	if err := cal.Release(reference, now); err != nil {
		return
	}
	_ = unit.Availability().Save(ctx, cal)
}

func (h *CreateBookingHandler) unit(ctx context.Context) (uow.UnitOfWork, context.Context, bool, func() error, func(), error) {
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
	commit := func() error { return unit.Commit(execCtx) }
	rollback := func() { _ = unit.Rollback(execCtx) }
	return unit, execCtx, true, commit, rollback, nil
}

func (h *CreateBookingHandler) feeBps() int64 {
	if h.FeeBps > 0 {
		return h.FeeBps
	}
	return domainpricing.DefaultServiceFeeBps
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *CreateBookingHandler) conflict() {
	if h.Metrics != nil {
		h.Metrics.BookingConflict()
	}
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
