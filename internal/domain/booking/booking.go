package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
)

var (
	ErrNotFound          = errors.New("booking: not found")
	ErrInvalidTransition = errors.New("booking: invalid state transition")
	ErrDatesUnavailable  = errors.New("booking: dates unavailable")
	ErrCheckInInPast     = errors.New("booking: check-in date is in the past")
	ErrInvalidGuests     = errors.New("booking: guests count must be positive")
	ErrGuestsExceedLimit = errors.New("booking: guests exceed listing limit")
	ErrStayTooShort      = errors.New("booking: stay shorter than listing minimum")
	ErrStayTooLong       = errors.New("booking: stay longer than listing maximum")
	ErrUnknownState      = errors.New("booking: unknown state")
	ErrStayNotOver       = errors.New("booking: stay has not ended yet")
)

type BookingID string

// State is a closed enum; transitions go through the aggregate methods so
// an invalid move is a validation error, never a stored surprise.
type State string

const (
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
	StateCompleted State = "COMPLETED"
)

// ActiveStates are the states that block a listing's availability. Pending
// requests hold their dates too; otherwise two guests could be offered the
// same unconfirmed range and double-book once both confirm.
func ActiveStates() []State {
	return []State{StatePending, StateConfirmed}
}

// ParseState maps client-submitted status strings onto the closed enum.
func ParseState(value string) (State, error) {
	switch State(strings.ToUpper(strings.TrimSpace(value))) {
	case StatePending:
		return StatePending, nil
	case StateConfirmed:
		return StateConfirmed, nil
	case StateCancelled:
		return StateCancelled, nil
	case StateCompleted:
		return StateCompleted, nil
	default:
		return "", ErrUnknownState
	}
}

func (s State) Terminal() bool {
	return s == StateCancelled || s == StateCompleted
}

type Booking struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         string
	Range           daterange.DateRange
	Guests          int
	Price           pricing.Quote
	State           State
	SpecialRequests string
	CancelReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Insert persists a brand-new booking; it must fail rather than
	// overwrite an existing record.
	Insert(ctx context.Context, booking *Booking) error
	Save(ctx context.Context, booking *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
	// FindOverlapping returns bookings for the listing whose range
	// intersects dr and whose state is one of states.
	FindOverlapping(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange, states []State) ([]*Booking, error)
	// DueForCompletion returns confirmed bookings whose checkout is at or
	// before the given instant.
	DueForCompletion(ctx context.Context, before time.Time) ([]*Booking, error)
}

// ValidateDateRange rejects ranges that start before today.
func ValidateDateRange(dr daterange.DateRange, now time.Time) error {
	if err := dr.Validate(); err != nil {
		return err
	}
	if dr.CheckIn.Before(daterange.Day(now)) {
		return ErrCheckInInPast
	}
	return nil
}

// ValidateStay checks guest count and stay length against the listing.
func ValidateStay(listing *listings.Listing, dr daterange.DateRange, guests int) error {
	if guests < 1 {
		return ErrInvalidGuests
	}
	if guests > listing.GuestsLimit {
		return ErrGuestsExceedLimit
	}
	nights := dr.Nights()
	if listing.MinNights > 0 && nights < listing.MinNights {
		return ErrStayTooShort
	}
	if listing.MaxNights > 0 && nights > listing.MaxNights {
		return ErrStayTooLong
	}
	return nil
}

type CreateParams struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         string
	Range           daterange.DateRange
	Guests          int
	Price           pricing.Quote
	SpecialRequests string
	CreatedAt       time.Time
}

func New(params CreateParams) (*Booking, error) {
	if params.Guests < 1 {
		return nil, ErrInvalidGuests
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, errors.New("booking: guest id required")
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, errors.New("booking: listing id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		ListingID:       params.ListingID,
		GuestID:         params.GuestID,
		Range:           params.Range,
		Guests:          params.Guests,
		Price:           params.Price,
		State:           StatePending,
		SpecialRequests: strings.TrimSpace(params.SpecialRequests),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{
		BookingID:   b.ID,
		ListingID:   b.ListingID,
		GuestID:     b.GuestID,
		Range:       b.Range,
		GuestsCount: b.Guests,
		Total:       b.Price.Total,
		At:          now,
	})
	return b, nil
}

// Confirm moves a pending booking to confirmed. Only the listing's host may
// request this; the caller enforces actor identity.
func (b *Booking) Confirm(now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidTransition
	}
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Total: b.Price.Total, At: b.UpdatedAt})
	return nil
}

// Cancel terminates a pending or confirmed booking.
func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.State {
	case StatePending, StateConfirmed:
	default:
		return ErrInvalidTransition
	}
	b.State = StateCancelled
	b.CancelReason = strings.TrimSpace(reason)
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Reason: b.CancelReason, At: b.UpdatedAt})
	return nil
}

// Complete marks a confirmed stay as finished once checkout has passed.
// Completing an already-completed booking is a no-op so the sweep job can
// re-run safely.
func (b *Booking) Complete(now time.Time) error {
	if b.State == StateCompleted {
		return nil
	}
	if b.State != StateConfirmed {
		return ErrInvalidTransition
	}
	if !b.Range.EndedBefore(now) {
		return ErrStayNotOver
	}
	b.State = StateCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}
