package availability

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: range not found")
	// ErrVersionConflict is returned by Repository.Save when the stored
	// calendar moved on since it was read. Callers re-read and retry.
	ErrVersionConflict = errors.New("availability: calendar version conflict")
)

type BlockReason string

const (
	ReasonBooking   BlockReason = "BOOKING"
	ReasonHostBlock BlockReason = "HOST_BLOCK"
)

type Block struct {
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

// Calendar is the per-listing ledger of blocked date ranges. It is the
// single point of contention for a listing: a booking's dates are held here
// under an optimistic version before the booking record is written, which
// closes the window between the overlap check and the insert.
type Calendar struct {
	ListingID listings.ListingID
	Blocks    []Block
	Version   int64
	events.EventRecorder
}

type Repository interface {
	// Calendar returns the stored calendar, or a fresh empty one when the
	// listing has never been blocked.
	Calendar(ctx context.Context, id listings.ListingID) (*Calendar, error)
	// Save persists the calendar iff the stored version still equals
	// calendar.Version, then bumps it. ErrVersionConflict otherwise.
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(id listings.ListingID) *Calendar {
	return &Calendar{ListingID: id}
}

func (c *Calendar) CanReserve(r daterange.DateRange) bool {
	for _, block := range c.Blocks {
		if block.Range.Overlaps(r) {
			return false
		}
	}
	return true
}

// Reserve blocks the range for a booking. Back-to-back stays are allowed:
// a block ending on a given day never conflicts with one starting that day.
func (c *Calendar) Reserve(r daterange.DateRange, bookingID string, now time.Time) error {
	if !c.CanReserve(r) {
		c.Record(overbookingPrevented(c.ListingID, r, now))
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, Block{Range: r, Reason: ReasonBooking, Reference: bookingID, CreatedAt: now.UTC()})
	c.Record(calendarBlocked(c.ListingID, r, ReasonBooking, now))
	return nil
}

// BlockRange lets a host take dates off the market without a booking.
func (c *Calendar) BlockRange(r daterange.DateRange, reference string, now time.Time) error {
	if !c.CanReserve(r) {
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, Block{Range: r, Reason: ReasonHostBlock, Reference: reference, CreatedAt: now.UTC()})
	c.Record(calendarBlocked(c.ListingID, r, ReasonHostBlock, now))
	return nil
}

// Release drops the block carrying the given reference, typically on
// booking cancellation.
func (c *Calendar) Release(reference string, now time.Time) error {
	idx := -1
	for i, block := range c.Blocks {
		if block.Reference == reference {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx], c.Blocks[idx+1:]...)
	c.Record(calendarReleased(c.ListingID, removed.Range, removed.Reason, now))
	return nil
}
