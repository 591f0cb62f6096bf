package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

func stay(t *testing.T, checkIn, checkOut string) daterange.DateRange {
	t.Helper()
	parse := func(v string) time.Time {
		ts, err := time.Parse("2006-01-02", v)
		require.NoError(t, err)
		return ts
	}
	dr, err := daterange.New(parse(checkIn), parse(checkOut))
	require.NoError(t, err)
	return dr
}

func newPending(t *testing.T) *Booking {
	t.Helper()
	dr := stay(t, "2024-06-10", "2024-06-13")
	quote, err := pricing.Compute(money.Must(10000, "USD"), dr, pricing.DefaultServiceFeeBps)
	require.NoError(t, err)

	b, err := New(CreateParams{
		ID:        "bkg-1",
		ListingID: listings.ListingID("lst-1"),
		GuestID:   "guest-1",
		Range:     dr,
		Guests:    2,
		Price:     quote,
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func TestNewStartsPending(t *testing.T) {
	b := newPending(t)
	assert.Equal(t, StatePending, b.State)
	assert.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, int64(33600), b.Price.Total.Amount)
}

func TestNewValidation(t *testing.T) {
	dr := stay(t, "2024-06-10", "2024-06-13")
	_, err := New(CreateParams{ID: "b", ListingID: "l", GuestID: "g", Range: dr, Guests: 0})
	assert.ErrorIs(t, err, ErrInvalidGuests)

	_, err = New(CreateParams{ID: "b", ListingID: "l", GuestID: "  ", Range: dr, Guests: 1})
	assert.Error(t, err)
}

func TestTransitions(t *testing.T) {
	after := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("pending to confirmed", func(t *testing.T) {
		b := newPending(t)
		require.NoError(t, b.Confirm(after))
		assert.Equal(t, StateConfirmed, b.State)
	})

	t.Run("confirm twice fails", func(t *testing.T) {
		b := newPending(t)
		require.NoError(t, b.Confirm(after))
		assert.ErrorIs(t, b.Confirm(after), ErrInvalidTransition)
	})

	t.Run("cancel pending", func(t *testing.T) {
		b := newPending(t)
		require.NoError(t, b.Cancel("change of plans", after))
		assert.Equal(t, StateCancelled, b.State)
		assert.Equal(t, "change of plans", b.CancelReason)
	})

	t.Run("cancel confirmed", func(t *testing.T) {
		b := newPending(t)
		require.NoError(t, b.Confirm(after))
		require.NoError(t, b.Cancel("", after))
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		b := newPending(t)
		require.NoError(t, b.Cancel("", after))
		assert.ErrorIs(t, b.Confirm(after), ErrInvalidTransition)
		assert.ErrorIs(t, b.Cancel("", after), ErrInvalidTransition)
		assert.ErrorIs(t, b.Complete(after), ErrInvalidTransition)
	})
}

func TestCompleteIsIdempotent(t *testing.T) {
	b := newPending(t)
	require.NoError(t, b.Confirm(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)))

	// checkout is 2024-06-13; completing before that is rejected
	assert.ErrorIs(t, b.Complete(time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)), ErrStayNotOver)

	after := time.Date(2024, 6, 13, 9, 0, 0, 0, time.UTC)
	require.NoError(t, b.Complete(after))
	assert.Equal(t, StateCompleted, b.State)

	// re-running the sweep over an already-completed booking is a no-op
	require.NoError(t, b.Complete(after.Add(time.Hour)))
	assert.Equal(t, StateCompleted, b.State)
}

func TestCompletePendingFails(t *testing.T) {
	b := newPending(t)
	assert.ErrorIs(t, b.Complete(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)), ErrInvalidTransition)
}

func TestParseState(t *testing.T) {
	s, err := ParseState(" confirmed ")
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, s)

	_, err = ParseState("archived")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestValidateDateRange(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDateRange(stay(t, "2024-06-10", "2024-06-12"), now), "check-in today is allowed")
	assert.ErrorIs(t, ValidateDateRange(stay(t, "2024-06-09", "2024-06-12"), now), ErrCheckInInPast)
}

func TestValidateStay(t *testing.T) {
	listing := &listings.Listing{GuestsLimit: 4, MinNights: 2, MaxNights: 7}

	cases := []struct {
		name   string
		dr     daterange.DateRange
		guests int
		want   error
	}{
		{"ok", stay(t, "2024-06-10", "2024-06-13"), 2, nil},
		{"zero guests", stay(t, "2024-06-10", "2024-06-13"), 0, ErrInvalidGuests},
		{"too many guests", stay(t, "2024-06-10", "2024-06-13"), 5, ErrGuestsExceedLimit},
		{"too short", stay(t, "2024-06-10", "2024-06-11"), 2, ErrStayTooShort},
		{"too long", stay(t, "2024-06-01", "2024-06-20"), 2, ErrStayTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStay(listing, tc.dr, tc.guests)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}

	t.Run("unbounded max", func(t *testing.T) {
		open := &listings.Listing{GuestsLimit: 4, MinNights: 1}
		assert.NoError(t, ValidateStay(open, stay(t, "2024-06-01", "2024-08-01"), 2))
	})
}
