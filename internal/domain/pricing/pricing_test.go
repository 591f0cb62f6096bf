package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestComputeThreeNightStay(t *testing.T) {
	// $100/night, 3 nights, 12% fee: subtotal 300, fee 36, total 336.
	quote, err := Compute(money.Must(10000, "USD"), stay(t, "2024-01-01", "2024-01-04"), DefaultServiceFeeBps)
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, int64(30000), quote.Subtotal.Amount)
	assert.Equal(t, int64(3600), quote.ServiceFee.Amount)
	assert.Equal(t, int64(33600), quote.Total.Amount)
	assert.Equal(t, "USD", quote.Total.Currency)
}

func TestComputeRejectsZeroNights(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := daterange.New(day, day)
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	// a hand-built degenerate range is rejected by Compute as well
	_, err = Compute(money.Must(10000, "USD"), daterange.DateRange{CheckIn: day, CheckOut: day}, DefaultServiceFeeBps)
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestComputeRejectsBadRate(t *testing.T) {
	dr := stay(t, "2024-01-01", "2024-01-03")

	_, err := Compute(money.Money{Amount: 10000}, dr, DefaultServiceFeeBps)
	assert.ErrorIs(t, err, ErrCurrencyUnset)

	_, err = Compute(money.Must(0, "USD"), dr, DefaultServiceFeeBps)
	assert.ErrorIs(t, err, ErrNightlyRate)
}

func TestComputeZeroFeeRate(t *testing.T) {
	quote, err := Compute(money.Must(8000, "USD"), stay(t, "2024-05-01", "2024-05-03"), 0)
	require.NoError(t, err)
	assert.True(t, quote.ServiceFee.IsZero())
	assert.Equal(t, quote.Subtotal, quote.Total)
}

func TestComputeFeeRoundsHalfUp(t *testing.T) {
	// 1 night at $1.25, 12%: 15.0 cents exactly.
	quote, err := Compute(money.Must(125, "USD"), stay(t, "2024-05-01", "2024-05-02"), DefaultServiceFeeBps)
	require.NoError(t, err)
	assert.Equal(t, int64(15), quote.ServiceFee.Amount)

	// 1 night at $1.30, 12%: 15.6 cents rounds up to 16.
	quote, err = Compute(money.Must(130, "USD"), stay(t, "2024-05-01", "2024-05-02"), DefaultServiceFeeBps)
	require.NoError(t, err)
	assert.Equal(t, int64(16), quote.ServiceFee.Amount)
}
