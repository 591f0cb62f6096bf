package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(1500, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = New(100, "dollars")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAddRequiresMatchingCurrency(t *testing.T) {
	usd := Must(100, "USD")
	eur := Must(100, "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := usd.Add(Must(250, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(350), sum.Amount)
}

func TestPercentBpsRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		bps    int64
		want   int64
	}{
		{"exact", 30000, 1200, 3600},
		{"rounds up on half", 125, 1200, 15},   // 15.0 exactly
		{"rounds down below half", 120, 1200, 14}, // 14.4
		{"rounds up above half", 130, 1200, 16},   // 15.6
		{"zero rate", 30000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Must(tc.amount, "USD").PercentBps(tc.bps)
			assert.Equal(t, tc.want, got.Amount)
			assert.Equal(t, "USD", got.Currency)
		})
	}
}

func TestMultiply(t *testing.T) {
	total := Must(10000, "USD").Multiply(3)
	assert.Equal(t, int64(30000), total.Amount)
}
