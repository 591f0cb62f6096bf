package pricing

import (
	"errors"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var (
	ErrZeroNights    = errors.New("pricing: stay must cover at least one night")
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
	ErrNightlyRate   = errors.New("pricing: nightly rate must be positive")
)

// DefaultServiceFeeBps is the marketplace surcharge applied to the nightly
// subtotal: 12% expressed in basis points.
const DefaultServiceFeeBps = 1200

// Quote is the server-side price breakdown for a stay. The same function
// produces the display quote and the authoritative total at booking time;
// client-submitted totals are never consulted.
type Quote struct {
	Nights     int
	Nightly    money.Money
	Subtotal   money.Money
	ServiceFee money.Money
	Total      money.Money
	FeeBps     int64
}

// Compute derives the full breakdown for a nightly rate over a range.
// The service fee rounds half up at the minor currency unit.
func Compute(nightly money.Money, dr daterange.DateRange, feeBps int64) (Quote, error) {
	if nightly.Currency == "" {
		return Quote{}, ErrCurrencyUnset
	}
	if nightly.Amount <= 0 {
		return Quote{}, ErrNightlyRate
	}
	if err := dr.Validate(); err != nil {
		return Quote{}, err
	}
	nights := dr.Nights()
	if nights < 1 {
		return Quote{}, ErrZeroNights
	}
	if feeBps < 0 {
		feeBps = 0
	}
	subtotal := nightly.Multiply(int64(nights))
	fee := subtotal.PercentBps(feeBps)
	total, err := subtotal.Add(fee)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Nights:     nights,
		Nightly:    nightly,
		Subtotal:   subtotal,
		ServiceFee: fee,
		Total:      total,
		FeeBps:     feeBps,
	}, nil
}
