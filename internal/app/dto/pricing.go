package dto

import (
	"time"

	"staybook/internal/domain/pricing"
)

// Quote is the display-only price breakdown. The figure the guest sees here
// is recomputed server-side when the booking is created.
type Quote struct {
	ListingID  string    `json:"listing_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Nights     int       `json:"nights"`
	Nightly    MoneyDTO  `json:"nightly"`
	Subtotal   MoneyDTO  `json:"subtotal"`
	ServiceFee MoneyDTO  `json:"service_fee"`
	Total      MoneyDTO  `json:"total"`
}

func MapQuote(listingID string, q pricing.Quote, checkIn, checkOut time.Time) Quote {
	return Quote{
		ListingID:  listingID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Nights:     q.Nights,
		Nightly:    MapMoney(q.Nightly),
		Subtotal:   MapMoney(q.Subtotal),
		ServiceFee: MapMoney(q.ServiceFee),
		Total:      MapMoney(q.Total),
	}
}
