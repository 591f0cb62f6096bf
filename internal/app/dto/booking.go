package dto

import (
	"time"

	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

type BookingListingSnapshot struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	AddressLine1 string `json:"address_line1"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type BookingPrice struct {
	Nights     int      `json:"nights"`
	Nightly    MoneyDTO `json:"nightly"`
	Subtotal   MoneyDTO `json:"subtotal"`
	ServiceFee MoneyDTO `json:"service_fee"`
	Total      MoneyDTO `json:"total"`
}

type GuestBookingSummary struct {
	ID              string                 `json:"id"`
	Listing         BookingListingSnapshot `json:"listing"`
	CheckIn         time.Time              `json:"check_in"`
	CheckOut        time.Time              `json:"check_out"`
	Guests          int                    `json:"guests"`
	Status          string                 `json:"status"`
	Price           BookingPrice           `json:"price"`
	SpecialRequests string                 `json:"special_requests,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	ReviewSubmitted bool                   `json:"review_submitted"`
	CanReview       bool                   `json:"can_review"`
}

type GuestBookingCollection struct {
	Items []GuestBookingSummary `json:"items"`
}

type HostBookingSummary struct {
	ID        string                 `json:"id"`
	Listing   BookingListingSnapshot `json:"listing"`
	GuestID   string                 `json:"guest_id"`
	CheckIn   time.Time              `json:"check_in"`
	CheckOut  time.Time              `json:"check_out"`
	Guests    int                    `json:"guests"`
	Status    string                 `json:"status"`
	Price     BookingPrice           `json:"price"`
	CreatedAt time.Time              `json:"created_at"`
}

type HostBookingCollection struct {
	Items []HostBookingSummary `json:"items"`
}

func mapListingSnapshot(listingID domainlistings.ListingID, listing *domainlistings.Listing) BookingListingSnapshot {
	snapshot := BookingListingSnapshot{ID: string(listingID)}
	if listing != nil {
		snapshot.Title = listing.Title
		snapshot.AddressLine1 = listing.Address.Line1
		snapshot.City = listing.Address.City
		snapshot.Region = listing.Address.Region
		snapshot.Country = listing.Address.Country
		snapshot.ThumbnailURL = listing.ThumbnailURL
	}
	return snapshot
}

func MapBookingPrice(booking *domainbooking.Booking) BookingPrice {
	return BookingPrice{
		Nights:     booking.Price.Nights,
		Nightly:    MapMoney(booking.Price.Nightly),
		Subtotal:   MapMoney(booking.Price.Subtotal),
		ServiceFee: MapMoney(booking.Price.ServiceFee),
		Total:      MapMoney(booking.Price.Total),
	}
}

func MapGuestBookingSummary(
	booking *domainbooking.Booking,
	listing *domainlistings.Listing,
	reviewSubmitted bool,
	canReview bool,
) GuestBookingSummary {
	return GuestBookingSummary{
		ID:              string(booking.ID),
		Listing:         mapListingSnapshot(booking.ListingID, listing),
		CheckIn:         booking.Range.CheckIn,
		CheckOut:        booking.Range.CheckOut,
		Guests:          booking.Guests,
		Status:          string(booking.State),
		Price:           MapBookingPrice(booking),
		SpecialRequests: booking.SpecialRequests,
		CreatedAt:       booking.CreatedAt,
		ReviewSubmitted: reviewSubmitted,
		CanReview:       canReview,
	}
}

func MapHostBookingSummary(booking *domainbooking.Booking, listing *domainlistings.Listing) HostBookingSummary {
	return HostBookingSummary{
		ID:        string(booking.ID),
		Listing:   mapListingSnapshot(booking.ListingID, listing),
		GuestID:   booking.GuestID,
		CheckIn:   booking.Range.CheckIn,
		CheckOut:  booking.Range.CheckOut,
		Guests:    booking.Guests,
		Status:    string(booking.State),
		Price:     MapBookingPrice(booking),
		CreatedAt: booking.CreatedAt,
	}
}
