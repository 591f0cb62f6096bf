package dto

import (
	"time"

	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
)

type ListingAddress struct {
	Line1   string  `json:"line1"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type ListingHost struct {
	ID string `json:"id"`
}

// AvailabilityWindow describes the time window used to build the response.
type AvailabilityWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ListingOverview aggregates listing details and calendar information.
type ListingOverview struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	PropertyType       string             `json:"property_type"`
	Address            ListingAddress     `json:"address"`
	Amenities          []string           `json:"amenities"`
	GuestsLimit        int                `json:"guests_limit"`
	Bedrooms           int                `json:"bedrooms"`
	Bathrooms          int                `json:"bathrooms"`
	MinNights          int                `json:"min_nights"`
	MaxNights          int                `json:"max_nights"`
	NightlyRate        MoneyDTO           `json:"nightly_rate"`
	InstantBook        bool               `json:"instant_book"`
	Photos             []string           `json:"photos"`
	ThumbnailURL       string             `json:"thumbnail_url"`
	Rating             float64            `json:"rating"`
	ReviewCount        int                `json:"review_count"`
	Host               ListingHost        `json:"host"`
	State              string             `json:"state"`
	Calendar           Calendar           `json:"calendar"`
	AvailabilityWindow AvailabilityWindow `json:"availability_window"`
}

func MapListingOverview(
	listing *domainlistings.Listing,
	calendar *domainavailability.Calendar,
	windowFrom, windowTo time.Time,
) ListingOverview {
	if listing == nil {
		return ListingOverview{}
	}
	overview := ListingOverview{
		ID:           string(listing.ID),
		Title:        listing.Title,
		Description:  listing.Description,
		PropertyType: listing.PropertyType,
		Address: ListingAddress{
			Line1:   listing.Address.Line1,
			City:    listing.Address.City,
			Region:  listing.Address.Region,
			Country: listing.Address.Country,
			Lat:     listing.Address.Lat,
			Lon:     listing.Address.Lon,
		},
		Amenities:          append([]string(nil), listing.Amenities...),
		GuestsLimit:        listing.GuestsLimit,
		Bedrooms:           listing.Bedrooms,
		Bathrooms:          listing.Bathrooms,
		MinNights:          listing.MinNights,
		MaxNights:          listing.MaxNights,
		NightlyRate:        MapMoney(listing.NightlyRate),
		InstantBook:        listing.InstantBook,
		Photos:             append([]string(nil), listing.Photos...),
		ThumbnailURL:       listing.ThumbnailURL,
		Rating:             listing.Rating,
		ReviewCount:        listing.ReviewCount,
		Host:               ListingHost{ID: string(listing.Host)},
		State:              string(listing.State),
		AvailabilityWindow: AvailabilityWindow{From: windowFrom, To: windowTo},
	}
	overview.Calendar = MapCalendarWithin(calendar, windowFrom, windowTo)
	return overview
}

// MapCalendarWithin keeps only blocks intersecting the window.
func MapCalendarWithin(cal *domainavailability.Calendar, from, to time.Time) Calendar {
	if cal == nil {
		return Calendar{}
	}
	out := Calendar{ListingID: string(cal.ListingID), Blocks: []CalendarBlock{}}
	for _, b := range cal.Blocks {
		if !to.IsZero() && !b.Range.CheckIn.Before(to) {
			continue
		}
		if !from.IsZero() && !b.Range.CheckOut.After(from) {
			continue
		}
		out.Blocks = append(out.Blocks, CalendarBlock{
			From:   b.Range.CheckIn,
			To:     b.Range.CheckOut,
			Reason: string(b.Reason),
		})
	}
	return out
}
