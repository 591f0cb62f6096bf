package dto

import (
	"strings"
	"time"

	domainlistings "staybook/internal/domain/listings"
)

type HostListingCatalog struct {
	Items []HostListingSummary   `json:"items"`
	Meta  HostListingCatalogMeta `json:"meta"`
}

type HostListingCatalogMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type HostListingSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	NightlyRate  MoneyDTO  `json:"nightly_rate"`
	GuestsLimit  int       `json:"guests_limit"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	InstantBook  bool      `json:"instant_book"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Photos       []string  `json:"photos"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	UpdatedAt    time.Time `json:"updated_at"`
	State        string    `json:"state"`
}

type HostListingDetail struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	PropertyType string         `json:"property_type"`
	Address      ListingAddress `json:"address"`
	Amenities    []string       `json:"amenities"`
	GuestsLimit  int            `json:"guests_limit"`
	MinNights    int            `json:"min_nights"`
	MaxNights    int            `json:"max_nights"`
	Host         ListingHost    `json:"host"`
	State        string         `json:"state"`
	NightlyRate  MoneyDTO       `json:"nightly_rate"`
	InstantBook  bool           `json:"instant_book"`
	Featured     bool           `json:"featured"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    int            `json:"bathrooms"`
	ThumbnailURL string         `json:"thumbnail_url"`
	Photos       []string       `json:"photos"`
	Rating       float64        `json:"rating"`
	ReviewCount  int            `json:"review_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	StateLabel   string         `json:"status"`
}

func MapHostListingSummary(listing *domainlistings.Listing) HostListingSummary {
	if listing == nil {
		return HostListingSummary{}
	}
	return HostListingSummary{
		ID:           string(listing.ID),
		Title:        listing.Title,
		Status:       toStatus(listing.State),
		City:         listing.Address.City,
		Country:      listing.Address.Country,
		NightlyRate:  MapMoney(listing.NightlyRate),
		GuestsLimit:  listing.GuestsLimit,
		Bedrooms:     listing.Bedrooms,
		Bathrooms:    listing.Bathrooms,
		InstantBook:  listing.InstantBook,
		ThumbnailURL: listing.ThumbnailURL,
		Photos:       append([]string(nil), listing.Photos...),
		Rating:       listing.Rating,
		ReviewCount:  listing.ReviewCount,
		UpdatedAt:    listing.UpdatedAt,
		State:        string(listing.State),
	}
}

func MapHostListingDetail(listing *domainlistings.Listing) HostListingDetail {
	if listing == nil {
		return HostListingDetail{}
	}
	return HostListingDetail{
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
		Amenities:    append([]string(nil), listing.Amenities...),
		GuestsLimit:  listing.GuestsLimit,
		MinNights:    listing.MinNights,
		MaxNights:    listing.MaxNights,
		Host:         ListingHost{ID: string(listing.Host)},
		State:        string(listing.State),
		NightlyRate:  MapMoney(listing.NightlyRate),
		InstantBook:  listing.InstantBook,
		Featured:     listing.Featured,
		Bedrooms:     listing.Bedrooms,
		Bathrooms:    listing.Bathrooms,
		ThumbnailURL: listing.ThumbnailURL,
		Photos:       append([]string(nil), listing.Photos...),
		Rating:       listing.Rating,
		ReviewCount:  listing.ReviewCount,
		CreatedAt:    listing.CreatedAt,
		UpdatedAt:    listing.UpdatedAt,
		StateLabel:   toStatus(listing.State),
	}
}

func toStatus(state domainlistings.ListingState) string {
	switch state {
	case domainlistings.ListingDraft:
		return "draft"
	case domainlistings.ListingActive:
		return "published"
	case domainlistings.ListingSuspended:
		return "unpublished"
	default:
		return strings.ToLower(string(state))
	}
}

type HostListingPhotoUploadResult struct {
	ListingID    string   `json:"listing_id"`
	Photos       []string `json:"photos"`
	ThumbnailURL string   `json:"thumbnail_url"`
}
