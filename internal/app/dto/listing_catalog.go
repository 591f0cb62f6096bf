package dto

import (
	domainlistings "staybook/internal/domain/listings"
)

// ListingCatalog is a paginated collection of listings.
type ListingCatalog struct {
	Items   []ListingCard   `json:"items"`
	Filters CatalogFilters  `json:"filters"`
	Meta    CatalogMetadata `json:"meta"`
}

// ListingCard is a lightweight representation for catalog cards.
type ListingCard struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	City         string   `json:"city"`
	Country      string   `json:"country"`
	PropertyType string   `json:"property_type"`
	GuestsLimit  int      `json:"guests_limit"`
	MinNights    int      `json:"min_nights"`
	MaxNights    int      `json:"max_nights"`
	NightlyRate  MoneyDTO `json:"nightly_rate"`
	InstantBook  bool     `json:"instant_book"`
	Featured     bool     `json:"featured"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	Amenities    []string `json:"amenities"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"review_count"`
	State        string   `json:"state"`
}

// CatalogFilters echoes back the applied filters.
type CatalogFilters struct {
	Location      string   `json:"location"`
	Amenities     []string `json:"amenities"`
	PropertyTypes []string `json:"property_types"`
	MinGuests     int      `json:"min_guests"`
	PriceMinCents int64    `json:"price_min_cents"`
	PriceMaxCents int64    `json:"price_max_cents"`
	FeaturedOnly  bool     `json:"featured_only"`
}

// CatalogMetadata describes pagination.
type CatalogMetadata struct {
	Total  int    `json:"total"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Sort   string `json:"sort"`
}

func MapCatalog(result domainlistings.SearchResult, params domainlistings.SearchParams) ListingCatalog {
	normalized := params.Normalized()
	items := make([]ListingCard, 0, len(result.Items))
	for _, listing := range result.Items {
		items = append(items, MapListingCard(listing))
	}
	return ListingCatalog{
		Items: items,
		Filters: CatalogFilters{
			Location:      normalized.LocationQuery,
			Amenities:     append([]string(nil), normalized.Amenities...),
			PropertyTypes: append([]string(nil), normalized.PropertyTypes...),
			MinGuests:     normalized.MinGuests,
			PriceMinCents: normalized.PriceMinCents,
			PriceMaxCents: normalized.PriceMaxCents,
			FeaturedOnly:  normalized.FeaturedOnly,
		},
		Meta: CatalogMetadata{
			Total:  result.Total,
			Count:  len(items),
			Limit:  normalized.Limit,
			Offset: normalized.Offset,
			Sort:   string(normalized.Sort),
		},
	}
}

func MapListingCard(listing *domainlistings.Listing) ListingCard {
	if listing == nil {
		return ListingCard{}
	}
	return ListingCard{
		ID:           string(listing.ID),
		Title:        listing.Title,
		City:         listing.Address.City,
		Country:      listing.Address.Country,
		PropertyType: listing.PropertyType,
		GuestsLimit:  listing.GuestsLimit,
		MinNights:    listing.MinNights,
		MaxNights:    listing.MaxNights,
		NightlyRate:  MapMoney(listing.NightlyRate),
		InstantBook:  listing.InstantBook,
		Featured:     listing.Featured,
		Bedrooms:     listing.Bedrooms,
		Bathrooms:    listing.Bathrooms,
		Amenities:    append([]string(nil), listing.Amenities...),
		ThumbnailURL: listing.ThumbnailURL,
		Rating:       listing.Rating,
		ReviewCount:  listing.ReviewCount,
		State:        string(listing.State),
	}
}
