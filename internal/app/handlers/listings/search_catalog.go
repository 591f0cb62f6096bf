package listings

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
)

const searchCatalogKey = "listings.catalog"

// SearchCatalogQuery describes request filters.
type SearchCatalogQuery struct {
	Location      string
	Amenities     []string
	PropertyTypes []string
	MinGuests     int
	PriceMinCents int64
	PriceMaxCents int64
	FeaturedOnly  bool
	CheckIn       time.Time
	CheckOut      time.Time
	Sort          string
	Limit         int
	Offset        int
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

// SearchCatalogHandler loads listings with applied filters.
type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.ListingCatalog, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	searchParams := domainlistings.SearchParams{
		LocationQuery: q.Location,
		Amenities:     append([]string(nil), q.Amenities...),
		PropertyTypes: append([]string(nil), q.PropertyTypes...),
		MinGuests:     q.MinGuests,
		PriceMinCents: q.PriceMinCents,
		PriceMaxCents: q.PriceMaxCents,
		FeaturedOnly:  q.FeaturedOnly,
		CheckIn:       q.CheckIn,
		CheckOut:      q.CheckOut,
		Sort:          domainlistings.CatalogSort(q.Sort),
		Limit:         q.Limit,
		Offset:        q.Offset,
		OnlyActive:    true,
	}

	result, err := unit.Listings().Search(execCtx, searchParams)
	if err != nil {
		return dto.ListingCatalog{}, err
	}

	return dto.MapCatalog(result, searchParams), nil
}

var _ queries.Handler[SearchCatalogQuery, dto.ListingCatalog] = (*SearchCatalogHandler)(nil)
