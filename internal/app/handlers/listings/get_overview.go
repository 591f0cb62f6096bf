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

const getOverviewKey = "listings.overview"

// GetOverviewQuery loads a listing with availability metadata.
type GetOverviewQuery struct {
	ListingID string
	From      time.Time
	To        time.Time
}

func (q GetOverviewQuery) Key() string { return getOverviewKey }

type GetOverviewHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetOverviewHandler) Handle(ctx context.Context, q GetOverviewQuery) (dto.ListingOverview, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingOverview{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingOverview{}, err
	}

	calendar, err := unit.Availability().Calendar(execCtx, listing.ID)
	if err != nil {
		return dto.ListingOverview{}, err
	}

	return dto.MapListingOverview(listing, calendar, q.From, q.To), nil
}

var _ queries.Handler[GetOverviewQuery, dto.ListingOverview] = (*GetOverviewHandler)(nil)
