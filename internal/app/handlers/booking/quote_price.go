package booking

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainrange "staybook/internal/domain/shared/daterange"
)

const quotePriceKey = "booking.quote_price"

type QuotePriceQuery struct {
	ListingID string
	CheckIn   time.Time
	CheckOut  time.Time
}

func (q QuotePriceQuery) Key() string { return quotePriceKey }

type QuotePriceHandler struct {
	UoWFactory uow.UoWFactory
	FeeBps     int64
}

// Handle prices a prospective stay for display. The same computation runs
// again inside booking creation, where its result is the one persisted.
func (h *QuotePriceHandler) Handle(ctx context.Context, query QuotePriceQuery) (dto.Quote, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	dr, err := domainrange.New(query.CheckIn, query.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(query.ListingID))
	if err != nil {
		return dto.Quote{}, err
	}

	feeBps := h.FeeBps
	if feeBps <= 0 {
		feeBps = domainpricing.DefaultServiceFeeBps
	}
	quote, err := domainpricing.Compute(listing.NightlyRate, dr, feeBps)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(query.ListingID, quote, dr.CheckIn, dr.CheckOut), nil
}

var _ queries.Handler[QuotePriceQuery, dto.Quote] = (*QuotePriceHandler)(nil)
