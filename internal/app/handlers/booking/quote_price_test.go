package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

func TestQuotePrice(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	handler := &QuotePriceHandler{UoWFactory: factory}

	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	quote, err := handler.Handle(context.Background(), QuotePriceQuery{
		ListingID: "lst-1",
		CheckIn:   checkIn,
		CheckOut:  checkIn.AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, int64(30000), quote.Subtotal.Amount)
	assert.Equal(t, int64(3600), quote.ServiceFee.Amount)
	assert.Equal(t, int64(33600), quote.Total.Amount)
}

func TestQuotePriceCustomFee(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	handler := &QuotePriceHandler{UoWFactory: factory, FeeBps: 500}

	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	quote, err := handler.Handle(context.Background(), QuotePriceQuery{
		ListingID: "lst-1",
		CheckIn:   checkIn,
		CheckOut:  checkIn.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), quote.ServiceFee.Amount)
}

func TestQuotePriceErrors(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	handler := &QuotePriceHandler{UoWFactory: factory}
	ctx := context.Background()
	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	_, err := handler.Handle(ctx, QuotePriceQuery{ListingID: "missing", CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 2)})
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)

	_, err = handler.Handle(ctx, QuotePriceQuery{ListingID: "lst-1", CheckIn: checkIn, CheckOut: checkIn})
	assert.ErrorIs(t, err, domainrange.ErrInvalidRange)
}
