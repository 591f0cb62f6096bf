package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/money"
)

func validParams() CreateParams {
	return CreateParams{
		ID:           "lst-1",
		Host:         "host-1",
		Title:        "Seaside cottage",
		PropertyType: "House",
		Address: Address{
			Line1:   "1 Beach Road",
			City:    "Brighton",
			Country: "UK",
		},
		GuestsLimit: 4,
		MinNights:   1,
		MaxNights:   14,
		NightlyRate: money.Must(12000, "USD"),
		Now:         time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateParams)
		want   error
	}{
		{"missing title", func(p *CreateParams) { p.Title = "  " }, ErrTitleRequired},
		{"zero guests", func(p *CreateParams) { p.GuestsLimit = 0 }, ErrGuestsLimit},
		{"min above max", func(p *CreateParams) { p.MinNights = 10; p.MaxNights = 3 }, ErrNightsRange},
		{"zero rate", func(p *CreateParams) { p.NightlyRate = money.Must(0, "USD") }, ErrNightlyRate},
		{"negative rate", func(p *CreateParams) { p.NightlyRate = money.Must(-100, "USD") }, ErrNightlyRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			_, err := New(params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNewStartsAsDraft(t *testing.T) {
	listing, err := New(validParams())
	require.NoError(t, err)
	assert.Equal(t, ListingDraft, listing.State)
	assert.False(t, listing.Bookable())
	assert.Len(t, listing.PendingEvents(), 1)
}

func TestPublishAndUnpublish(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	listing, err := New(validParams())
	require.NoError(t, err)

	require.NoError(t, listing.Publish(now))
	assert.Equal(t, ListingActive, listing.State)
	assert.True(t, listing.Bookable())

	// publishing twice is a no-op
	require.NoError(t, listing.Publish(now))

	require.NoError(t, listing.Unpublish(now, "host request"))
	assert.Equal(t, ListingSuspended, listing.State)
	assert.False(t, listing.Bookable())

	assert.ErrorIs(t, listing.Unpublish(now, "again"), ErrInvalidState)
}

func TestPublishRequiresAddress(t *testing.T) {
	params := validParams()
	params.Address = Address{}
	listing, err := New(params)
	require.NoError(t, err)
	assert.ErrorIs(t, listing.Publish(time.Now()), ErrAddressRequired)
}

func TestMaxNightsZeroMeansUnbounded(t *testing.T) {
	params := validParams()
	params.MinNights = 3
	params.MaxNights = 0
	_, err := New(params)
	assert.NoError(t, err)
}

func TestApplyReview(t *testing.T) {
	listing, err := New(validParams())
	require.NoError(t, err)
	now := time.Now()

	listing.ApplyReview(5, now)
	listing.ApplyReview(4, now)
	assert.Equal(t, 2, listing.ReviewCount)
	assert.InDelta(t, 4.5, listing.Rating, 1e-9)
}

func TestAddPhotoSetsThumbnail(t *testing.T) {
	listing, err := New(validParams())
	require.NoError(t, err)
	require.NoError(t, listing.AddPhoto("https://cdn.example/1.jpg", time.Now()))
	require.NoError(t, listing.AddPhoto("https://cdn.example/2.jpg", time.Now()))
	assert.Equal(t, "https://cdn.example/1.jpg", listing.ThumbnailURL)
	assert.Len(t, listing.Photos, 2)
}

func TestSearchParamsNormalized(t *testing.T) {
	params := SearchParams{
		LocationQuery: "  Brighton ",
		Amenities:     []string{"WiFi", "wifi", " Pool "},
		MinGuests:     -1,
		PriceMinCents: 5000,
		PriceMaxCents: 1000,
		Limit:         500,
		Offset:        -2,
		Sort:          CatalogSort("bogus"),
	}
	n := params.Normalized()
	assert.Equal(t, "brighton", n.LocationQuery)
	assert.Equal(t, []string{"wifi", "pool"}, n.Amenities)
	assert.Zero(t, n.MinGuests)
	assert.Zero(t, n.PriceMaxCents, "inverted price band drops the upper bound")
	assert.Equal(t, maxSearchLimit, n.Limit)
	assert.Zero(t, n.Offset)
	assert.Equal(t, SortByPriceAsc, n.Sort)
}
