package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

func mustRange(t *testing.T, checkIn time.Time, nights int) domainrange.DateRange {
	t.Helper()
	dr, err := domainrange.New(checkIn, checkIn.AddDate(0, 0, nights))
	require.NoError(t, err)
	return dr
}

func TestAvailabilitySaveBumpsVersion(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	cal, err := repo.Calendar(ctx, "lst-1")
	require.NoError(t, err)
	assert.Zero(t, cal.Version)

	require.NoError(t, cal.Reserve(mustRange(t, now, 3), "bkg-1", now))
	require.NoError(t, repo.Save(ctx, cal))
	assert.Equal(t, int64(1), cal.Version)

	stored, err := repo.Calendar(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	require.Len(t, stored.Blocks, 1)
	assert.Equal(t, "bkg-1", stored.Blocks[0].Reference)
}

func TestAvailabilityStaleSaveConflicts(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	first, err := repo.Calendar(ctx, "lst-1")
	require.NoError(t, err)
	second, err := repo.Calendar(ctx, "lst-1")
	require.NoError(t, err)

	require.NoError(t, first.Reserve(mustRange(t, now, 3), "bkg-1", now))
	require.NoError(t, repo.Save(ctx, first))

	// second still carries version 0 and must lose
	require.NoError(t, second.Reserve(mustRange(t, now.AddDate(0, 0, 10), 2), "bkg-2", now))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, domainavailability.ErrVersionConflict)

	// after a re-read the same change goes through
	fresh, err := repo.Calendar(ctx, "lst-1")
	require.NoError(t, err)
	require.NoError(t, fresh.Reserve(mustRange(t, now.AddDate(0, 0, 10), 2), "bkg-2", now))
	assert.NoError(t, repo.Save(ctx, fresh))
}

func TestCalendarCopiesAreIsolated(t *testing.T) {
	repo := NewAvailabilityRepository()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	cal, err := repo.Calendar(ctx, "lst-1")
	require.NoError(t, err)
	require.NoError(t, cal.Reserve(mustRange(t, now, 3), "bkg-1", now))
	require.NoError(t, repo.Save(ctx, cal))

	// mutating a read copy must not leak into the store
	copyCal, err := repo.Calendar(ctx, "lst-1")
	require.NoError(t, err)
	require.NoError(t, copyCal.Release("bkg-1", now))

	stored, err := repo.Calendar(ctx, "lst-1")
	require.NoError(t, err)
	assert.Len(t, stored.Blocks, 1)
}

func seedSearchListing(t *testing.T, repo *ListingRepository, id, city string, rateCents int64, mutate func(*domainlistings.Listing)) {
	t.Helper()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(id),
		Host:        "host-1",
		Title:       "Place in " + city,
		Address:     domainlistings.Address{Line1: "1 Main St", City: city, Country: "USA"},
		GuestsLimit: 4,
		MinNights:   1,
		NightlyRate: money.Must(rateCents, "USD"),
		Now:         now,
	})
	require.NoError(t, err)
	require.NoError(t, listing.Publish(now))
	if mutate != nil {
		mutate(listing)
	}
	listing.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), listing))
}

func TestListingSearchFilters(t *testing.T) {
	repo := NewListingRepository()
	ctx := context.Background()

	seedSearchListing(t, repo, "lst-tahoe", "Tahoe City", 10000, func(l *domainlistings.Listing) {
		l.Amenities = []string{"WiFi", "Hot Tub"}
		l.PropertyType = "cabin"
	})
	seedSearchListing(t, repo, "lst-denver", "Denver", 22000, func(l *domainlistings.Listing) {
		l.Amenities = []string{"wifi"}
		l.PropertyType = "apartment"
		l.Featured = true
	})
	seedSearchListing(t, repo, "lst-draft", "Denver", 5000, func(l *domainlistings.Listing) {
		l.State = domainlistings.ListingDraft
	})

	t.Run("only active", func(t *testing.T) {
		result, err := repo.Search(ctx, domainlistings.SearchParams{OnlyActive: true})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
	})

	t.Run("location is case insensitive", func(t *testing.T) {
		result, err := repo.Search(ctx, domainlistings.SearchParams{OnlyActive: true, LocationQuery: "tahoe"})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, domainlistings.ListingID("lst-tahoe"), result.Items[0].ID)
	})

	t.Run("amenities require every token", func(t *testing.T) {
		result, err := repo.Search(ctx, domainlistings.SearchParams{OnlyActive: true, Amenities: []string{"wifi", "hot tub"}})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, domainlistings.ListingID("lst-tahoe"), result.Items[0].ID)
	})

	t.Run("price ceiling", func(t *testing.T) {
		result, err := repo.Search(ctx, domainlistings.SearchParams{OnlyActive: true, PriceMaxCents: 15000})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, domainlistings.ListingID("lst-tahoe"), result.Items[0].ID)
	})

	t.Run("featured only", func(t *testing.T) {
		result, err := repo.Search(ctx, domainlistings.SearchParams{OnlyActive: true, FeaturedOnly: true})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, domainlistings.ListingID("lst-denver"), result.Items[0].ID)
	})

	t.Run("price sort descending", func(t *testing.T) {
		result, err := repo.Search(ctx, domainlistings.SearchParams{OnlyActive: true, Sort: domainlistings.SortByPriceDesc})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Equal(t, domainlistings.ListingID("lst-denver"), result.Items[0].ID)
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		result, err := repo.Search(ctx, domainlistings.SearchParams{OnlyActive: true, Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Len(t, result.Items, 1)
	})
}

func TestBookingByIDReturnsCopy(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	dr := mustRange(t, now.AddDate(0, 0, 9), 3)

	quote, err := domainpricing.Compute(money.Must(10000, "USD"), dr, 1200)
	require.NoError(t, err)
	bkg, err := domainbooking.New(domainbooking.CreateParams{
		ID:        "bkg-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		Range:     dr,
		Guests:    2,
		Price:     quote,
		CreatedAt: now,
	})
	require.NoError(t, err)
	bkg.ClearEvents()
	require.NoError(t, repo.Insert(ctx, bkg))

	// a handler that mutates the aggregate and then bails must not dirty
	// the store; only Save publishes changes
	loaded, err := repo.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	loaded.State = domainbooking.StateCancelled

	again, err := repo.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatePending, again.State)
}
