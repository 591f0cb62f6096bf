package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/storage/memory"
)

type countingMetrics struct {
	mu        sync.Mutex
	created   int
	conflicts int
}

func (m *countingMetrics) BookingCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *countingMetrics) BookingConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func seedListing(t *testing.T, factory memory.Factory, id string, mutate func(*domainlistings.Listing)) *domainlistings.Listing {
	t.Helper()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(id),
		Host:        "host-1",
		Title:       "Cabin by the lake",
		Address:     domainlistings.Address{Line1: "1 Shore Rd", City: "Tahoe City", Country: "USA"},
		GuestsLimit: 4,
		MinNights:   1,
		NightlyRate: money.Must(10000, "USD"),
		Now:         now,
	})
	require.NoError(t, err)
	require.NoError(t, listing.Publish(now))
	if mutate != nil {
		mutate(listing)
	}
	listing.ClearEvents()
	require.NoError(t, factory.ListingsRepo.Save(context.Background(), listing))
	return listing
}

func newCreateHandler(factory memory.Factory, metrics Metrics) *CreateBookingHandler {
	return &CreateBookingHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		Metrics:    metrics,
		Clock:      func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func createCmd(id, listingID string, checkIn, checkOut time.Time) CreateBookingCommand {
	return CreateBookingCommand{
		CommandID: id,
		ListingID: listingID,
		GuestID:   "guest-1",
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    2,
	}
}

func TestCreateBookingPricesServerSide(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	metrics := &countingMetrics{}
	handler := newCreateHandler(factory, metrics)

	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	result, err := handler.Handle(context.Background(), createCmd("bkg-1", "lst-1", checkIn, checkIn.AddDate(0, 0, 3)))
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.StatePending), result.Status)
	assert.Equal(t, 3, result.Nights)
	assert.Equal(t, int64(30000), result.SubtotalCents)
	assert.Equal(t, int64(3600), result.ServiceFeeCents)
	assert.Equal(t, int64(33600), result.TotalCents)
	assert.Equal(t, "USD", result.Currency)
	assert.Equal(t, 1, metrics.created)

	stored, err := factory.BookingRepo.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatePending, stored.State)
}

func TestCreateBookingInstantBookConfirms(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", func(l *domainlistings.Listing) { l.InstantBook = true })
	handler := newCreateHandler(factory, nil)

	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	result, err := handler.Handle(context.Background(), createCmd("bkg-1", "lst-1", checkIn, checkIn.AddDate(0, 0, 2)))
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateConfirmed), result.Status)
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	metrics := &countingMetrics{}
	handler := newCreateHandler(factory, metrics)
	ctx := context.Background()

	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	_, err := handler.Handle(ctx, createCmd("bkg-1", "lst-1", checkIn, checkIn.AddDate(0, 0, 5)))
	require.NoError(t, err)

	// overlapping request loses
	_, err = handler.Handle(ctx, createCmd("bkg-2", "lst-1", checkIn.AddDate(0, 0, 2), checkIn.AddDate(0, 0, 7)))
	assert.ErrorIs(t, err, domainbooking.ErrDatesUnavailable)
	assert.Equal(t, 1, metrics.conflicts)

	// back-to-back is fine: checkout day equals the next check-in
	_, err = handler.Handle(ctx, createCmd("bkg-3", "lst-1", checkIn.AddDate(0, 0, 5), checkIn.AddDate(0, 0, 8)))
	assert.NoError(t, err)
}

func TestCreateBookingValidation(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	handler := newCreateHandler(factory, nil)
	ctx := context.Background()
	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	t.Run("unknown listing", func(t *testing.T) {
		_, err := handler.Handle(ctx, createCmd("b1", "lst-missing", checkIn, checkIn.AddDate(0, 0, 2)))
		assert.ErrorIs(t, err, domainlistings.ErrNotFound)
	})

	t.Run("check-in in the past", func(t *testing.T) {
		past := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
		_, err := handler.Handle(ctx, createCmd("b2", "lst-1", past, past.AddDate(0, 0, 2)))
		assert.ErrorIs(t, err, domainbooking.ErrCheckInInPast)
	})

	t.Run("too many guests", func(t *testing.T) {
		cmd := createCmd("b3", "lst-1", checkIn, checkIn.AddDate(0, 0, 2))
		cmd.Guests = 9
		_, err := handler.Handle(ctx, cmd)
		assert.ErrorIs(t, err, domainbooking.ErrGuestsExceedLimit)
	})

	t.Run("draft listing not bookable", func(t *testing.T) {
		draft, err := domainlistings.New(domainlistings.CreateParams{
			ID:          "lst-draft",
			Host:        "host-1",
			Title:       "Unfinished",
			GuestsLimit: 2,
			NightlyRate: money.Must(5000, "USD"),
			Now:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.NoError(t, factory.ListingsRepo.Save(ctx, draft))

		_, err = handler.Handle(ctx, createCmd("b4", "lst-draft", checkIn, checkIn.AddDate(0, 0, 2)))
		assert.ErrorIs(t, err, domainlistings.ErrNotBookable)
	})
}

func TestCreateBookingConcurrentRequestsSingleWinner(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	handler := newCreateHandler(factory, &countingMetrics{})

	const racers = 8
	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cmd := createCmd(fmt.Sprintf("bkg-%d", n), "lst-1", checkIn, checkIn.AddDate(0, 0, 3))
			cmd.GuestID = fmt.Sprintf("guest-%d", n)
			_, err := handler.Handle(context.Background(), cmd)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, domainbooking.ErrDatesUnavailable)
		}
	}
	assert.Equal(t, 1, won, "exactly one racer may hold the dates")
}

type refusingCommitUnit struct {
	uow.UnitOfWork
}

func (refusingCommitUnit) Commit(ctx context.Context) error {
	return errors.New("commit refused")
}

type refusingCommitFactory struct {
	inner memory.Factory
}

func (f refusingCommitFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return refusingCommitUnit{unit}, nil
}

func TestCreateBookingMetricsWaitForCommit(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	metrics := &countingMetrics{}
	handler := newCreateHandler(factory, metrics)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, CreateBookingCommand{}.Key(), handler)
	ctx := context.Background()
	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	// transaction middleware owns the commit and refuses it
	failing := middleware.ChainCommands(bus, middleware.Transaction(refusingCommitFactory{inner: factory}, nil))
	_, err := failing.Dispatch(ctx, createCmd("bkg-1", "lst-1", checkIn, checkIn.AddDate(0, 0, 3)))
	require.Error(t, err)
	assert.Zero(t, metrics.created, "a booking that never committed must not be counted")

	// a committing transaction counts exactly once
	good := middleware.ChainCommands(bus, middleware.Transaction(factory, nil))
	_, err = good.Dispatch(ctx, createCmd("bkg-2", "lst-1", checkIn.AddDate(0, 0, 10), checkIn.AddDate(0, 0, 13)))
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.created)
}
