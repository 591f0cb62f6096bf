package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/infra/storage/memory"
)

func TestCompleteStaysSweep(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	create := newCreateHandler(factory, nil)
	ctx := context.Background()

	// one stay ending June 13, one ending July 1
	early := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	_, err := create.Handle(ctx, createCmd("bkg-early", "lst-1", early, early.AddDate(0, 0, 3)))
	require.NoError(t, err)
	cmd := createCmd("bkg-late", "lst-1", late, late.AddDate(0, 0, 3))
	cmd.GuestID = "guest-2"
	_, err = create.Handle(ctx, cmd)
	require.NoError(t, err)

	status := newStatusHandler(factory)
	for _, id := range []string{"bkg-early", "bkg-late"} {
		_, err := status.Handle(ctx, UpdateStatusCommand{BookingID: id, ActorID: "host-1", Requested: "confirmed"})
		require.NoError(t, err)
	}

	sweep := &CompleteStaysHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}

	// sweep between the two checkouts
	result, err := sweep.Handle(ctx, CompleteStaysCommand{Now: time.Date(2024, 6, 20, 3, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)

	earlyBkg, err := factory.BookingRepo.ByID(ctx, "bkg-early")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCompleted, earlyBkg.State)

	lateBkg, err := factory.BookingRepo.ByID(ctx, "bkg-late")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateConfirmed, lateBkg.State)

	// re-running the same sweep finds nothing new
	result, err = sweep.Handle(ctx, CompleteStaysCommand{Now: time.Date(2024, 6, 20, 4, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Zero(t, result.Completed)

	// later sweep picks up the second stay
	result, err = sweep.Handle(ctx, CompleteStaysCommand{Now: time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)
}

func TestCompleteStaysSkipsPending(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	create := newCreateHandler(factory, nil)
	ctx := context.Background()

	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	_, err := create.Handle(ctx, createCmd("bkg-1", "lst-1", checkIn, checkIn.AddDate(0, 0, 2)))
	require.NoError(t, err)

	sweep := &CompleteStaysHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	result, err := sweep.Handle(ctx, CompleteStaysCommand{Now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Zero(t, result.Completed, "pending requests never auto-complete")

	bkg, err := factory.BookingRepo.ByID(ctx, "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatePending, bkg.State)
}
