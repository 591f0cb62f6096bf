package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "staybook/internal/domain/booking"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

func bookStay(t *testing.T, factory memory.Factory, handler *CreateBookingHandler, id string) domainrange.DateRange {
	t.Helper()
	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 3)
	_, err := handler.Handle(context.Background(), createCmd(id, "lst-1", checkIn, checkOut))
	require.NoError(t, err)
	dr, err := domainrange.New(checkIn, checkOut)
	require.NoError(t, err)
	return dr
}

func newStatusHandler(factory memory.Factory) *UpdateStatusHandler {
	return &UpdateStatusHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		Clock:      func() time.Time { return time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC) },
	}
}

func TestHostConfirmsPendingBooking(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	create := newCreateHandler(factory, nil)
	bookStay(t, factory, create, "bkg-1")

	handler := newStatusHandler(factory)
	result, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bkg-1",
		ActorID:   "host-1",
		Requested: "confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateConfirmed), result.Status)
}

func TestGuestCannotConfirm(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	bookStay(t, factory, newCreateHandler(factory, nil), "bkg-1")

	handler := newStatusHandler(factory)
	_, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bkg-1",
		ActorID:   "guest-1",
		Requested: "CONFIRMED",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStrangerCannotTouchBooking(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	bookStay(t, factory, newCreateHandler(factory, nil), "bkg-1")

	handler := newStatusHandler(factory)
	_, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bkg-1",
		ActorID:   "someone-else",
		Requested: "cancelled",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelReleasesCalendar(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	create := newCreateHandler(factory, nil)
	dr := bookStay(t, factory, create, "bkg-1")

	handler := newStatusHandler(factory)
	result, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bkg-1",
		ActorID:   "guest-1",
		Requested: "cancelled",
		Reason:    "plans changed",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCancelled), result.Status)

	cal, err := factory.AvailabilityRepo.Calendar(context.Background(), "lst-1")
	require.NoError(t, err)
	assert.True(t, cal.CanReserve(dr), "cancelled dates must be reservable again")

	// and another guest can actually take them
	cmd := createCmd("bkg-2", "lst-1", dr.CheckIn, dr.CheckOut)
	cmd.GuestID = "guest-2"
	_, err = create.Handle(context.Background(), cmd)
	assert.NoError(t, err)
}

func TestClientCannotRequestCompleted(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	bookStay(t, factory, newCreateHandler(factory, nil), "bkg-1")

	handler := newStatusHandler(factory)
	_, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bkg-1",
		ActorID:   "host-1",
		Requested: "completed",
	})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}

func TestCancelledBookingIsTerminal(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	bookStay(t, factory, newCreateHandler(factory, nil), "bkg-1")

	handler := newStatusHandler(factory)
	ctx := context.Background()
	_, err := handler.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-1", ActorID: "guest-1", Requested: "cancelled"})
	require.NoError(t, err)

	_, err = handler.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-1", ActorID: "host-1", Requested: "confirmed"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}

func TestUnknownStatusRejected(t *testing.T) {
	factory := memory.NewDemoFactory()
	seedListing(t, factory, "lst-1", nil)
	bookStay(t, factory, newCreateHandler(factory, nil), "bkg-1")

	handler := newStatusHandler(factory)
	_, err := handler.Handle(context.Background(), UpdateStatusCommand{
		BookingID: "bkg-1",
		ActorID:   "host-1",
		Requested: "archived",
	})
	assert.ErrorIs(t, err, domainbooking.ErrUnknownState)
}
