package me

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainreviews "staybook/internal/domain/reviews"
)

const listGuestBookingsKey = "me.bookings.list"

type ListGuestBookingsQuery struct {
	GuestID string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.GuestBookingCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return dto.GuestBookingCollection{}, errors.New("guest id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.GuestBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(execCtx, guestID)
	if err != nil {
		return dto.GuestBookingCollection{}, err
	}

	listingCache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.GuestBookingSummary, 0, len(bookings))
	for _, bkg := range bookings {
		listing, err := loadListing(execCtx, unit.Listings(), bkg.ListingID, listingCache)
		if err != nil && h.Logger != nil {
			h.Logger.Warn("listing snapshot missing for booking", "booking_id", bkg.ID, "listing_id", bkg.ListingID, "error", err)
		}
		reviewed := false
		if existing, err := unit.Reviews().ByBooking(execCtx, bkg.ID, guestID); err == nil && existing != nil {
			reviewed = true
		} else if err != nil && !errors.Is(err, domainreviews.ErrNotFound) && h.Logger != nil {
			h.Logger.Warn("failed to check review", "booking_id", bkg.ID, "guest_id", guestID, "error", err)
		}
		canReview := bkg.State == domainbooking.StateCompleted && !reviewed
		items = append(items, dto.MapGuestBookingSummary(bkg, listing, reviewed, canReview))
	}

	if h.Logger != nil {
		h.Logger.Debug("guest bookings listed", "guest_id", guestID, "count", len(items))
	}

	return dto.GuestBookingCollection{Items: items}, nil
}

func loadListing(
	ctx context.Context,
	repo domainlistings.Repository,
	id domainlistings.ListingID,
	cache map[domainlistings.ListingID]*domainlistings.Listing,
) (*domainlistings.Listing, error) {
	if listing, ok := cache[id]; ok {
		return listing, nil
	}
	listing, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = listing
	return listing, nil
}

var _ queries.Handler[ListGuestBookingsQuery, dto.GuestBookingCollection] = (*ListGuestBookingsHandler)(nil)
