package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
)

const (
	listHostBookingsKey    = "host.bookings.list"
	defaultHostListLimit   = 60
	allStatusesFilterValue = "ALL"
)

var ErrBookingNotOwned = errors.New("booking: not owned by host")

// ListHostBookingsQuery backs the host inbox. Status defaults to PENDING so
// hosts land on the requests waiting for a decision; "ALL" lifts the filter.
type ListHostBookingsQuery struct {
	HostID string
	Status string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.HostBookingCollection, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.HostBookingCollection{}, errors.New("host id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listingsResult, err := unit.Listings().Search(execCtx, domainlistings.SearchParams{
		Host:  domainlistings.HostID(hostID),
		Limit: defaultHostListLimit,
	})
	if err != nil {
		return dto.HostBookingCollection{}, err
	}

	statusFilter := strings.ToUpper(strings.TrimSpace(q.Status))
	if statusFilter == "" {
		statusFilter = string(domainbooking.StatePending)
	}
	allStatuses := statusFilter == allStatusesFilterValue

	items := make([]dto.HostBookingSummary, 0)
	for _, listing := range listingsResult.Items {
		bookings, err := unit.Bookings().ListByListing(execCtx, listing.ID)
		if err != nil {
			return dto.HostBookingCollection{}, err
		}
		for _, bkg := range bookings {
			if !allStatuses && string(bkg.State) != statusFilter {
				continue
			}
			items = append(items, dto.MapHostBookingSummary(bkg, listing))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if h.Logger != nil {
		h.Logger.Debug("host bookings listed", "host_id", hostID, "count", len(items), "status", statusFilter)
	}

	return dto.HostBookingCollection{Items: items}, nil
}

var _ queries.Handler[ListHostBookingsQuery, dto.HostBookingCollection] = (*ListHostBookingsHandler)(nil)
