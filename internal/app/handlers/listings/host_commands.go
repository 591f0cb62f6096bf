package listings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/money"
	domainuser "staybook/internal/domain/user"
)

const (
	createHostListingKey    = "host.listings.create"
	updateHostListingKey    = "host.listings.update"
	publishHostListingKey   = "host.listings.publish"
	unpublishHostListingKey = "host.listings.unpublish"
)

type HostListingPayload struct {
	Title            string
	Description      string
	PropertyType     string
	Address          domainlistings.Address
	Amenities        []string
	GuestsLimit      int
	MinNights        int
	MaxNights        int
	NightlyRateCents int64
	Currency         string
	InstantBook      bool
	Bedrooms         int
	Bathrooms        int
	ThumbnailURL     string
	Photos           []string
}

func (p HostListingPayload) nightlyRate() (money.Money, error) {
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	return money.New(p.NightlyRateCents, currency)
}

type CreateHostListingCommand struct {
	HostID  string
	Payload HostListingPayload
}

func (c CreateHostListingCommand) Key() string { return createHostListingKey }

type CreateHostListingHandler struct {
	Logger *slog.Logger
}

func (h *CreateHostListingHandler) Handle(ctx context.Context, cmd CreateHostListingCommand) (*dto.HostListingDetail, error) {
	if strings.TrimSpace(cmd.HostID) == "" {
		return nil, errors.New("host id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	rate, err := cmd.Payload.nightlyRate()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:           domainlistings.ListingID(uuid.NewString()),
		Host:         domainlistings.HostID(cmd.HostID),
		Title:        cmd.Payload.Title,
		Description:  cmd.Payload.Description,
		PropertyType: cmd.Payload.PropertyType,
		Address:      cmd.Payload.Address,
		Amenities:    cmd.Payload.Amenities,
		GuestsLimit:  cmd.Payload.GuestsLimit,
		Bedrooms:     cmd.Payload.Bedrooms,
		Bathrooms:    cmd.Payload.Bathrooms,
		MinNights:    cmd.Payload.MinNights,
		MaxNights:    cmd.Payload.MaxNights,
		NightlyRate:  rate,
		InstantBook:  cmd.Payload.InstantBook,
		Photos:       cmd.Payload.Photos,
		ThumbnailURL: cmd.Payload.ThumbnailURL,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	// first listing turns a guest into a host
	if owner, err := unit.Users().ByID(ctx, domainuser.ID(cmd.HostID)); err == nil {
		if err := owner.GrantRole(domainuser.RoleHost, now); err == nil {
			if err := unit.Users().Save(ctx, owner); err != nil {
				return nil, err
			}
		}
	}

	if h.Logger != nil {
		h.Logger.Info("host listing created", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	result := dto.MapHostListingDetail(listing)
	return &result, nil
}

type UpdateHostListingCommand struct {
	HostID    string
	ListingID string
	Payload   HostListingPayload
}

func (c UpdateHostListingCommand) Key() string { return updateHostListingKey }

type UpdateHostListingHandler struct {
	Logger *slog.Logger
}

func (h *UpdateHostListingHandler) Handle(ctx context.Context, cmd UpdateHostListingCommand) (*dto.HostListingDetail, error) {
	listing, unit, err := ownedListing(ctx, cmd.HostID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	rate, err := cmd.Payload.nightlyRate()
	if err != nil {
		return nil, err
	}
	if err := listing.Update(domainlistings.UpdateParams{
		Title:        cmd.Payload.Title,
		Description:  cmd.Payload.Description,
		PropertyType: cmd.Payload.PropertyType,
		Address:      cmd.Payload.Address,
		Amenities:    cmd.Payload.Amenities,
		GuestsLimit:  cmd.Payload.GuestsLimit,
		Bedrooms:     cmd.Payload.Bedrooms,
		Bathrooms:    cmd.Payload.Bathrooms,
		MinNights:    cmd.Payload.MinNights,
		MaxNights:    cmd.Payload.MaxNights,
		NightlyRate:  rate,
		InstantBook:  cmd.Payload.InstantBook,
		ThumbnailURL: cmd.Payload.ThumbnailURL,
		Now:          time.Now(),
	}); err != nil {
		return nil, err
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host listing updated", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	result := dto.MapHostListingDetail(listing)
	return &result, nil
}

type PublishHostListingCommand struct {
	HostID    string
	ListingID string
}

func (c PublishHostListingCommand) Key() string { return publishHostListingKey }

type PublishHostListingHandler struct {
	Logger *slog.Logger
}

func (h *PublishHostListingHandler) Handle(ctx context.Context, cmd PublishHostListingCommand) (*dto.HostListingDetail, error) {
	listing, unit, err := ownedListing(ctx, cmd.HostID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	if err := listing.Publish(time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host listing published", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	result := dto.MapHostListingDetail(listing)
	return &result, nil
}

type UnpublishHostListingCommand struct {
	HostID    string
	ListingID string
}

func (c UnpublishHostListingCommand) Key() string { return unpublishHostListingKey }

type UnpublishHostListingHandler struct {
	Logger *slog.Logger
}

func (h *UnpublishHostListingHandler) Handle(ctx context.Context, cmd UnpublishHostListingCommand) (*dto.HostListingDetail, error) {
	listing, unit, err := ownedListing(ctx, cmd.HostID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	if err := listing.Unpublish(time.Now(), "host-request"); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host listing unpublished", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	result := dto.MapHostListingDetail(listing)
	return &result, nil
}

func ownedListing(ctx context.Context, hostID, listingID string) (*domainlistings.Listing, uow.UnitOfWork, error) {
	if strings.TrimSpace(hostID) == "" {
		return nil, nil, errors.New("host id is required")
	}
	if strings.TrimSpace(listingID) == "" {
		return nil, nil, errors.New("listing id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, nil, uow.ErrUnitOfWorkMissing
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, nil, err
	}
	if listing.Host != domainlistings.HostID(hostID) {
		return nil, nil, ErrListingNotOwned
	}
	return listing, unit, nil
}

var (
	_ commands.Handler[CreateHostListingCommand, *dto.HostListingDetail]    = (*CreateHostListingHandler)(nil)
	_ commands.Handler[UpdateHostListingCommand, *dto.HostListingDetail]    = (*UpdateHostListingHandler)(nil)
	_ commands.Handler[PublishHostListingCommand, *dto.HostListingDetail]   = (*PublishHostListingHandler)(nil)
	_ commands.Handler[UnpublishHostListingCommand, *dto.HostListingDetail] = (*UnpublishHostListingHandler)(nil)
)
