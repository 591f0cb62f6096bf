package memory

import (
	"context"
	"errors"

	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainreviews "staybook/internal/domain/reviews"
	domainuser "staybook/internal/domain/user"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo     domainlistings.Repository
	AvailabilityRepo domainavailability.Repository
	BookingRepo      domainbooking.Repository
	ReviewsRepo      domainreviews.Repository
	UsersRepo        domainuser.Repository
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. The memory stores offer
// no isolation; the booking handler compensates calendar holds itself when
// a later write fails.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.AvailabilityRepo == nil || f.BookingRepo == nil || f.ReviewsRepo == nil || f.UsersRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings:     f.ListingsRepo,
		availability: f.AvailabilityRepo,
		bookings:     f.BookingRepo,
		reviews:      f.ReviewsRepo,
		users:        f.UsersRepo,
	}, nil
}

// NewDemoFactory builds a factory over fresh in-memory stores.
func NewDemoFactory() Factory {
	return Factory{
		ListingsRepo:     NewListingRepository(),
		AvailabilityRepo: NewAvailabilityRepository(),
		BookingRepo:      NewBookingRepository(),
		ReviewsRepo:      NewReviewsRepository(),
		UsersRepo:        NewUserRepository(),
	}
}

type Unit struct {
	listings     domainlistings.Repository
	availability domainavailability.Repository
	bookings     domainbooking.Repository
	reviews      domainreviews.Repository
	users        domainuser.Repository
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }

func (u *Unit) Availability() domainavailability.Repository { return u.availability }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Reviews() domainreviews.Repository { return u.reviews }

func (u *Unit) Users() domainuser.Repository { return u.users }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }
