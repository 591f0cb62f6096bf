package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainreviews "staybook/internal/domain/reviews"
	domainuser "staybook/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo sessions into the generic UnitOfWork interface.
// Repositories are shared; isolation comes from the session bound to the
// context via InjectContext.
type Factory struct {
	DB *mongo.Database

	ListingsRepo     domainlistings.Repository
	AvailabilityRepo domainavailability.Repository
	BookingRepo      domainbooking.Repository
	ReviewsRepo      domainreviews.Repository
	UsersRepo        domainuser.Repository
}

func NewFactory(db *mongo.Database) *Factory {
	return &Factory{
		DB:               db,
		ListingsRepo:     NewListingRepository(db),
		AvailabilityRepo: NewCalendarRepository(db),
		BookingRepo:      NewBookingRepository(db),
		ReviewsRepo:      NewReviewRepository(db),
		UsersRepo:        NewUserRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(f.DB.ReadConcern()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:      session,
		listings:     f.ListingsRepo,
		availability: f.AvailabilityRepo,
		bookings:     f.BookingRepo,
		reviews:      f.ReviewsRepo,
		users:        f.UsersRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	listings     domainlistings.Repository
	availability domainavailability.Repository
	bookings     domainbooking.Repository
	reviews      domainreviews.Repository
	users        domainuser.Repository
}

func (u *Unit) Listings() domainlistings.Repository {
	return u.listings
}

func (u *Unit) Availability() domainavailability.Repository {
	return u.availability
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Reviews() domainreviews.Repository {
	return u.reviews
}

func (u *Unit) Users() domainuser.Repository {
	return u.users
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories running inside
// this unit, so their reads and writes join the transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
