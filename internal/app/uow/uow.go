package uow

import (
	"context"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainreviews "staybook/internal/domain/reviews"
	domainuser "staybook/internal/domain/user"
)

// UnitOfWork coordinates repositories inside one transaction boundary.
// Handlers pull it from context; the transaction middleware owns its
// lifecycle.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Availability() domainavailability.Repository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository
	Users() domainuser.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
