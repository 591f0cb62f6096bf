package ginserver

import (
	"errors"
	"net/http"

	bookingapp "staybook/internal/app/handlers/booking"
	listingapp "staybook/internal/app/handlers/listings"
	reviewsapp "staybook/internal/app/handlers/reviews"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainreviews "staybook/internal/domain/reviews"
	domainrange "staybook/internal/domain/shared/daterange"
	domainuser "staybook/internal/domain/user"
)

// statusForError maps domain and handler sentinels onto HTTP codes. Anything
// unrecognized is a 500 and gets logged by the caller.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainreviews.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound),
		errors.Is(err, listingapp.ErrListingNotOwned),
		errors.Is(err, reviewsapp.ErrListingNotFound):
		return http.StatusNotFound

	case errors.Is(err, domainbooking.ErrDatesUnavailable),
		errors.Is(err, domainavailability.ErrOverlappingRange),
		errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainreviews.ErrAlreadyReviewed),
		errors.Is(err, reviewsapp.ErrDuplicateReview),
		errors.Is(err, domainuser.ErrEmailAlreadyUsed):
		return http.StatusConflict

	case errors.Is(err, bookingapp.ErrForbidden),
		errors.Is(err, bookingapp.ErrBookingNotOwned),
		errors.Is(err, reviewsapp.ErrBookingOwnership),
		errors.Is(err, reviewsapp.ErrReviewOwnership):
		return http.StatusForbidden

	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrCheckInInPast),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrGuestsExceedLimit),
		errors.Is(err, domainbooking.ErrStayTooShort),
		errors.Is(err, domainbooking.ErrStayTooLong),
		errors.Is(err, domainbooking.ErrUnknownState),
		errors.Is(err, domainlistings.ErrNotBookable),
		errors.Is(err, domainreviews.ErrInvalidRating),
		errors.Is(err, domainreviews.ErrStayNotReviewable),
		errors.Is(err, reviewsapp.ErrStayNotFinished),
		errors.Is(err, domainpricing.ErrNightlyRate),
		errors.Is(err, domainpricing.ErrCurrencyUnset):
		return http.StatusBadRequest

	case errors.Is(err, uow.ErrUnitOfWorkMissing),
		errors.Is(err, bookingapp.ErrUnitOfWorkRequired):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
