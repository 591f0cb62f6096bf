package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/events"
)

var (
	ErrInvalidRating     = errors.New("reviews: rating must be between 1 and 5")
	ErrNotFound          = errors.New("reviews: not found")
	ErrAlreadyReviewed   = errors.New("reviews: booking already reviewed")
	ErrStayNotReviewable = errors.New("reviews: only completed stays can be reviewed")
)

type ReviewID string

type Review struct {
	ID        ReviewID
	BookingID booking.BookingID
	AuthorID  string
	ListingID listings.ListingID
	Rating    int
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	// ByBooking returns the author's review of the booking, ErrNotFound if
	// none exists yet. One review per booking per author.
	ByBooking(ctx context.Context, bookingID booking.BookingID, authorID string) (*Review, error)
	ListByListing(ctx context.Context, listingID listings.ListingID, limit, offset int) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID        ReviewID
	Booking   *booking.Booking
	AuthorID  string
	Rating    int
	Text      string
	CreatedAt time.Time
}

// Submit creates a review for a completed stay. Only the guest who stayed
// may review, and only after the booking reached COMPLETED.
func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if params.Booking == nil || params.Booking.State != booking.StateCompleted {
		return nil, ErrStayNotReviewable
	}
	if params.Booking.GuestID != params.AuthorID {
		return nil, ErrStayNotReviewable
	}
	now := params.CreatedAt.UTC()
	review := &Review{
		ID:        params.ID,
		BookingID: params.Booking.ID,
		AuthorID:  params.AuthorID,
		ListingID: params.Booking.ListingID,
		Rating:    params.Rating,
		Text:      strings.TrimSpace(params.Text),
		CreatedAt: now,
		UpdatedAt: now,
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, BookingID: review.BookingID, ListingID: review.ListingID, Rating: review.Rating, At: now})
	return review, nil
}

func (r *Review) Update(rating int, text string, now time.Time) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	r.Rating = rating
	r.Text = strings.TrimSpace(text)
	r.UpdatedAt = now.UTC()
	r.Record(ReviewUpdated{ReviewID: r.ID, At: r.UpdatedAt})
	return nil
}
