package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainreviews "staybook/internal/domain/reviews"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
)

// ListingRepository is an in-memory implementation for demo and test runs.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.Version++
	r.items[listing.ID] = listing
	return nil
}

// Search filters and sorts in memory. Fine for the catalog sizes a demo
// deployment sees; mongo does the heavy lifting in production.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		select {
		case <-ctx.Done():
			return domainlistings.SearchResult{}, ctx.Err()
		default:
		}

		if opts.OnlyActive && listing.State != domainlistings.ListingActive {
			continue
		}
		if opts.Host != "" && listing.Host != opts.Host {
			continue
		}
		if len(opts.States) > 0 && !stateIncluded(listing.State, opts.States) {
			continue
		}
		if opts.LocationQuery != "" && !matchLocation(listing, opts.LocationQuery) {
			continue
		}
		if opts.MinGuests > 0 && listing.GuestsLimit < opts.MinGuests {
			continue
		}
		if opts.PriceMinCents > 0 && listing.NightlyRate.Amount < opts.PriceMinCents {
			continue
		}
		if opts.PriceMaxCents > 0 && listing.NightlyRate.Amount > opts.PriceMaxCents {
			continue
		}
		if opts.FeaturedOnly && !listing.Featured {
			continue
		}
		if !tokensMatch(listing.Amenities, opts.Amenities) {
			continue
		}
		if len(opts.PropertyTypes) > 0 && !propertyTypeMatches(listing.PropertyType, opts.PropertyTypes) {
			continue
		}
		matches = append(matches, listing)
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch opts.Sort {
		case domainlistings.SortByPriceDesc:
			if a.NightlyRate.Amount == b.NightlyRate.Amount {
				return a.Rating > b.Rating
			}
			return a.NightlyRate.Amount > b.NightlyRate.Amount
		case domainlistings.SortByRating:
			if a.Rating == b.Rating {
				return a.NightlyRate.Amount < b.NightlyRate.Amount
			}
			return a.Rating > b.Rating
		case domainlistings.SortByNewest:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.NightlyRate.Amount < b.NightlyRate.Amount
			}
			return a.CreatedAt.After(b.CreatedAt)
		default:
			if a.NightlyRate.Amount == b.NightlyRate.Amount {
				return a.Rating > b.Rating
			}
			return a.NightlyRate.Amount < b.NightlyRate.Amount
		}
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return domainlistings.SearchResult{
		Items: matches[start:end],
		Total: total,
	}, nil
}

func tokensMatch(values []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(values) == 0 {
		return false
	}
	index := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(strings.ToLower(value))
		if value == "" {
			continue
		}
		index[value] = struct{}{}
	}
	for _, token := range required {
		if _, ok := index[token]; !ok {
			return false
		}
	}
	return true
}

func matchLocation(listing *domainlistings.Listing, needle string) bool {
	full := strings.ToLower(strings.Join([]string{
		listing.Address.City,
		listing.Address.Region,
		listing.Address.Country,
		listing.Address.Line1,
		listing.Title,
	}, " "))
	return strings.Contains(full, needle)
}

func propertyTypeMatches(value string, allowed []string) bool {
	current := strings.TrimSpace(strings.ToLower(value))
	if current == "" {
		return false
	}
	for _, option := range allowed {
		if current == option {
			return true
		}
	}
	return false
}

func stateIncluded(state domainlistings.ListingState, allowed []domainlistings.ListingState) bool {
	for _, candidate := range allowed {
		if state == candidate {
			return true
		}
	}
	return false
}

// AvailabilityRepository keeps calendars in memory with real optimistic
// version checks, so the booking retry loop behaves the same way it does
// against mongo.
type AvailabilityRepository struct {
	mu        sync.Mutex
	calendars map[domainlistings.ListingID]*domainavailability.Calendar
}

func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{
		calendars: make(map[domainlistings.ListingID]*domainavailability.Calendar),
	}
}

// Calendar returns a copy; mutations only land through Save.
func (r *AvailabilityRepository) Calendar(ctx context.Context, id domainlistings.ListingID) (*domainavailability.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.calendars[id]
	if !ok {
		return domainavailability.NewCalendar(id), nil
	}
	return cloneCalendar(stored), nil
}

func (r *AvailabilityRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.calendars[calendar.ListingID]
	if ok && stored.Version != calendar.Version {
		return domainavailability.ErrVersionConflict
	}
	if !ok && calendar.Version != 0 {
		return domainavailability.ErrVersionConflict
	}
	snapshot := cloneCalendar(calendar)
	snapshot.Version = calendar.Version + 1
	r.calendars[calendar.ListingID] = snapshot
	calendar.Version = snapshot.Version
	return nil
}

func cloneCalendar(src *domainavailability.Calendar) *domainavailability.Calendar {
	copyCal := &domainavailability.Calendar{
		ListingID: src.ListingID,
		Blocks:    append([]domainavailability.Block(nil), src.Blocks...),
		Version:   src.Version,
	}
	return copyCal
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID returns a copy; mutations only land through Save. A handler that
// changes the aggregate and then fails never dirties the store.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(booking), nil
}

func cloneBooking(src *domainbooking.Booking) *domainbooking.Booking {
	copyBkg := *src
	copyBkg.EventRecorder = events.EventRecorder{}
	return &copyBkg
}

func (r *BookingRepository) Insert(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[booking.ID]; exists {
		return errors.New("memory: booking id already exists")
	}
	booking.Version = 1
	r.items[booking.ID] = booking
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = booking
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(guestID)
	if id == "" {
		return nil, errors.New("memory: guest id required")
	}
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.GuestID == id {
			matches = append(matches, booking)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.ListingID == listingID {
			matches = append(matches, booking)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) FindOverlapping(
	ctx context.Context,
	listingID domainlistings.ListingID,
	dr domainrange.DateRange,
	states []domainbooking.State,
) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.ListingID != listingID {
			continue
		}
		if !stateMatches(booking.State, states) {
			continue
		}
		if booking.Range.Overlaps(dr) {
			matches = append(matches, booking)
		}
	}
	return matches, nil
}

func (r *BookingRepository) DueForCompletion(ctx context.Context, before time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.State != domainbooking.StateConfirmed {
			continue
		}
		if booking.Range.EndedBefore(before) {
			matches = append(matches, cloneBooking(booking))
		}
	}
	return matches, nil
}

func stateMatches(state domainbooking.State, allowed []domainbooking.State) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if state == candidate {
			return true
		}
	}
	return false
}

// ReviewsRepository is a lightweight in-memory review store.
type ReviewsRepository struct {
	mu       sync.RWMutex
	byID     map[domainreviews.ReviewID]*domainreviews.Review
	byTarget map[string]*domainreviews.Review
}

func NewReviewsRepository() *ReviewsRepository {
	return &ReviewsRepository{
		byID:     make(map[domainreviews.ReviewID]*domainreviews.Review),
		byTarget: make(map[string]*domainreviews.Review),
	}
}

func (r *ReviewsRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if review, ok := r.byID[id]; ok {
		return review, nil
	}
	return nil, domainreviews.ErrNotFound
}

func (r *ReviewsRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID, authorID string) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if review, ok := r.byTarget[bookingReviewKey(bookingID, authorID)]; ok {
		return review, nil
	}
	return nil, domainreviews.ErrNotFound
}

func (r *ReviewsRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.byID {
		if review.ListingID == listingID {
			matches = append(matches, review)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if offset > len(matches) {
		offset = len(matches)
	}
	matches = matches[offset:]
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *ReviewsRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[review.ID] = review
	r.byTarget[bookingReviewKey(review.BookingID, review.AuthorID)] = review
	return nil
}

func bookingReviewKey(bookingID domainbooking.BookingID, authorID string) string {
	return string(bookingID) + ":" + authorID
}
