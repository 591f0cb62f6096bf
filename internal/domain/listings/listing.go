package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrNotFound        = errors.New("listings: not found")
	ErrNotBookable     = errors.New("listings: not bookable")
	ErrGuestsLimit     = errors.New("listings: guests limit must be at least 1")
	ErrNightsRange     = errors.New("listings: min nights must be <= max nights")
	ErrInvalidState    = errors.New("listings: invalid state transition")
	ErrAddressRequired = errors.New("listings: address must be provided when publishing")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrNightlyRate     = errors.New("listings: nightly rate must be positive")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

type Address struct {
	Line1   string
	City    string
	Region  string
	Country string
	Lat     float64
	Lon     float64
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Country) != ""
}

// Listing is the property record bookings reference. Nightly rate is kept
// in integer minor units; MaxNights == 0 means no upper bound on stay length.
type Listing struct {
	ID           ListingID
	Host         HostID
	Title        string
	Description  string
	PropertyType string
	Address      Address
	Amenities    []string
	GuestsLimit  int
	Bedrooms     int
	Bathrooms    int
	MinNights    int
	MaxNights    int
	NightlyRate  money.Money
	InstantBook  bool
	Featured     bool
	State        ListingState
	Photos       []string
	ThumbnailURL string
	Rating       float64
	ReviewCount  int
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID           ListingID
	Host         HostID
	Title        string
	Description  string
	PropertyType string
	Address      Address
	Amenities    []string
	GuestsLimit  int
	Bedrooms     int
	Bathrooms    int
	MinNights    int
	MaxNights    int
	NightlyRate  money.Money
	InstantBook  bool
	Featured     bool
	Photos       []string
	ThumbnailURL string
	Now          time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, errors.New("listings: host is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.GuestsLimit < 1 {
		return nil, ErrGuestsLimit
	}
	if params.MaxNights > 0 && params.MinNights > params.MaxNights {
		return nil, ErrNightsRange
	}
	if params.NightlyRate.Amount <= 0 || params.NightlyRate.Currency == "" {
		return nil, ErrNightlyRate
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:           params.ID,
		Host:         params.Host,
		Title:        strings.TrimSpace(params.Title),
		Description:  strings.TrimSpace(params.Description),
		PropertyType: strings.TrimSpace(params.PropertyType),
		Address:      params.Address,
		Amenities:    append([]string(nil), params.Amenities...),
		GuestsLimit:  params.GuestsLimit,
		Bedrooms:     params.Bedrooms,
		Bathrooms:    params.Bathrooms,
		MinNights:    params.MinNights,
		MaxNights:    params.MaxNights,
		NightlyRate:  params.NightlyRate,
		InstantBook:  params.InstantBook,
		Featured:     params.Featured,
		State:        ListingDraft,
		Photos:       append([]string(nil), params.Photos...),
		ThumbnailURL: strings.TrimSpace(params.ThumbnailURL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, HostID: listing.Host, At: now})
	return listing, nil
}

// Bookable reports whether new bookings may target this listing.
func (l *Listing) Bookable() bool {
	return l.State == ListingActive
}

// Publish makes the listing visible and bookable.
func (l *Listing) Publish(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if !l.Address.Valid() {
		return ErrAddressRequired
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingPublishedEvent{ListingID: l.ID, HostID: l.Host, At: l.UpdatedAt})
	return nil
}

// Unpublish suspends the listing. Existing bookings are untouched: hard
// deletes are not offered, so active stays run to completion or cancellation.
func (l *Listing) Unpublish(now time.Time, reason string) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspendedEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

type UpdateParams struct {
	Title        string
	Description  string
	PropertyType string
	Address      Address
	Amenities    []string
	GuestsLimit  int
	Bedrooms     int
	Bathrooms    int
	MinNights    int
	MaxNights    int
	NightlyRate  money.Money
	InstantBook  bool
	ThumbnailURL string
	Now          time.Time
}

func (l *Listing) Update(params UpdateParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return ErrTitleRequired
	}
	if params.GuestsLimit < 1 {
		return ErrGuestsLimit
	}
	if params.MaxNights > 0 && params.MinNights > params.MaxNights {
		return ErrNightsRange
	}
	if params.NightlyRate.Amount <= 0 || params.NightlyRate.Currency == "" {
		return ErrNightlyRate
	}
	l.Title = strings.TrimSpace(params.Title)
	l.Description = strings.TrimSpace(params.Description)
	l.PropertyType = strings.TrimSpace(params.PropertyType)
	l.Address = params.Address
	l.Amenities = append([]string(nil), params.Amenities...)
	l.GuestsLimit = params.GuestsLimit
	l.Bedrooms = params.Bedrooms
	l.Bathrooms = params.Bathrooms
	l.MinNights = params.MinNights
	l.MaxNights = params.MaxNights
	l.NightlyRate = params.NightlyRate
	l.InstantBook = params.InstantBook
	l.ThumbnailURL = strings.TrimSpace(params.ThumbnailURL)
	l.UpdatedAt = params.Now.UTC()
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// AddPhoto appends a photo URL; the first photo becomes the thumbnail.
func (l *Listing) AddPhoto(url string, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("listings: photo url is required")
	}
	l.Photos = append(l.Photos, url)
	if l.ThumbnailURL == "" {
		l.ThumbnailURL = url
	}
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// ApplyReview folds a new rating into the running average.
func (l *Listing) ApplyReview(rating int, now time.Time) {
	total := l.Rating*float64(l.ReviewCount) + float64(rating)
	l.ReviewCount++
	l.Rating = total / float64(l.ReviewCount)
	l.UpdatedAt = now.UTC()
}

// SetRating overwrites the aggregate rating, used when reviews are edited
// and the mean is recomputed from scratch.
func (l *Listing) SetRating(average float64, count int, now time.Time) {
	l.Rating = average
	l.ReviewCount = count
	l.UpdatedAt = now.UTC()
}
