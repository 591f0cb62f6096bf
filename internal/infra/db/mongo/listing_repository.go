package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/money"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("agg_listing")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "state", Value: 1}, {Key: "nightly_rate.amount", Value: 1}},
	})
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	doc.Version = listing.Version + 1
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	opts := options.Update().SetUpsert(listing.Version == 0)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	params = params.Normalized()
	filter := searchFilter(params)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}

	opts := options.Find().
		SetSort(searchSort(params.Sort)).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	defer cursor.Close(ctx)

	var items []*domainlistings.Listing
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return domainlistings.SearchResult{}, err
		}
		items = append(items, doc.toAggregate())
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, cursor.Err()
}

func searchFilter(params domainlistings.SearchParams) bson.M {
	filter := bson.M{}
	if params.Host != "" {
		filter["host_id"] = string(params.Host)
	}
	states := params.States
	if params.OnlyActive {
		states = []domainlistings.ListingState{domainlistings.ListingActive}
	}
	if len(states) > 0 {
		values := make([]string, 0, len(states))
		for _, s := range states {
			values = append(values, string(s))
		}
		filter["state"] = bson.M{"$in": values}
	}
	if params.LocationQuery != "" {
		pattern := primitiveRegex(params.LocationQuery)
		filter["$or"] = bson.A{
			bson.M{"address.city": pattern},
			bson.M{"address.region": pattern},
			bson.M{"address.country": pattern},
		}
	}
	if len(params.Amenities) > 0 {
		filter["amenities"] = bson.M{"$all": params.Amenities}
	}
	if len(params.PropertyTypes) > 0 {
		filter["property_type"] = bson.M{"$in": params.PropertyTypes}
	}
	if params.MinGuests > 0 {
		filter["guests_limit"] = bson.M{"$gte": params.MinGuests}
	}
	price := bson.M{}
	if params.PriceMinCents > 0 {
		price["$gte"] = params.PriceMinCents
	}
	if params.PriceMaxCents > 0 {
		price["$lte"] = params.PriceMaxCents
	}
	if len(price) > 0 {
		filter["nightly_rate.amount"] = price
	}
	if params.FeaturedOnly {
		filter["featured"] = true
	}
	return filter
}

func primitiveRegex(query string) bson.M {
	escaped := strings.NewReplacer(
		`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`,
		`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `^`, `\^`, `$`, `\$`,
	).Replace(query)
	return bson.M{"$regex": escaped, "$options": "i"}
}

func searchSort(sort domainlistings.CatalogSort) bson.D {
	switch sort {
	case domainlistings.SortByPriceDesc:
		return bson.D{{Key: "nightly_rate.amount", Value: -1}}
	case domainlistings.SortByRating:
		return bson.D{{Key: "rating", Value: -1}, {Key: "review_count", Value: -1}}
	case domainlistings.SortByNewest:
		return bson.D{{Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "nightly_rate.amount", Value: 1}}
	}
}

type listingDocument struct {
	ID           string          `bson:"_id"`
	HostID       string          `bson:"host_id"`
	Title        string          `bson:"title"`
	Description  string          `bson:"description,omitempty"`
	PropertyType string          `bson:"property_type,omitempty"`
	Address      addressDocument `bson:"address"`
	Amenities    []string        `bson:"amenities,omitempty"`
	GuestsLimit  int             `bson:"guests_limit"`
	Bedrooms     int             `bson:"bedrooms"`
	Bathrooms    int             `bson:"bathrooms"`
	MinNights    int             `bson:"min_nights"`
	MaxNights    int             `bson:"max_nights"`
	NightlyRate  moneyDocument   `bson:"nightly_rate"`
	InstantBook  bool            `bson:"instant_book"`
	Featured     bool            `bson:"featured"`
	State        string          `bson:"state"`
	Photos       []string        `bson:"photos,omitempty"`
	ThumbnailURL string          `bson:"thumbnail_url,omitempty"`
	Rating       float64         `bson:"rating"`
	ReviewCount  int             `bson:"review_count"`
	CreatedAt    int64           `bson:"created_at"`
	UpdatedAt    int64           `bson:"updated_at"`
	Version      int64           `bson:"version"`
}

type addressDocument struct {
	Line1   string  `bson:"line1,omitempty"`
	City    string  `bson:"city,omitempty"`
	Region  string  `bson:"region,omitempty"`
	Country string  `bson:"country,omitempty"`
	Lat     float64 `bson:"lat,omitempty"`
	Lon     float64 `bson:"lon,omitempty"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:           string(l.ID),
		HostID:       string(l.Host),
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		Address: addressDocument{
			Line1:   l.Address.Line1,
			City:    l.Address.City,
			Region:  l.Address.Region,
			Country: l.Address.Country,
			Lat:     l.Address.Lat,
			Lon:     l.Address.Lon,
		},
		Amenities:    l.Amenities,
		GuestsLimit:  l.GuestsLimit,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		MinNights:    l.MinNights,
		MaxNights:    l.MaxNights,
		NightlyRate:  newMoneyDocument(l.NightlyRate),
		InstantBook:  l.InstantBook,
		Featured:     l.Featured,
		State:        string(l.State),
		Photos:       l.Photos,
		ThumbnailURL: l.ThumbnailURL,
		Rating:       l.Rating,
		ReviewCount:  l.ReviewCount,
		CreatedAt:    l.CreatedAt.UnixMilli(),
		UpdatedAt:    l.UpdatedAt.UnixMilli(),
		Version:      l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:           domainlistings.ListingID(d.ID),
		Host:         domainlistings.HostID(d.HostID),
		Title:        d.Title,
		Description:  d.Description,
		PropertyType: d.PropertyType,
		Address: domainlistings.Address{
			Line1:   d.Address.Line1,
			City:    d.Address.City,
			Region:  d.Address.Region,
			Country: d.Address.Country,
			Lat:     d.Address.Lat,
			Lon:     d.Address.Lon,
		},
		Amenities:    d.Amenities,
		GuestsLimit:  d.GuestsLimit,
		Bedrooms:     d.Bedrooms,
		Bathrooms:    d.Bathrooms,
		MinNights:    d.MinNights,
		MaxNights:    d.MaxNights,
		NightlyRate:  money.Money{Amount: d.NightlyRate.Amount, Currency: d.NightlyRate.Currency},
		InstantBook:  d.InstantBook,
		Featured:     d.Featured,
		State:        domainlistings.ListingState(d.State),
		Photos:       d.Photos,
		ThumbnailURL: d.ThumbnailURL,
		Rating:       d.Rating,
		ReviewCount:  d.ReviewCount,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}
