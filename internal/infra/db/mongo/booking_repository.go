package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	// overlap queries filter on listing, state and the range bounds
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "state", Value: 1}, {Key: "range.check_in", Value: 1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"guest_id": guestID}, opts)
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID listings.ListingID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"listing_id": string(listingID)}, opts)
}

func (r *BookingRepository) FindOverlapping(ctx context.Context, listingID listings.ListingID, dr domainrange.DateRange, states []domainbooking.State) ([]*domainbooking.Booking, error) {
	stateValues := make([]string, 0, len(states))
	for _, s := range states {
		stateValues = append(stateValues, string(s))
	}
	// half-open ranges overlap iff A starts before B ends and ends after B starts
	filter := bson.M{
		"listing_id":      string(listingID),
		"state":           bson.M{"$in": stateValues},
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
	return r.find(ctx, filter, options.Find())
}

func (r *BookingRepository) DueForCompletion(ctx context.Context, before time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"state":           string(domainbooking.StateConfirmed),
		"range.check_out": bson.M{"$lte": before.UTC().UnixMilli()},
	}
	return r.find(ctx, filter, options.Find())
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID              string        `bson:"_id"`
	ListingID       string        `bson:"listing_id"`
	GuestID         string        `bson:"guest_id"`
	Range           rangeDocument `bson:"range"`
	Guests          int           `bson:"guests"`
	Price           quoteDocument `bson:"price"`
	State           string        `bson:"state"`
	SpecialRequests string        `bson:"special_requests,omitempty"`
	CancelReason    string        `bson:"cancel_reason,omitempty"`
	CreatedAt       int64         `bson:"created_at"`
	UpdatedAt       int64         `bson:"updated_at"`
	Version         int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type quoteDocument struct {
	Nights     int           `bson:"nights"`
	Nightly    moneyDocument `bson:"nightly"`
	Subtotal   moneyDocument `bson:"subtotal"`
	ServiceFee moneyDocument `bson:"service_fee"`
	Total      moneyDocument `bson:"total"`
	FeeBps     int64         `bson:"fee_bps"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		ListingID:       string(b.ListingID),
		GuestID:         b.GuestID,
		Range:           rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:          b.Guests,
		Price:           newQuoteDocument(b.Price),
		State:           string(b.State),
		SpecialRequests: b.SpecialRequests,
		CancelReason:    b.CancelReason,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		ListingID:       listings.ListingID(d.ListingID),
		GuestID:         d.GuestID,
		Range:           domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:          d.Guests,
		Price:           d.Price.toQuote(),
		State:           domainbooking.State(d.State),
		SpecialRequests: d.SpecialRequests,
		CancelReason:    d.CancelReason,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

func newQuoteDocument(q domainpricing.Quote) quoteDocument {
	return quoteDocument{
		Nights:     q.Nights,
		Nightly:    newMoneyDocument(q.Nightly),
		Subtotal:   newMoneyDocument(q.Subtotal),
		ServiceFee: newMoneyDocument(q.ServiceFee),
		Total:      newMoneyDocument(q.Total),
		FeeBps:     q.FeeBps,
	}
}

func (d quoteDocument) toQuote() domainpricing.Quote {
	return domainpricing.Quote{
		Nights:     d.Nights,
		Nightly:    d.Nightly.toMoney(),
		Subtotal:   d.Subtotal.toMoney(),
		ServiceFee: d.ServiceFee.toMoney(),
		Total:      d.Total.toMoney(),
		FeeBps:     d.FeeBps,
	}
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
