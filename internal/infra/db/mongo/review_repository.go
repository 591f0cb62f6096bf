package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/listings"
	domainreviews "staybook/internal/domain/reviews"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	col := db.Collection("agg_review")
	// one review per booking per author
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "author_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return &ReviewRepository{col: col}
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID, authorID string) (*domainreviews.Review, error) {
	var doc reviewDocument
	filter := bson.M{"booking_id": string(bookingID), "author_id": authorID}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ListByListing(ctx context.Context, listingID listings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if offset > 0 {
		opts = opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, bson.M{"listing_id": string(listingID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainreviews.Review
	for cursor.Next(ctx) {
		var doc reviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	doc := newReviewDocument(review)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	if mongo.IsDuplicateKeyError(err) {
		return domainreviews.ErrAlreadyReviewed
	}
	return err
}

type reviewDocument struct {
	ID        string `bson:"_id"`
	BookingID string `bson:"booking_id"`
	AuthorID  string `bson:"author_id"`
	ListingID string `bson:"listing_id"`
	Rating    int    `bson:"rating"`
	Text      string `bson:"text,omitempty"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:        string(r.ID),
		BookingID: string(r.BookingID),
		AuthorID:  r.AuthorID,
		ListingID: string(r.ListingID),
		Rating:    r.Rating,
		Text:      r.Text,
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
	}
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:        domainreviews.ReviewID(d.ID),
		BookingID: domainbooking.BookingID(d.BookingID),
		AuthorID:  d.AuthorID,
		ListingID: listings.ListingID(d.ListingID),
		Rating:    d.Rating,
		Text:      d.Text,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}
