package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainavailability "staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
)

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id listings.ListingID) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainavailability.NewCalendar(id), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save holds the calendar under an optimistic version: the update matches on
// both _id and the version the caller read, so concurrent writers lose with
// ErrVersionConflict and must re-read.
func (r *CalendarRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	doc := newCalendarDocument(calendar)
	doc.Version = calendar.Version + 1
	if calendar.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domainavailability.ErrVersionConflict
			}
			return err
		}
		calendar.Version = doc.Version
		return nil
	}
	filter := bson.M{"_id": doc.ID, "version": calendar.Version}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainavailability.ErrVersionConflict
	}
	calendar.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID      string          `bson:"_id"`
	Blocks  []blockDocument `bson:"blocks"`
	Version int64           `bson:"version"`
}

type blockDocument struct {
	Range     rangeDocument `bson:"range"`
	Reason    string        `bson:"reason"`
	Reference string        `bson:"reference"`
	CreatedAt int64         `bson:"created_at"`
}

func newCalendarDocument(c *domainavailability.Calendar) calendarDocument {
	blocks := make([]blockDocument, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		blocks = append(blocks, blockDocument{
			Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
			Reason:    string(b.Reason),
			Reference: b.Reference,
			CreatedAt: b.CreatedAt.UnixMilli(),
		})
	}
	return calendarDocument{ID: string(c.ListingID), Blocks: blocks, Version: c.Version}
}

func (d calendarDocument) toAggregate() *domainavailability.Calendar {
	blocks := make([]domainavailability.Block, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		blocks = append(blocks, domainavailability.Block{
			Range:     domainrange.DateRange{CheckIn: timestampToTime(b.Range.CheckIn), CheckOut: timestampToTime(b.Range.CheckOut)},
			Reason:    domainavailability.BlockReason(b.Reason),
			Reference: b.Reference,
			CreatedAt: time.UnixMilli(b.CreatedAt).UTC(),
		})
	}
	return &domainavailability.Calendar{
		ListingID: listings.ListingID(d.ID),
		Blocks:    blocks,
		Version:   d.Version,
	}
}
