package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	meetingserrors "glec/internal/meetings/errors"
	"glec/pkg/config"
	mongotx "glec/pkg/db/mongo"
	"glec/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusChange describes a booking transition and the fields it stamps.
type StatusChange struct {
	To                 model.BookingStatus
	CancellationReason string
	At                 time.Time
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.MeetingBooking) error
	FindByID(ctx context.Context, id string) (*model.MeetingBooking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.MeetingBooking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	Transition(ctx context.Context, id string, change StatusChange) (*model.MeetingBooking, error)
	MarkConfirmationSent(ctx context.Context, id string, emailID string, now time.Time) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewBookingRepository(cfg *config.Config) BookingRepository {
	return newBookingRepository(
		cfg,
		cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
		mongotx.NewTransactionManager(cfg.Client.Mongo),
	)
}

func newBookingRepository(cfg *config.Config, db *mongo.Database, tx mongotx.TransactionManager) *mongoBookingRepository {
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(BookingsCollection),
		txManager:  tx,
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.MeetingBooking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if isDuplicateKey(err) {
			return meetingserrors.ErrDuplicateBooking
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = insertedHex(result)
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.MeetingBooking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var booking model.MeetingBooking
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, meetingserrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.MeetingBooking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(filter.Limit)).
		SetSkip(filter.Offset)

	cursor, err := r.collection.Find(ctx, buildBookingFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.MeetingBooking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildBookingFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// buildBookingFilter expects Search to be regex-escaped already.
func buildBookingFilter(f model.BookingFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": f.Search, "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"company_name": pattern},
			bson.M{"contact_name": pattern},
			bson.M{"email": pattern},
		}
	}
	return filter
}

// Transition moves the booking to change.To only if its current status is one
// of the allowed source states.
func (r *mongoBookingRepository) Transition(ctx context.Context, id string, change StatusChange) (*model.MeetingBooking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"status": change.To, "updated_at": change.At}
	switch change.To {
	case model.BookingConfirmed:
		set["confirmed_at"] = change.At
	case model.BookingCancelled:
		set["cancelled_at"] = change.At
		if change.CancellationReason != "" {
			set["cancellation_reason"] = change.CancellationReason
		}
	case model.BookingCompleted:
		set["completed_at"] = change.At
	}

	filter := bson.M{
		"_id":    oid,
		"status": bson.M{"$in": change.To.AllowedFrom()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.MeetingBooking
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, meetingserrors.ErrInvalidTransition
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) MarkConfirmationSent(ctx context.Context, id string, emailID string, now time.Time) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{"confirmation_sent": true, "updated_at": now}
	if emailID != "" {
		set["confirmation_email_id"] = emailID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to mark confirmation sent: %w", err)
	}
	if result.MatchedCount == 0 {
		return meetingserrors.ErrBookingNotFound
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
