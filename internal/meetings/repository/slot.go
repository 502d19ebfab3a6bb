package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	meetingserrors "glec/internal/meetings/errors"
	"glec/pkg/config"
	"glec/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *model.MeetingSlot) error
	FindByID(ctx context.Context, id string) (*model.MeetingSlot, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.MeetingSlot, error)
	List(ctx context.Context, filter model.SlotFilter) ([]*model.MeetingSlot, error)
	Count(ctx context.Context, filter model.SlotFilter) (int64, error)
	Update(ctx context.Context, id string, update *model.MeetingSlotUpdate, now time.Time) (*model.MeetingSlot, error)
	Delete(ctx context.Context, id string) error
	FindAvailable(ctx context.Context, from, to time.Time, ids []string) ([]*model.MeetingSlot, error)
	CountAvailable(ctx context.Context, from, to time.Time) (int64, error)
	Reserve(ctx context.Context, id string, now time.Time) error
	Release(ctx context.Context, id string, now time.Time) error
	UpsertGenerated(ctx context.Context, slots []*model.MeetingSlot) (int64, error)
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewSlotRepository(cfg *config.Config) SlotRepository {
	return newSlotRepository(cfg, cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
}

func newSlotRepository(cfg *config.Config, db *mongo.Database) *mongoSlotRepository {
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(SlotsCollection),
	}
}

func (r *mongoSlotRepository) Create(ctx context.Context, slot *model.MeetingSlot) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to create meeting slot: %w", err)
	}
	slot.ID = insertedHex(result)
	return nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.MeetingSlot, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var slot model.MeetingSlot
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&slot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, meetingserrors.ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to find meeting slot: %w", err)
	}
	return &slot, nil
}

func (r *mongoSlotRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.MeetingSlot, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*model.MeetingSlot{}, nil
	}

	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

func (r *mongoSlotRepository) List(ctx context.Context, filter model.SlotFilter) ([]*model.MeetingSlot, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(int64(filter.Limit)).
		SetSkip(filter.Offset)

	return r.find(ctx, buildSlotFilter(filter), opts)
}

func (r *mongoSlotRepository) Count(ctx context.Context, filter model.SlotFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSlotFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count meeting slots: %w", err)
	}
	return count, nil
}

func buildSlotFilter(f model.SlotFilter) bson.M {
	filter := bson.M{}
	if f.MeetingType != "" {
		filter["meeting_type"] = f.MeetingType
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.From != nil || f.To != nil {
		window := bson.M{}
		if f.From != nil {
			window["$gte"] = *f.From
		}
		if f.To != nil {
			window["$lte"] = *f.To
		}
		filter["start_time"] = window
	}
	return filter
}

// Update applies a partial update and renormalizes status in the same write.
// Lowering max_bookings is guarded in the filter so a concurrent reservation
// cannot leave current_bookings above capacity.
func (r *mongoSlotRepository) Update(ctx context.Context, id string, update *model.MeetingSlotUpdate, now time.Time) (*model.MeetingSlot, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": now}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.MeetingType != nil {
		set["meeting_type"] = *update.MeetingType
	}
	if update.StartTime != nil {
		set["start_time"] = *update.StartTime
	}
	if update.EndTime != nil {
		set["end_time"] = *update.EndTime
	}
	if update.StartTime != nil && update.EndTime != nil {
		set["duration_minutes"] = int(update.EndTime.Sub(*update.StartTime).Minutes())
	}
	if update.Timezone != nil {
		set["timezone"] = *update.Timezone
	}
	if update.MeetingLocation != nil {
		set["meeting_location"] = *update.MeetingLocation
	}
	if update.MeetingURL != nil {
		set["meeting_url"] = *update.MeetingURL
	}
	if update.OfficeAddress != nil {
		set["office_address"] = *update.OfficeAddress
	}
	if update.MaxBookings != nil {
		set["max_bookings"] = *update.MaxBookings
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}

	filter := bson.M{"_id": oid}
	if update.MaxBookings != nil {
		filter["current_bookings"] = bson.M{"$lte": *update.MaxBookings}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: set}},
		{{Key: "$set", Value: bson.M{"status": normalizedStatusExpr()}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var slot model.MeetingSlot
	err = r.collection.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&slot)
	if err == nil {
		return &slot, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update meeting slot: %w", err)
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting slot: %w", err)
	}
	if n == 0 {
		return nil, meetingserrors.ErrSlotNotFound
	}
	return nil, meetingserrors.ErrCapacityBelowBookings
}

// normalizedStatusExpr keeps BLOCKED and otherwise derives BOOKED/AVAILABLE from capacity.
func normalizedStatusExpr() bson.M {
	return bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{"$status", model.SlotBlocked}},
		model.SlotBlocked,
		bson.M{"$cond": bson.A{
			bson.M{"$gte": bson.A{"$current_bookings", "$max_bookings"}},
			model.SlotBooked,
			model.SlotAvailable,
		}},
	}}
}

func (r *mongoSlotRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "current_bookings": 0})
	if err != nil {
		return fmt.Errorf("failed to delete meeting slot: %w", err)
	}
	if result.DeletedCount > 0 {
		return nil
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete meeting slot: %w", err)
	}
	if n == 0 {
		return meetingserrors.ErrSlotNotFound
	}
	return meetingserrors.ErrSlotHasBookings
}

func availableFilter(from, to time.Time) bson.M {
	return bson.M{
		"status":     model.SlotAvailable,
		"start_time": bson.M{"$gte": from, "$lte": to},
		"$expr":      bson.M{"$lt": bson.A{"$current_bookings", "$max_bookings"}},
	}
}

func (r *mongoSlotRepository) FindAvailable(ctx context.Context, from, to time.Time, ids []string) ([]*model.MeetingSlot, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := availableFilter(from, to)
	if len(ids) > 0 {
		filter["_id"] = bson.M{"$in": objectIDs(ids)}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoSlotRepository) CountAvailable(ctx context.Context, from, to time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, availableFilter(from, to))
	if err != nil {
		return 0, fmt.Errorf("failed to count available slots: %w", err)
	}
	return count, nil
}

// Reserve takes one spot on the slot. The filter is the whole availability
// check, so the write either claims a spot or matches nothing.
func (r *mongoSlotRepository) Reserve(ctx context.Context, id string, now time.Time) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return meetingserrors.ErrSlotUnavailable
	}

	filter := bson.M{
		"_id":        oid,
		"status":     model.SlotAvailable,
		"start_time": bson.M{"$gte": now},
		"$expr":      bson.M{"$lt": bson.A{"$current_bookings", "$max_bookings"}},
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"current_bookings": bson.M{"$add": bson.A{"$current_bookings", 1}},
			"updated_at":       now,
		}}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$current_bookings", "$max_bookings"}},
				model.SlotBooked,
				"$status",
			}},
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return fmt.Errorf("failed to reserve meeting slot: %w", err)
	}
	if result.MatchedCount == 0 {
		return meetingserrors.ErrSlotUnavailable
	}
	return nil
}

// Release gives back one spot. BLOCKED slots stay blocked.
func (r *mongoSlotRepository) Release(ctx context.Context, id string, now time.Time) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "current_bookings": bson.M{"$gt": 0}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"current_bookings": bson.M{"$subtract": bson.A{"$current_bookings", 1}},
			"updated_at":       now,
		}}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", model.SlotBooked}},
				model.SlotAvailable,
				"$status",
			}},
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return fmt.Errorf("failed to release meeting slot: %w", err)
	}
	if result.MatchedCount == 0 {
		return meetingserrors.ErrSlotNotFound
	}
	return nil
}

// UpsertGenerated inserts generated slots that do not exist yet, keyed on
// (start_time, meeting_type). Existing slots are left untouched.
func (r *mongoSlotRepository) UpsertGenerated(ctx context.Context, slots []*model.MeetingSlot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	models := make([]mongo.WriteModel, 0, len(slots))
	for _, s := range slots {
		s.Generated = true
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				"start_time":   s.StartTime,
				"meeting_type": s.MeetingType,
				"generated":    true,
			}).
			SetUpdate(bson.M{"$setOnInsert": s}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		// Concurrent generators race on the partial unique index; the loser's
		// duplicate-key errors mean the slot already exists.
		if onlyDuplicateKeys(err) && result != nil {
			return result.UpsertedCount, nil
		}
		return 0, fmt.Errorf("failed to upsert generated slots: %w", err)
	}
	return result.UpsertedCount, nil
}

func (r *mongoSlotRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.MeetingSlot, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find meeting slots: %w", err)
	}
	defer cursor.Close(ctx)

	slots := []*model.MeetingSlot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode meeting slots: %w", err)
	}
	return slots, nil
}
