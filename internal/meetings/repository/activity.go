package repository

import (
	"context"
	"fmt"

	"glec/pkg/config"
	"glec/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ActivityRepository interface {
	// Insert stores the activity once per EventID. inserted is false when the
	// event was already recorded.
	Insert(ctx context.Context, activity *model.LeadActivity) (inserted bool, err error)
	ListByLead(ctx context.Context, leadID string, limit int, offset int64) ([]*model.LeadActivity, error)
	CountByLead(ctx context.Context, leadID string) (int64, error)
}

type mongoActivityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewActivityRepository(cfg *config.Config) ActivityRepository {
	return newActivityRepository(cfg, cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
}

func newActivityRepository(cfg *config.Config, db *mongo.Database) *mongoActivityRepository {
	return &mongoActivityRepository{
		cfg:        cfg,
		collection: db.Collection(ActivitiesCollection),
	}
}

func (r *mongoActivityRepository) Insert(ctx context.Context, activity *model.LeadActivity) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, activity)
	if err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert lead activity: %w", err)
	}
	activity.ID = insertedHex(result)
	return true, nil
}

func (r *mongoActivityRepository) ListByLead(ctx context.Context, leadID string, limit int, offset int64) ([]*model.LeadActivity, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"lead_id": leadID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find lead activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := []*model.LeadActivity{}
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode lead activities: %w", err)
	}
	return activities, nil
}

func (r *mongoActivityRepository) CountByLead(ctx context.Context, leadID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"lead_id": leadID})
	if err != nil {
		return 0, fmt.Errorf("failed to count lead activities: %w", err)
	}
	return count, nil
}
