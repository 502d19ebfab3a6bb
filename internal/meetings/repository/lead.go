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
	"go.mongodb.org/mongo-driver/mongo"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *model.Lead) error
	FindByID(ctx context.Context, id string) (*model.Lead, error)
	TouchLastContacted(ctx context.Context, id string, at time.Time) error
}

type mongoLeadRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewLeadRepository(cfg *config.Config) LeadRepository {
	return newLeadRepository(cfg, cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
}

func newLeadRepository(cfg *config.Config, db *mongo.Database) *mongoLeadRepository {
	return &mongoLeadRepository{
		cfg:        cfg,
		collection: db.Collection(LeadsCollection),
	}
}

func (r *mongoLeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, lead)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	lead.ID = insertedHex(result)
	return nil
}

func (r *mongoLeadRepository) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var lead model.Lead
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&lead); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, meetingserrors.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return &lead, nil
}

func (r *mongoLeadRepository) TouchLastContacted(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"last_contacted_at": at, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if result.MatchedCount == 0 {
		return meetingserrors.ErrLeadNotFound
	}
	return nil
}
