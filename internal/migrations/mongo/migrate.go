package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"glec/internal/meetings/repository"
	"glec/internal/migrations/mongo/validators"
	"glec/pkg/logger"
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	MeetingSlotsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "start_time", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "meeting_type", Value: 1}, {Key: "start_time", Value: 1}}},
		{
			Keys: bson.D{{Key: "start_time", Value: 1}, {Key: "meeting_type", Value: 1}},
			Options: options.Index().
				SetName("generated_slot_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"generated": true}),
		},
	}

	MeetingTokensIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "lead_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	MeetingBookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "meeting_slot_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "lead_id", Value: 1}}},
	}

	LeadsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}

	LeadActivitiesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "lead_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
	}
)

// Collections lists every collection the service owns, in creation order.
func Collections() []collectionDef {
	return []collectionDef{
		{repository.SlotsCollection, MeetingSlotsIndexes, validators.MeetingSlotValidator},
		{repository.TokensCollection, MeetingTokensIndexes, validators.MeetingTokenValidator},
		{repository.BookingsCollection, MeetingBookingsIndexes, validators.MeetingBookingValidator},
		{repository.LeadsCollection, LeadsIndexes, validators.LeadValidator},
		{repository.ActivitiesCollection, LeadActivitiesIndexes, validators.LeadActivityValidator},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
