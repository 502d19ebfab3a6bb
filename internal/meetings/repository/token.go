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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TokenRepository interface {
	Create(ctx context.Context, token *model.BookingToken) error
	FindByHash(ctx context.Context, hash string) (*model.BookingToken, error)
	Consume(ctx context.Context, hash string, now time.Time) (*model.BookingToken, error)
}

type mongoTokenRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewTokenRepository(cfg *config.Config) TokenRepository {
	return newTokenRepository(cfg, cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
}

func newTokenRepository(cfg *config.Config, db *mongo.Database) *mongoTokenRepository {
	return &mongoTokenRepository{
		cfg:        cfg,
		collection: db.Collection(TokensCollection),
	}
}

func (r *mongoTokenRepository) Create(ctx context.Context, token *model.BookingToken) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create booking token: %w", err)
	}
	token.ID = insertedHex(result)
	return nil
}

func (r *mongoTokenRepository) FindByHash(ctx context.Context, hash string) (*model.BookingToken, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var token model.BookingToken
	if err := r.collection.FindOne(ctx, bson.M{"token_hash": hash}).Decode(&token); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, meetingserrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find booking token: %w", err)
	}
	return &token, nil
}

// Consume marks the token used if it is still unused and unexpired at now.
// When nothing matches, the token is re-read to report why.
func (r *mongoTokenRepository) Consume(ctx context.Context, hash string, now time.Time) (*model.BookingToken, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"token_hash": hash,
		"used":       false,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{"used": true, "used_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var token model.BookingToken
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&token)
	if err == nil {
		return &token, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to consume booking token: %w", err)
	}

	var current model.BookingToken
	if err := r.collection.FindOne(ctx, bson.M{"token_hash": hash}).Decode(&current); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, meetingserrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to read booking token: %w", err)
	}
	if current.Expired(now) {
		return nil, meetingserrors.ErrTokenExpired
	}
	if current.Used {
		return nil, meetingserrors.ErrTokenUsed
	}
	return nil, meetingserrors.ErrTokenNotConsumable
}
