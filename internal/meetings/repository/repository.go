package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	meetingserrors "glec/internal/meetings/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SlotsCollection      = "Meeting_slots"
	TokensCollection     = "Meeting_tokens"
	BookingsCollection   = "Meeting_bookings"
	LeadsCollection      = "Leads"
	ActivitiesCollection = "Lead_activities"
)

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged: wrapping it would detach the
// operation from the session.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	if remaining := time.Until(deadline); remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", meetingserrors.ErrInvalidID, id)
	}
	return oid, nil
}

// objectIDs converts hex ids, skipping malformed entries.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func insertedHex(result *mongo.InsertOneResult) string {
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// onlyDuplicateKeys reports whether every write error of a bulk write is a
// duplicate key violation.
func onlyDuplicateKeys(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 && we.Code != 11001 && we.Code != 12582 {
			return false
		}
	}
	return true
}
