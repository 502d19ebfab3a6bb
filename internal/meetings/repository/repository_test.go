package repository

import (
	"context"
	"testing"
	"time"

	meetingserrors "glec/internal/meetings/errors"
	"glec/pkg/config"
	"glec/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func testConfig() *config.Config {
	return &config.Config{ReadTimeout: 2 * time.Second, WriteTimeout: 2 * time.Second}
}

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func slotDoc(id primitive.ObjectID, status model.SlotStatus, current, capacity int) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "Demo"},
		{Key: "meeting_type", Value: "DEMO"},
		{Key: "status", Value: string(status)},
		{Key: "current_bookings", Value: current},
		{Key: "max_bookings", Value: capacity},
	}
}

func TestSlotRepository_Reserve(t *testing.T) {
	mt := newMockT(t)
	now := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	id := primitive.NewObjectID().Hex()

	mt.Run("claims a spot", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(mt, repo.Reserve(context.Background(), id, now))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "update", evt.CommandName)
		updates, err := evt.Command.Lookup("updates").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, updates, 1)

		q := updates[0].Document().Lookup("q").Document()
		assert.Equal(mt, id, q.Lookup("_id").ObjectID().Hex())
		assert.Equal(mt, string(model.SlotAvailable), q.Lookup("status").StringValue())
		assert.True(mt, now.Equal(q.Lookup("start_time", "$gte").Time()))
		capacity, err := q.Lookup("$expr", "$lt").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, capacity, 2)
		assert.Equal(mt, "$current_bookings", capacity[0].StringValue())
		assert.Equal(mt, "$max_bookings", capacity[1].StringValue())

		stages, err := updates[0].Document().Lookup("u").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, stages, 2)
		increment, err := stages[0].Document().Lookup("$set", "current_bookings", "$add").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, increment, 2)
		assert.Equal(mt, "$current_bookings", increment[0].StringValue())
		step, ok := increment[1].Int32OK()
		require.True(mt, ok)
		assert.EqualValues(mt, 1, step)
		assert.Equal(mt, string(model.SlotBooked),
			stages[1].Document().Lookup("$set", "status", "$cond").Array().Index(1).Value().StringValue())
	})

	mt.Run("no match is unavailable", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Reserve(context.Background(), id, now)
		assert.ErrorIs(mt, err, meetingserrors.ErrSlotUnavailable)
	})

	mt.Run("malformed id is unavailable without a round trip", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)

		err := repo.Reserve(context.Background(), "nope", now)
		assert.ErrorIs(mt, err, meetingserrors.ErrSlotUnavailable)
	})
}

func TestSlotRepository_Release(t *testing.T) {
	mt := newMockT(t)
	now := time.Now()

	mt.Run("releases", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.Release(context.Background(), primitive.NewObjectID().Hex(), now))
	})

	mt.Run("nothing to release", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.Release(context.Background(), primitive.NewObjectID().Hex(), now)
		assert.ErrorIs(mt, err, meetingserrors.ErrSlotNotFound)
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)

		err := repo.Release(context.Background(), "bad", now)
		assert.ErrorIs(mt, err, meetingserrors.ErrInvalidID)
	})
}

func TestSlotRepository_Delete(t *testing.T) {
	mt := newMockT(t)
	id := primitive.NewObjectID()

	mt.Run("deletes an unbooked slot", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Delete(context.Background(), id.Hex()))
	})

	mt.Run("slot with bookings", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateCursorResponse(0, "glec.Meeting_slots", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		err := repo.Delete(context.Background(), id.Hex())
		assert.ErrorIs(mt, err, meetingserrors.ErrSlotHasBookings)
	})

	mt.Run("missing slot", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateCursorResponse(0, "glec.Meeting_slots", mtest.FirstBatch),
		)

		err := repo.Delete(context.Background(), id.Hex())
		assert.ErrorIs(mt, err, meetingserrors.ErrSlotNotFound)
	})
}

func TestSlotRepository_Update(t *testing.T) {
	mt := newMockT(t)
	id := primitive.NewObjectID()
	now := time.Now()

	mt.Run("returns the updated slot", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: slotDoc(id, model.SlotBooked, 2, 2)},
		))

		capacity := 2
		slot, err := repo.Update(context.Background(), id.Hex(), &model.MeetingSlotUpdate{MaxBookings: &capacity}, now)
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), slot.ID)
		assert.Equal(mt, model.SlotBooked, slot.Status)
	})

	mt.Run("capacity below bookings", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "glec.Meeting_slots", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		capacity := 1
		_, err := repo.Update(context.Background(), id.Hex(), &model.MeetingSlotUpdate{MaxBookings: &capacity}, now)
		assert.ErrorIs(mt, err, meetingserrors.ErrCapacityBelowBookings)
	})
}

func TestSlotRepository_FindAvailable(t *testing.T) {
	mt := newMockT(t)
	now := time.Now()

	mt.Run("decodes slots", func(mt *mtest.T) {
		repo := newSlotRepository(testConfig(), mt.DB)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "glec.Meeting_slots", mtest.FirstBatch,
			slotDoc(a, model.SlotAvailable, 0, 1),
			slotDoc(b, model.SlotAvailable, 1, 3),
		))

		slots, err := repo.FindAvailable(context.Background(), now, now.Add(time.Hour), nil)
		require.NoError(mt, err)
		require.Len(mt, slots, 2)
		assert.Equal(mt, a.Hex(), slots[0].ID)
		assert.Equal(mt, 2, slots[1].AvailableSpots())
	})
}

func TestTokenRepository_Consume(t *testing.T) {
	mt := newMockT(t)
	now := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	tokenDoc := func(used bool, expires time.Time) bson.D {
		return bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "token_hash", Value: "h"},
			{Key: "lead_id", Value: "lead-1"},
			{Key: "used", Value: used},
			{Key: "expires_at", Value: expires},
		}
	}

	mt.Run("consumes", func(mt *mtest.T) {
		repo := newTokenRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: tokenDoc(true, now.Add(time.Hour))}))

		tok, err := repo.Consume(context.Background(), "h", now)
		require.NoError(mt, err)
		assert.True(mt, tok.Used)
		assert.Equal(mt, "lead-1", tok.LeadID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "findAndModify", evt.CommandName)
		query := evt.Command.Lookup("query").Document()
		assert.Equal(mt, "h", query.Lookup("token_hash").StringValue())
		assert.False(mt, query.Lookup("used").Boolean())
		assert.True(mt, now.Equal(query.Lookup("expires_at", "$gt").Time()))

		set := evt.Command.Lookup("update", "$set").Document()
		assert.True(mt, set.Lookup("used").Boolean())
		assert.True(mt, now.Equal(set.Lookup("used_at").Time()))
		assert.True(mt, evt.Command.Lookup("new").Boolean())
	})

	tests := []struct {
		name    string
		current []bson.D
		want    error
	}{
		{"not found", nil, meetingserrors.ErrTokenNotFound},
		{"expired", []bson.D{tokenDoc(false, now)}, meetingserrors.ErrTokenExpired},
		{"used", []bson.D{tokenDoc(true, now.Add(time.Hour))}, meetingserrors.ErrTokenUsed},
	}
	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			repo := newTokenRepository(testConfig(), mt.DB)
			mt.AddMockResponses(
				mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
				mtest.CreateCursorResponse(0, "glec.Meeting_tokens", mtest.FirstBatch, tt.current...),
			)

			_, err := repo.Consume(context.Background(), "h", now)
			assert.ErrorIs(mt, err, tt.want)
		})
	}
}

func TestBookingRepository_Create(t *testing.T) {
	mt := newMockT(t)

	mt.Run("assigns the id", func(mt *mtest.T) {
		repo := newBookingRepository(testConfig(), mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		b := &model.MeetingBooking{TokenID: "t1", Status: model.BookingConfirmed}
		require.NoError(mt, repo.Create(context.Background(), b))
		assert.NotEmpty(mt, b.ID)
	})

	mt.Run("second booking for a token", func(mt *mtest.T) {
		repo := newBookingRepository(testConfig(), mt.DB, nil)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		err := repo.Create(context.Background(), &model.MeetingBooking{TokenID: "t1"})
		assert.ErrorIs(mt, err, meetingserrors.ErrDuplicateBooking)
	})
}

func TestBookingRepository_Transition(t *testing.T) {
	mt := newMockT(t)
	id := primitive.NewObjectID()
	at := time.Now()

	mt.Run("allowed", func(mt *mtest.T) {
		repo := newBookingRepository(testConfig(), mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: "CANCELLED"},
			{Key: "cancellation_reason", Value: "schedule"},
		}}))

		b, err := repo.Transition(context.Background(), id.Hex(), StatusChange{
			To: model.BookingCancelled, CancellationReason: "schedule", At: at,
		})
		require.NoError(mt, err)
		assert.Equal(mt, model.BookingCancelled, b.Status)
		assert.Equal(mt, "schedule", b.CancellationReason)
	})

	mt.Run("from a disallowed state", func(mt *mtest.T) {
		repo := newBookingRepository(testConfig(), mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.Transition(context.Background(), id.Hex(), StatusChange{To: model.BookingCompleted, At: at})
		assert.ErrorIs(mt, err, meetingserrors.ErrInvalidTransition)
	})
}

func TestActivityRepository_Insert(t *testing.T) {
	mt := newMockT(t)

	mt.Run("first delivery", func(mt *mtest.T) {
		repo := newActivityRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		inserted, err := repo.Insert(context.Background(), &model.LeadActivity{EventID: "e1"})
		require.NoError(mt, err)
		assert.True(mt, inserted)
	})

	mt.Run("redelivery", func(mt *mtest.T) {
		repo := newActivityRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "dup"}))

		inserted, err := repo.Insert(context.Background(), &model.LeadActivity{EventID: "e1"})
		require.NoError(mt, err)
		assert.False(mt, inserted)
	})
}

func TestLeadRepository_FindByID(t *testing.T) {
	mt := newMockT(t)

	mt.Run("missing", func(mt *mtest.T) {
		repo := newLeadRepository(testConfig(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "glec.Leads", mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, meetingserrors.ErrLeadNotFound)
	})
}

func TestWithTimeout_KeepsSessionContext(t *testing.T) {
	sc := mongo.NewSessionContext(context.Background(), nil)
	ctx, cancel := withTimeout(sc, time.Second)
	defer cancel()

	_, ok := ctx.(mongo.SessionContext)
	assert.True(t, ok)
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)
}

func TestOnlyDuplicateKeys(t *testing.T) {
	dup := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
		{WriteError: mongo.WriteError{Code: 11000}},
	}}
	mixed := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
		{WriteError: mongo.WriteError{Code: 11000}},
		{WriteError: mongo.WriteError{Code: 121}},
	}}

	assert.True(t, onlyDuplicateKeys(dup))
	assert.False(t, onlyDuplicateKeys(mixed))
	assert.False(t, onlyDuplicateKeys(context.Canceled))
}
