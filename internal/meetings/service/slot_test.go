package service

import (
	"context"
	"testing"
	"time"

	apperrors "glec/pkg/errors"
	"glec/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newSlot(location model.MeetingLocation) *model.MeetingSlot {
	start := testNow.Add(48 * time.Hour)
	return &model.MeetingSlot{
		Title:           "  Product   demo ",
		MeetingType:     model.MeetingTypeDemo,
		StartTime:       start,
		EndTime:         start.Add(45 * time.Minute),
		MeetingLocation: location,
		MeetingURL:      "https://meet.google.com/abc-defg-hij",
	}
}

func TestSlotCreate_Defaults(t *testing.T) {
	env := newTestEnv(t)
	slot := newSlot(model.LocationOnline)
	slot.CurrentBookings = 5

	if err := env.slots.Create(context.Background(), slot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if slot.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if slot.Title != "Product demo" {
		t.Errorf("expected normalized title, got %q", slot.Title)
	}
	if slot.Timezone != "Asia/Seoul" || slot.MaxBookings != 1 || slot.Status != model.SlotAvailable {
		t.Errorf("expected defaults, got tz=%s max=%d status=%s", slot.Timezone, slot.MaxBookings, slot.Status)
	}
	if slot.CurrentBookings != 0 {
		t.Errorf("expected current_bookings reset to 0, got %d", slot.CurrentBookings)
	}
	if slot.DurationMinutes != 45 {
		t.Errorf("expected duration 45, got %d", slot.DurationMinutes)
	}
}

func TestSlotCreate_LocationRules(t *testing.T) {
	env := newTestEnv(t)

	online := newSlot(model.LocationOnline)
	online.MeetingURL = ""
	expectCode(t, env.slots.Create(context.Background(), online), apperrors.CodeValidation)

	office := newSlot(model.LocationOffice)
	expectCode(t, env.slots.Create(context.Background(), office), apperrors.CodeValidation)

	office = newSlot(model.LocationOffice)
	office.OfficeAddress = "서울특별시 강남구 테헤란로 123"
	if err := env.slots.Create(context.Background(), office); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSlotCreate_InvalidWindow(t *testing.T) {
	env := newTestEnv(t)
	slot := newSlot(model.LocationOnline)
	slot.EndTime = slot.StartTime

	expectCode(t, env.slots.Create(context.Background(), slot), apperrors.CodeValidation)
}

func TestSlotUpdate(t *testing.T) {
	env := newTestEnv(t)
	slot := env.seedSlot(testNow.Add(48*time.Hour), 3)
	slot.CurrentBookings = 2
	env.store.addSlot(*slot)

	t.Run("capacity below bookings", func(t *testing.T) {
		one := 1
		_, err := env.slots.Update(context.Background(), slot.ID, &model.MeetingSlotUpdate{MaxBookings: &one})
		expectCode(t, err, apperrors.CodeConflict)
	})

	t.Run("end before stored start", func(t *testing.T) {
		end := slot.StartTime.Add(-time.Minute)
		_, err := env.slots.Update(context.Background(), slot.ID, &model.MeetingSlotUpdate{EndTime: &end})
		expectCode(t, err, apperrors.CodeValidation)
	})

	t.Run("office without address", func(t *testing.T) {
		office := model.LocationOffice
		_, err := env.slots.Update(context.Background(), slot.ID, &model.MeetingSlotUpdate{MeetingLocation: &office})
		expectCode(t, err, apperrors.CodeValidation)
	})

	t.Run("capacity reduced to bookings", func(t *testing.T) {
		two := 2
		updated, err := env.slots.Update(context.Background(), slot.ID, &model.MeetingSlotUpdate{MaxBookings: &two})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Status != model.SlotBooked {
			t.Errorf("expected full slot to be BOOKED, got %s", updated.Status)
		}
	})

	t.Run("shift start recomputes duration", func(t *testing.T) {
		start := slot.StartTime.Add(30 * time.Minute)
		updated, err := env.slots.Update(context.Background(), slot.ID, &model.MeetingSlotUpdate{StartTime: &start})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.DurationMinutes != 30 {
			t.Errorf("expected duration 30, got %d", updated.DurationMinutes)
		}
	})

	t.Run("not found", func(t *testing.T) {
		title := "x"
		_, err := env.slots.Update(context.Background(), primitive.NewObjectID().Hex(), &model.MeetingSlotUpdate{Title: &title})
		expectCode(t, err, apperrors.CodeNotFound)
	})
}

func TestSlotDelete(t *testing.T) {
	env := newTestEnv(t)
	empty := env.seedSlot(testNow.Add(48*time.Hour), 1)
	booked := env.seedSlot(testNow.Add(72*time.Hour), 1)
	booked.CurrentBookings = 1
	env.store.addSlot(*booked)

	expectCode(t, env.slots.Delete(context.Background(), booked.ID), apperrors.CodeSlotHasBookings)
	expectCode(t, env.slots.Delete(context.Background(), "bad-id"), apperrors.CodeInvalidInput)
	expectCode(t, env.slots.Delete(context.Background(), primitive.NewObjectID().Hex()), apperrors.CodeNotFound)

	if err := env.slots.Delete(context.Background(), empty.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := env.slots.GetByID(context.Background(), empty.ID)
	expectCode(t, err, apperrors.CodeNotFound)
}

func TestSlotList(t *testing.T) {
	env := newTestEnv(t)
	env.seedSlot(testNow.Add(24*time.Hour), 1)
	env.seedSlot(testNow.Add(48*time.Hour), 1)
	env.seedSlot(testNow.Add(72*time.Hour), 1)

	from := testNow.Add(36 * time.Hour)
	slots, total, err := env.slots.List(context.Background(), model.SlotFilter{From: &from, Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(slots) != 1 {
		t.Errorf("expected 1 of 2 slots, got %d of %d", len(slots), total)
	}

	to := testNow
	_, _, err = env.slots.List(context.Background(), model.SlotFilter{From: &from, To: &to})
	expectCode(t, err, apperrors.CodeInvalidInput)
}

func TestSlotGenerate_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.slots.Generate(context.Background(), &model.GenerateSlotsRequest{DaysAhead: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Candidates != 12 || first.Created != 12 {
		t.Fatalf("expected 12 slots created, got %+v", first)
	}

	second, err := env.slots.Generate(context.Background(), &model.GenerateSlotsRequest{DaysAhead: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Created != 0 || second.Skipped != 12 {
		t.Errorf("expected second run to skip everything, got %+v", second)
	}

	_, err = env.slots.Generate(context.Background(), &model.GenerateSlotsRequest{DaysAhead: 365})
	expectCode(t, err, apperrors.CodeValidation)
}
