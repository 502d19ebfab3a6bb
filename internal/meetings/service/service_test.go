package service

import (
	"fmt"
	"testing"
	"time"

	"glec/internal/meetings/validator"
	"glec/pkg/config"
	apperrors "glec/pkg/errors"
	"glec/pkg/logger"
	"glec/pkg/model"
)

// Monday 2026-03-02 09:00 KST.
var testNow = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	store     *memStore
	notifier  *fakeNotifier
	publisher *recordingPublisher
	bookings  *bookingService
	slots     *slotService
	leads     *leadService
	cfg       *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                       logger.Discard(),
		PublicBaseURL:             "https://glec.io",
		TokenTTL:                  7 * 24 * time.Hour,
		AvailabilityWindow:        30 * 24 * time.Hour,
		AvailabilityGroupTimezone: "UTC",
		ProposalLookahead:         14 * 24 * time.Hour,
		BookingTimeout:            5 * time.Second,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	store := newMemStore()
	slots, tokens, bookings, leads, activities := store.repos()
	v := validator.NewMeetingValidator(cfg.Log)
	notifier := &fakeNotifier{}
	publisher := &recordingPublisher{}
	clockFn := func() time.Time { return testNow }

	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("failed to load Asia/Seoul: %v", err)
	}

	return &testEnv{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg,
		bookings: &bookingService{
			slots:     slots,
			tokens:    tokens,
			bookings:  bookings,
			leads:     leads,
			validator: v,
			notifier:  notifier,
			publisher: publisher,
			cfg:       cfg,
			groupZone: time.UTC,
			now:       clockFn,
		},
		slots: &slotService{
			repo:      slots,
			validator: v,
			hours: WorkingHours{
				Location:     seoul,
				MeetingHours: []int{10, 14, 16},
				SlotLength:   time.Hour,
				AdvanceDays:  14,
				MinLeadTime:  24 * time.Hour,
				Holidays:     map[string]struct{}{"2026-03-03": {}},
			},
			cfg: cfg,
			now: clockFn,
		},
		leads: &leadService{
			leads:      leads,
			tokens:     tokens,
			slots:      slots,
			activities: activities,
			validator:  v,
			notifier:   notifier,
			publisher:  publisher,
			cfg:        cfg,
			now:        clockFn,
			newToken:   NewBookingToken,
		},
	}
}

func rawToken(n int) string {
	return fmt.Sprintf("%064x", n)
}

func (e *testEnv) seedLead() *model.Lead {
	return e.store.addLead(model.Lead{
		LeadType:    model.LeadContact,
		CompanyName: "ACME Logistics",
		ContactName: "Kim Minji",
		Email:       "minji@acme.co.kr",
		Phone:       "+821012345678",
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	})
}

func (e *testEnv) seedSlot(start time.Time, capacity int) *model.MeetingSlot {
	return e.store.addSlot(model.MeetingSlot{
		Title:           "Product demo",
		MeetingType:     model.MeetingTypeDemo,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationMinutes: 60,
		Timezone:        "Asia/Seoul",
		MeetingLocation: model.LocationOnline,
		MeetingURL:      "https://meet.google.com/abc-defg-hij",
		MaxBookings:     capacity,
		Status:          model.SlotAvailable,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	})
}

func (e *testEnv) seedToken(n int, lead *model.Lead, mutate ...func(*model.BookingToken)) string {
	raw := rawToken(n)
	token := model.BookingToken{
		LeadID:    lead.ID,
		LeadType:  lead.LeadType,
		ExpiresAt: testNow.Add(7 * 24 * time.Hour),
		CreatedAt: testNow,
	}
	for _, m := range mutate {
		m(&token)
	}
	e.store.addToken(raw, token)
	return raw
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}
