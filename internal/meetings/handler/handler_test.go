package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"glec/internal/meetings/service"
	"glec/pkg/auth"
	apperrors "glec/pkg/errors"
	"glec/pkg/logger"
	"glec/pkg/middleware"
	"glec/pkg/model"

	"github.com/go-redis/redis/v8"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type mockBookingService struct {
	availabilityFunc func(ctx context.Context, token string) (*service.Availability, error)
	bookFunc         func(ctx context.Context, req *model.BookRequest) (*service.BookingResult, error)
	listFunc         func(ctx context.Context, filter model.BookingFilter) ([]*model.MeetingBooking, int64, error)
	updateStatusFunc func(ctx context.Context, id string, req *model.StatusUpdateRequest) (*model.MeetingBooking, error)
}

func (m *mockBookingService) ValidateToken(ctx context.Context, rawToken string) (*service.TokenContext, error) {
	return nil, nil
}

func (m *mockBookingService) GetAvailability(ctx context.Context, rawToken string) (*service.Availability, error) {
	return m.availabilityFunc(ctx, rawToken)
}

func (m *mockBookingService) Book(ctx context.Context, req *model.BookRequest) (*service.BookingResult, error) {
	return m.bookFunc(ctx, req)
}

func (m *mockBookingService) List(ctx context.Context, filter model.BookingFilter) ([]*model.MeetingBooking, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*model.MeetingBooking{}, 0, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.MeetingBooking, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, id string, req *model.StatusUpdateRequest) (*model.MeetingBooking, error) {
	return m.updateStatusFunc(ctx, id, req)
}

type mockSlotService struct {
	listFunc     func(ctx context.Context, filter model.SlotFilter) ([]*model.MeetingSlot, int64, error)
	deleteFunc   func(ctx context.Context, id string) error
	generateFunc func(ctx context.Context, req *model.GenerateSlotsRequest) (*service.GenerateResult, error)
}

func (m *mockSlotService) Create(ctx context.Context, slot *model.MeetingSlot) error {
	slot.ID = "65f000000000000000000001"
	return nil
}

func (m *mockSlotService) GetByID(ctx context.Context, id string) (*model.MeetingSlot, error) {
	return &model.MeetingSlot{ID: id}, nil
}

func (m *mockSlotService) List(ctx context.Context, filter model.SlotFilter) ([]*model.MeetingSlot, int64, error) {
	return m.listFunc(ctx, filter)
}

func (m *mockSlotService) Update(ctx context.Context, id string, update *model.MeetingSlotUpdate) (*model.MeetingSlot, error) {
	return &model.MeetingSlot{ID: id}, nil
}

func (m *mockSlotService) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockSlotService) Generate(ctx context.Context, req *model.GenerateSlotsRequest) (*service.GenerateResult, error) {
	return m.generateFunc(ctx, req)
}

type mockLeadService struct {
	proposeFunc func(ctx context.Context, leadID string, req *model.ProposalRequest, createdBy string) (*service.ProposalResult, error)
}

func (m *mockLeadService) Create(ctx context.Context, lead *model.Lead) error { return nil }

func (m *mockLeadService) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	return nil, apperrors.LeadNotFound()
}

func (m *mockLeadService) Activities(ctx context.Context, id string, limit int, offset int64) ([]*model.LeadActivity, int64, error) {
	return []*model.LeadActivity{}, 0, nil
}

func (m *mockLeadService) ProposeMeeting(ctx context.Context, leadID string, req *model.ProposalRequest, createdBy string) (*service.ProposalResult, error) {
	return m.proposeFunc(ctx, leadID, req, createdBy)
}

type testServer struct {
	router   *httprouter.Router
	signer   *auth.Signer
	bookings *mockBookingService
	slots    *mockSlotService
	leads    *mockLeadService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	signer, err := auth.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	log := logger.Discard()
	s := &testServer{
		router:   httprouter.New(),
		signer:   signer,
		bookings: &mockBookingService{},
		slots:    &mockSlotService{},
		leads:    &mockLeadService{},
	}
	store := middleware.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(store.Stop)

	NewRouter(
		NewBookingHandler(s.bookings, log),
		NewSlotHandler(s.slots, log),
		NewLeadHandler(s.leads, log),
		signer,
		store,
		log,
	).RegisterRoutes(s.router)
	return s
}

func (s *testServer) token(t *testing.T, role auth.Role) string {
	t.Helper()
	token, err := s.signer.GenerateToken(auth.Claims{Subject: "admin-1", Email: "admin@glec.io", Role: role})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestAvailability(t *testing.T) {
	s := newTestServer(t)
	s.bookings.availabilityFunc = func(ctx context.Context, token string) (*service.Availability, error) {
		if token != "abc" {
			return nil, apperrors.TokenExpired()
		}
		return &service.Availability{
			TokenValid: true,
			SlotsByDate: map[string][]service.AvailableSlot{
				"2026-03-04": {{ID: "s1", Title: "Demo", AvailableSpots: 1}},
			},
			TotalSlots: 1,
			Timezone:   "UTC",
		}, nil
	}

	rec := s.do(t, http.MethodGet, "/api/meetings/availability?token=abc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.True(t, env.Success)
	var data struct {
		TokenValid  bool                        `json:"token_valid"`
		SlotsByDate map[string][]map[string]any `json:"slots_by_date"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.TokenValid)
	assert.Len(t, data.SlotsByDate["2026-03-04"], 1)

	rec = s.do(t, http.MethodGet, "/api/meetings/availability?token=old", "", nil)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, apperrors.CodeTokenExpired, decode(t, rec).Error.Code)

	rec = s.do(t, http.MethodGet, "/api/meetings/availability", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidToken, decode(t, rec).Error.Code)
}

func TestBook(t *testing.T) {
	s := newTestServer(t)
	s.bookings.bookFunc = func(ctx context.Context, req *model.BookRequest) (*service.BookingResult, error) {
		if req.MeetingSlotID == "taken" {
			return nil, apperrors.SlotNotAvailable()
		}
		return &service.BookingResult{
			BookingID:     "b1",
			BookingStatus: model.BookingConfirmed,
			MeetingSlot:   service.BookedSlot{Title: "Demo"},
		}, nil
	}

	rec := s.do(t, http.MethodPost, "/api/meetings/book", `{"token":"t","meeting_slot_id":"s1"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	assert.Equal(t, "b1", result["booking_id"])
	assert.Equal(t, false, result["confirmation_sent"])

	rec = s.do(t, http.MethodPost, "/api/meetings/book", `{"token":"t","meeting_slot_id":"taken"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeSlotNotAvailable, decode(t, rec).Error.Code)

	rec = s.do(t, http.MethodPost, "/api/meetings/book", `{"token":"t","unknown":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decode(t, rec).Error.Code)
}

func TestBook_IdempotencyKeyReplays(t *testing.T) {
	s := newTestServer(t)
	var calls int32
	s.bookings.bookFunc = func(ctx context.Context, req *model.BookRequest) (*service.BookingResult, error) {
		atomic.AddInt32(&calls, 1)
		return &service.BookingResult{BookingID: "b1", BookingStatus: model.BookingConfirmed}, nil
	}

	headers := map[string]string{"Idempotency-Key": "k-1"}
	first := s.do(t, http.MethodPost, "/api/meetings/book", `{"token":"t","meeting_slot_id":"s1"}`, headers)
	second := s.do(t, http.MethodPost, "/api/meetings/book", `{"token":"t","meeting_slot_id":"s1"}`, headers)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAdminRoutes_RequireAuth(t *testing.T) {
	s := newTestServer(t)
	s.slots.listFunc = func(ctx context.Context, filter model.SlotFilter) ([]*model.MeetingSlot, int64, error) {
		return []*model.MeetingSlot{}, 0, nil
	}

	rec := s.do(t, http.MethodGet, "/api/admin/meetings/slots", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	analyst := map[string]string{"Authorization": "Bearer " + s.token(t, auth.RoleAnalyst)}
	rec = s.do(t, http.MethodGet, "/api/admin/meetings/slots", "", analyst)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/meetings/bookings", "", analyst)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/meetings/slots", "", map[string]string{"Authorization": "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSlotList_ParsesFilters(t *testing.T) {
	s := newTestServer(t)
	var got model.SlotFilter
	s.slots.listFunc = func(ctx context.Context, filter model.SlotFilter) ([]*model.MeetingSlot, int64, error) {
		got = filter
		return []*model.MeetingSlot{{ID: "s1"}}, 7, nil
	}
	admin := map[string]string{"Authorization": "Bearer " + s.token(t, auth.RoleContentManager)}

	rec := s.do(t, http.MethodGet,
		"/api/admin/meetings/slots?meeting_type=DEMO&status=AVAILABLE&from=2026-03-01T00:00:00Z&limit=500&offset=5", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, model.MeetingTypeDemo, got.MeetingType)
	assert.Equal(t, model.SlotAvailable, got.Status)
	require.NotNil(t, got.From)
	assert.True(t, got.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, got.To)
	assert.Equal(t, 100, got.Limit)
	assert.Equal(t, int64(5), got.Offset)

	var page struct {
		TotalCount int64 `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	assert.Equal(t, int64(7), page.TotalCount)

	for _, query := range []string{"?meeting_type=WEBINAR", "?status=GONE", "?from=yesterday", "?limit=ten"} {
		rec = s.do(t, http.MethodGet, "/api/admin/meetings/slots"+query, "", admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestSlotDelete(t *testing.T) {
	s := newTestServer(t)
	s.slots.deleteFunc = func(ctx context.Context, id string) error {
		if id == "busy" {
			return apperrors.SlotHasBookings()
		}
		return nil
	}
	admin := map[string]string{"Authorization": "Bearer " + s.token(t, auth.RoleSuperAdmin)}

	rec := s.do(t, http.MethodDelete, "/api/admin/meetings/slots/free", "", admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/admin/meetings/slots/busy", "", admin)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeSlotHasBookings, decode(t, rec).Error.Code)
}

func TestSlotGenerate_EmptyBody(t *testing.T) {
	s := newTestServer(t)
	var got *model.GenerateSlotsRequest
	s.slots.generateFunc = func(ctx context.Context, req *model.GenerateSlotsRequest) (*service.GenerateResult, error) {
		got = req
		return &service.GenerateResult{Candidates: 3, Created: 3}, nil
	}
	admin := map[string]string{"Authorization": "Bearer " + s.token(t, auth.RoleContentManager)}

	rec := s.do(t, http.MethodPost, "/api/admin/meetings/slots/generate", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Zero(t, got.DaysAhead)

	rec = s.do(t, http.MethodPost, "/api/admin/meetings/slots/generate", `{"days_ahead":10}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, got.DaysAhead)
}

func TestUpdateStatus(t *testing.T) {
	s := newTestServer(t)
	s.bookings.updateStatusFunc = func(ctx context.Context, id string, req *model.StatusUpdateRequest) (*model.MeetingBooking, error) {
		if req.Status == model.BookingPending {
			return nil, apperrors.InvalidStatusTransition("CONFIRMED", "PENDING")
		}
		return &model.MeetingBooking{ID: id, Status: req.Status}, nil
	}

	analyst := map[string]string{"Authorization": "Bearer " + s.token(t, auth.RoleAnalyst)}
	rec := s.do(t, http.MethodPatch, "/api/admin/meetings/bookings/b1/status", `{"status":"CANCELLED"}`, analyst)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := map[string]string{"Authorization": "Bearer " + s.token(t, auth.RoleContentManager)}
	rec = s.do(t, http.MethodPatch, "/api/admin/meetings/bookings/b1/status", `{"status":"CANCELLED"}`, admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/admin/meetings/bookings/b1/status", `{"status":"PENDING"}`, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidStatusTransition, decode(t, rec).Error.Code)
}

func TestBookingList_RejectsUnknownStatus(t *testing.T) {
	s := newTestServer(t)
	analyst := map[string]string{"Authorization": "Bearer " + s.token(t, auth.RoleAnalyst)}

	rec := s.do(t, http.MethodGet, "/api/admin/meetings/bookings?status=LOST", "", analyst)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProposeMeeting_RecordsAdmin(t *testing.T) {
	s := newTestServer(t)
	var createdBy string
	var adminEmail string
	s.leads.proposeFunc = func(ctx context.Context, leadID string, req *model.ProposalRequest, by string) (*service.ProposalResult, error) {
		createdBy, adminEmail = by, req.AdminEmail
		if leadID == "missing" {
			return nil, apperrors.LeadNotFound()
		}
		return &service.ProposalResult{TokenID: "tk1", BookingURL: "https://glec.io/meetings/schedule/x", EmailSent: true}, nil
	}
	admin := map[string]string{"Authorization": "Bearer " + s.token(t, auth.RoleContentManager)}

	rec := s.do(t, http.MethodPost, "/api/admin/leads/l1/meeting-proposal", "", admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin-1", createdBy)
	assert.Equal(t, "admin@glec.io", adminEmail)

	rec = s.do(t, http.MethodPost, "/api/admin/leads/missing/meeting-proposal", `{"expires_in_days":3}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.CodeLeadNotFound, decode(t, rec).Error.Code)
}

type stubMongo struct{ err error }

func (s stubMongo) Ping(context.Context, *readpref.ReadPref) error { return s.err }

type stubRedis struct{ err error }

func (s stubRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		mongo  stubMongo
		redis  redisPinger
		status int
		body   HealthResponse
	}{
		{"mongo only", stubMongo{}, nil, http.StatusOK, HealthResponse{Status: "ready", Database: "ok"}},
		{"mongo down", stubMongo{err: errors.New("no primary")}, nil, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "error"}},
		{"redis ok", stubMongo{}, stubRedis{}, http.StatusOK, HealthResponse{Status: "ready", Database: "ok", Redis: "ok"}},
		{"redis down", stubMongo{}, stubRedis{err: errors.New("dial tcp")}, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "ok", Redis: "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(tt.mongo, tt.redis, logger.Discard()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, rec.Code)
			var body HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.body, body)
		})
	}
}
