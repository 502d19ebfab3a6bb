package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"glec/internal/events"
	meetingserrors "glec/internal/meetings/errors"
	"glec/internal/meetings/repository"
	"glec/internal/meetings/validator"
	"glec/internal/notification"
	"glec/pkg/config"
	apperrors "glec/pkg/errors"
	"glec/pkg/model"
	"glec/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	ValidateToken(ctx context.Context, rawToken string) (*TokenContext, error)
	GetAvailability(ctx context.Context, rawToken string) (*Availability, error)
	Book(ctx context.Context, req *model.BookRequest) (*BookingResult, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.MeetingBooking, int64, error)
	GetByID(ctx context.Context, id string) (*model.MeetingBooking, error)
	UpdateStatus(ctx context.Context, id string, req *model.StatusUpdateRequest) (*model.MeetingBooking, error)
}

// TokenContext is a token that passed validation together with its lead.
type TokenContext struct {
	Token *model.BookingToken
	Lead  *model.Lead
}

type AvailableSlot struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description,omitempty"`
	MeetingType     model.MeetingType     `json:"meeting_type"`
	DurationMinutes int                   `json:"duration_minutes"`
	MeetingLocation model.MeetingLocation `json:"meeting_location"`
	StartTime       time.Time             `json:"start_time"`
	EndTime         time.Time             `json:"end_time"`
	Timezone        string                `json:"timezone"`
	AvailableSpots  int                   `json:"available_spots"`
}

// Availability is the public view behind a booking link. encoding/json
// writes SlotsByDate keys in sorted order, which is date order.
type Availability struct {
	TokenValid  bool                       `json:"token_valid"`
	ExpiresAt   time.Time                  `json:"expires_at"`
	LeadInfo    model.LeadInfo             `json:"lead_info"`
	SlotsByDate map[string][]AvailableSlot `json:"slots_by_date"`
	TotalSlots  int                        `json:"total_slots"`
	Timezone    string                     `json:"timezone"`
}

type BookedSlot struct {
	Title      string    `json:"title"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	MeetingURL string    `json:"meeting_url,omitempty"`
}

type BookingResult struct {
	BookingID        string              `json:"booking_id"`
	MeetingSlot      BookedSlot          `json:"meeting_slot"`
	BookingStatus    model.BookingStatus `json:"booking_status"`
	ConfirmationSent bool                `json:"confirmation_sent"`
	EmailID          string              `json:"email_id,omitempty"`
}

// confirmationMargin is the most time kept back from the request deadline
// for writing the response after the confirmation email.
const confirmationMargin = time.Second

type bookingService struct {
	slots     repository.SlotRepository
	tokens    repository.TokenRepository
	bookings  repository.BookingRepository
	leads     repository.LeadRepository
	validator *validator.MeetingValidator
	notifier  Notifier
	publisher events.Publisher
	cfg       *config.Config
	groupZone *time.Location
	now       func() time.Time
}

func NewBookingService(
	slots repository.SlotRepository,
	tokens repository.TokenRepository,
	bookings repository.BookingRepository,
	leads repository.LeadRepository,
	validator *validator.MeetingValidator,
	notifier Notifier,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	zone, err := time.LoadLocation(cfg.AvailabilityGroupTimezone)
	if err != nil {
		zone = time.UTC
	}
	return &bookingService{
		slots:     slots,
		tokens:    tokens,
		bookings:  bookings,
		leads:     leads,
		validator: validator,
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg,
		groupZone: zone,
		now:       clock,
	}
}

// ValidateToken checks format, existence, expiry and use, in that order.
// It never writes.
func (s *bookingService) ValidateToken(ctx context.Context, rawToken string) (*TokenContext, error) {
	rawToken = strings.TrimSpace(rawToken)
	if !validator.IsBookingToken(rawToken) {
		return nil, apperrors.InvalidToken()
	}

	token, err := s.tokens.FindByHash(ctx, HashToken(rawToken))
	if err != nil {
		if errors.Is(err, meetingserrors.ErrTokenNotFound) {
			return nil, apperrors.TokenNotFound()
		}
		s.cfg.Log.ErrorContext(ctx, "Failed to look up booking token", "error", err)
		return nil, apperrors.Internal("Failed to validate token", err)
	}

	if token.Expired(s.now()) {
		return nil, apperrors.TokenExpired().WithDetails(map[string]any{"expires_at": token.ExpiresAt})
	}
	if token.Used {
		details := map[string]any{}
		if token.UsedAt != nil {
			details["used_at"] = *token.UsedAt
		}
		return nil, apperrors.TokenAlreadyUsed().WithDetails(details)
	}

	lead, err := s.leads.FindByID(ctx, token.LeadID)
	if err != nil {
		if errors.Is(err, meetingserrors.ErrLeadNotFound) || errors.Is(err, meetingserrors.ErrInvalidID) {
			return nil, apperrors.LeadNotFound()
		}
		return nil, apperrors.Internal("Failed to load lead", err)
	}

	return &TokenContext{Token: token, Lead: lead}, nil
}

func (s *bookingService) GetAvailability(ctx context.Context, rawToken string) (*Availability, error) {
	tc, err := s.ValidateToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	slots, err := s.slots.FindAvailable(ctx, now, now.Add(s.cfg.AvailabilityWindow), tc.Token.OfferedSlotIDs)
	if err != nil {
		s.cfg.Log.ErrorContext(ctx, "Failed to query available slots", "error", err)
		return nil, apperrors.Internal("Failed to fetch meeting availability", err)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})

	byDate := make(map[string][]AvailableSlot)
	total := 0
	for _, slot := range slots {
		if !slot.Bookable(now) {
			continue
		}
		date := slot.StartTime.In(s.groupZone).Format(time.DateOnly)
		byDate[date] = append(byDate[date], toAvailableSlot(slot))
		total++
	}

	return &Availability{
		TokenValid:  true,
		ExpiresAt:   tc.Token.ExpiresAt,
		LeadInfo:    tc.Lead.Info(),
		SlotsByDate: byDate,
		TotalSlots:  total,
		Timezone:    s.groupZone.String(),
	}, nil
}

func toAvailableSlot(slot *model.MeetingSlot) AvailableSlot {
	return AvailableSlot{
		ID:              slot.ID,
		Title:           slot.Title,
		Description:     slot.Description,
		MeetingType:     slot.MeetingType,
		DurationMinutes: slot.DurationMinutes,
		MeetingLocation: slot.MeetingLocation,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		Timezone:        slot.Timezone,
		AvailableSpots:  slot.AvailableSpots(),
	}
}

// Book consumes the token, claims a spot and records the booking in one
// transaction. The confirmation email goes out after commit and its outcome
// only affects confirmation_sent.
func (s *bookingService) Book(ctx context.Context, req *model.BookRequest) (*BookingResult, error) {
	req.Token = strings.TrimSpace(req.Token)
	req.MeetingSlotID = strings.TrimSpace(req.MeetingSlotID)
	req.RequestedAgenda = sanitizer.SanitizeAgenda(req.RequestedAgenda)

	if !validator.IsBookingToken(req.Token) {
		return nil, apperrors.InvalidToken()
	}
	if err := s.validator.ValidateBookRequest(req); err != nil {
		s.cfg.Log.WarnContext(ctx, "Booking request validation failed", "error", err)
		return nil, validationError("Invalid booking request", err)
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.BookingTimeout)
	defer cancel()

	now := s.now()
	hash := HashToken(req.Token)

	var (
		booking *model.MeetingBooking
		slot    *model.MeetingSlot
		lead    *model.Lead
	)
	err := s.bookings.ExecuteTransaction(txCtx, func(sessCtx mongo.SessionContext) error {
		token, err := s.tokens.Consume(sessCtx, hash, now)
		if err != nil {
			return consumeError(err)
		}
		if !token.Offers(req.MeetingSlotID) {
			return apperrors.SlotNotAvailable()
		}

		if err := s.slots.Reserve(sessCtx, req.MeetingSlotID, now); err != nil {
			if errors.Is(err, meetingserrors.ErrSlotUnavailable) {
				return apperrors.SlotNotAvailable()
			}
			return err
		}

		lead, err = s.leads.FindByID(sessCtx, token.LeadID)
		if err != nil {
			if errors.Is(err, meetingserrors.ErrLeadNotFound) || errors.Is(err, meetingserrors.ErrInvalidID) {
				return apperrors.LeadNotFound()
			}
			return err
		}

		slot, err = s.slots.FindByID(sessCtx, req.MeetingSlotID)
		if err != nil {
			return err
		}

		booking = &model.MeetingBooking{
			MeetingSlotID:   req.MeetingSlotID,
			LeadID:          token.LeadID,
			LeadType:        token.LeadType,
			TokenID:         token.ID,
			CompanyName:     lead.CompanyName,
			ContactName:     lead.ContactName,
			Email:           lead.Email,
			Phone:           lead.Phone,
			RequestedAgenda: req.RequestedAgenda,
			Status:          model.BookingConfirmed,
			ConfirmedAt:     &now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.bookings.Create(sessCtx, booking); err != nil {
			if errors.Is(err, meetingserrors.ErrDuplicateBooking) {
				return apperrors.TokenAlreadyUsed()
			}
			return err
		}
		return nil
	})
	if err != nil {
		err = storeError(txCtx, err, "Booking did not complete in time")
		if apperrors.HasCode(err, apperrors.CodeUnavailable) {
			s.cfg.Log.ErrorContext(ctx, "Booking store unreachable", "meeting_slot_id", req.MeetingSlotID, "error", err)
			return nil, err
		}
		if apperrors.IsAppError(err) {
			s.cfg.Log.WarnContext(ctx, "Booking rejected", "meeting_slot_id", req.MeetingSlotID, "error", err)
			return nil, err
		}
		s.cfg.Log.ErrorContext(ctx, "Booking transaction failed", "meeting_slot_id", req.MeetingSlotID, "error", err)
		return nil, apperrors.Internal("Failed to book meeting", err)
	}

	s.cfg.Log.InfoContext(ctx, "Meeting booked",
		"booking_id", booking.ID,
		"meeting_slot_id", slot.ID,
		"lead_id", booking.LeadID,
		"start_time", slot.StartTime,
	)

	s.publish(ctx, events.New(events.BookingCreated, booking.LeadID, booking.LeadType, "미팅 예약 완료", map[string]any{
		"booking_id":      booking.ID,
		"meeting_slot_id": slot.ID,
		"start_time":      slot.StartTime,
		"end_time":        slot.EndTime,
	}, now))

	result := &BookingResult{
		BookingID: booking.ID,
		MeetingSlot: BookedSlot{
			Title:      slot.Title,
			StartTime:  slot.StartTime,
			EndTime:    slot.EndTime,
			MeetingURL: slot.MeetingURL,
		},
		BookingStatus: booking.Status,
	}

	sendCtx, cancelSend, ok := s.confirmationContext(ctx)
	if !ok {
		s.cfg.Log.WarnContext(ctx, "No time left to send confirmation email", "booking_id", booking.ID)
		return result, nil
	}
	defer cancelSend()

	sent, err := s.notifier.SendConfirmation(sendCtx, confirmationData(booking, slot))
	if err != nil {
		s.cfg.Log.WarnContext(ctx, "Booking confirmed without confirmation email", "booking_id", booking.ID, "error", err)
		return result, nil
	}

	result.ConfirmationSent = true
	result.EmailID = sent.EmailID

	markCtx, cancelMark := detachedUntilDeadline(ctx)
	defer cancelMark()
	if err := s.bookings.MarkConfirmationSent(markCtx, booking.ID, sent.EmailID, s.now()); err != nil {
		s.cfg.Log.WarnContext(ctx, "Failed to flag confirmation as sent", "booking_id", booking.ID, "error", err)
	}

	s.publish(ctx, events.New(events.EmailSent, booking.LeadID, booking.LeadType, "미팅 확인 이메일 발송", map[string]any{
		"email_id":   sent.EmailID,
		"email_type": "MEETING_CONFIRMATION",
		"booking_id": booking.ID,
	}, s.now()))

	return result, nil
}

// confirmationContext survives a client disconnect but ends early enough
// for the booking response to be written before the request deadline.
// ok is false when no time is left for the send.
func (s *bookingService) confirmationContext(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	budget := s.cfg.NotificationTimeout
	if deadline, hasDeadline := ctx.Deadline(); hasDeadline {
		remaining := time.Until(deadline)
		remaining -= min(remaining/4, confirmationMargin)
		if remaining <= 0 {
			return nil, nil, false
		}
		if budget <= 0 || remaining < budget {
			budget = remaining
		}
	}

	detached := context.WithoutCancel(ctx)
	if budget <= 0 {
		sendCtx, cancel := context.WithCancel(detached)
		return sendCtx, cancel, true
	}
	sendCtx, cancel := context.WithTimeout(detached, budget)
	return sendCtx, cancel, true
}

// detachedUntilDeadline ignores cancellation of ctx but keeps its deadline.
func detachedUntilDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return context.WithCancel(detached)
}

func consumeError(err error) error {
	switch {
	case errors.Is(err, meetingserrors.ErrTokenNotFound):
		return apperrors.TokenNotFound()
	case errors.Is(err, meetingserrors.ErrTokenExpired):
		return apperrors.TokenExpired()
	case errors.Is(err, meetingserrors.ErrTokenUsed), errors.Is(err, meetingserrors.ErrTokenNotConsumable):
		return apperrors.TokenAlreadyUsed()
	default:
		return err
	}
}

func confirmationData(b *model.MeetingBooking, slot *model.MeetingSlot) notification.ConfirmationData {
	return notification.ConfirmationData{
		BookingID:       b.ID,
		ContactName:     b.ContactName,
		CompanyName:     b.CompanyName,
		Email:           b.Email,
		Phone:           b.Phone,
		MeetingTitle:    slot.Title,
		MeetingType:     slot.MeetingType,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		DurationMinutes: slot.DurationMinutes,
		Timezone:        slot.Timezone,
		MeetingLocation: slot.MeetingLocation,
		MeetingURL:      slot.MeetingURL,
		OfficeAddress:   slot.OfficeAddress,
		RequestedAgenda: b.RequestedAgenda,
	}
}

func (s *bookingService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.WarnContext(ctx, "Failed to publish event", "event_type", event.Type, "lead_id", event.LeadID, "error", err)
	}
}

func (s *bookingService) List(ctx context.Context, filter model.BookingFilter) ([]*model.MeetingBooking, int64, error) {
	filter.Search = sanitizer.SanitizeSearch(filter.Search)

	var count int64
	var bookings []*model.MeetingBooking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.bookings.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.bookings.List(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.MeetingBooking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.FindByID(ctx, booking.MeetingSlotID)
	switch {
	case err == nil:
		booking.Slot = slot
	case errors.Is(err, meetingserrors.ErrSlotNotFound), errors.Is(err, meetingserrors.ErrInvalidID):
		s.cfg.Log.WarnContext(ctx, "Booking references a missing slot", "booking_id", id, "meeting_slot_id", booking.MeetingSlotID)
	default:
		return nil, apperrors.Internal("Failed to load meeting slot", err)
	}

	return booking, nil
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.MeetingBooking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, meetingserrors.ErrBookingNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, meetingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

// UpdateStatus applies a state machine transition. Cancelling also gives
// the slot spot back, in the same transaction.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, req *model.StatusUpdateRequest) (*model.MeetingBooking, error) {
	req.CancellationReason = sanitizer.SanitizeAgenda(req.CancellationReason)
	if err := s.validator.ValidateStatusUpdate(req); err != nil {
		return nil, validationError("Invalid status update", err)
	}

	current, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(current.Status, req.Status) {
		return nil, apperrors.InvalidStatusTransition(string(current.Status), string(req.Status))
	}

	now := s.now()
	change := repository.StatusChange{To: req.Status, CancellationReason: req.CancellationReason, At: now}

	var updated *model.MeetingBooking
	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		b, err := s.bookings.Transition(sessCtx, id, change)
		if err != nil {
			return err
		}
		if req.Status == model.BookingCancelled {
			if err := s.slots.Release(sessCtx, b.MeetingSlotID, now); err != nil {
				if !errors.Is(err, meetingserrors.ErrSlotNotFound) {
					return err
				}
				s.cfg.Log.WarnContext(ctx, "No spot to release for cancelled booking",
					"booking_id", id, "meeting_slot_id", b.MeetingSlotID)
			}
		}
		updated = b
		return nil
	})
	if err != nil {
		if errors.Is(err, meetingserrors.ErrInvalidTransition) {
			from := current.Status
			if latest, findErr := s.bookings.FindByID(ctx, id); findErr == nil {
				from = latest.Status
			}
			return nil, apperrors.InvalidStatusTransition(string(from), string(req.Status))
		}
		if errors.Is(err, meetingserrors.ErrBookingNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.ErrorContext(ctx, "Failed to update booking status", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update booking status", err)
	}

	s.cfg.Log.InfoContext(ctx, "Booking status changed",
		"id", id,
		"from", current.Status,
		"to", updated.Status,
	)

	metadata := map[string]any{
		"booking_id": id,
		"from":       current.Status,
		"to":         updated.Status,
	}
	if updated.CancellationReason != "" {
		metadata["cancellation_reason"] = updated.CancellationReason
	}
	s.publish(ctx, events.New(events.BookingStatusChanged, updated.LeadID, updated.LeadType,
		"미팅 예약 상태 변경", metadata, now))

	return updated, nil
}
