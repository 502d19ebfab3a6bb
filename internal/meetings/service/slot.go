package service

import (
	"context"
	"errors"
	"sync"
	"time"

	meetingserrors "glec/internal/meetings/errors"
	"glec/internal/meetings/repository"
	"glec/internal/meetings/validator"
	"glec/pkg/config"
	apperrors "glec/pkg/errors"
	"glec/pkg/model"
	"glec/pkg/sanitizer"
)

const defaultSlotTimezone = "Asia/Seoul"

type SlotService interface {
	Create(ctx context.Context, slot *model.MeetingSlot) error
	GetByID(ctx context.Context, id string) (*model.MeetingSlot, error)
	List(ctx context.Context, filter model.SlotFilter) ([]*model.MeetingSlot, int64, error)
	Update(ctx context.Context, id string, update *model.MeetingSlotUpdate) (*model.MeetingSlot, error)
	Delete(ctx context.Context, id string) error
	Generate(ctx context.Context, req *model.GenerateSlotsRequest) (*GenerateResult, error)
}

type GenerateResult struct {
	Candidates int   `json:"candidates"`
	Created    int64 `json:"created"`
	Skipped    int64 `json:"skipped"`
}

type slotService struct {
	repo      repository.SlotRepository
	validator *validator.MeetingValidator
	hours     WorkingHours
	cfg       *config.Config
	now       func() time.Time
}

func NewSlotService(repo repository.SlotRepository, validator *validator.MeetingValidator, hours WorkingHours, cfg *config.Config) SlotService {
	return &slotService{
		repo:      repo,
		validator: validator,
		hours:     hours,
		cfg:       cfg,
		now:       clock,
	}
}

func (s *slotService) Create(ctx context.Context, slot *model.MeetingSlot) error {
	slot.ID = ""
	slot.CurrentBookings = 0
	slot.Generated = false
	s.applyDefaults(slot)
	s.sanitize(slot)

	if err := s.validator.ValidateSlot(slot); err != nil {
		s.cfg.Log.Warn("Meeting slot validation failed", "error", err)
		return validationError("Meeting slot validation failed", err)
	}

	now := s.now()
	slot.StartTime = slot.StartTime.UTC()
	slot.EndTime = slot.EndTime.UTC()
	slot.DurationMinutes = int(slot.EndTime.Sub(slot.StartTime).Minutes())
	slot.CreatedAt = now
	slot.UpdatedAt = now

	if err := s.repo.Create(ctx, slot); err != nil {
		s.cfg.Log.Error("Failed to create meeting slot", "error", err)
		return apperrors.Internal("Failed to create meeting slot", err)
	}

	s.cfg.Log.Info("Meeting slot created successfully",
		"id", slot.ID,
		"start_time", slot.StartTime,
		"max_bookings", slot.MaxBookings,
	)
	return nil
}

func (s *slotService) GetByID(ctx context.Context, id string) (*model.MeetingSlot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Meeting slot ID cannot be empty")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, slotError(err, id, "Failed to retrieve meeting slot")
	}
	return slot, nil
}

func (s *slotService) List(ctx context.Context, filter model.SlotFilter) ([]*model.MeetingSlot, int64, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperrors.InvalidInput("'to' must not be before 'from'")
	}

	var count int64
	var slots []*model.MeetingSlot
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count meeting slots", "error", errCount)
			errCount = apperrors.Internal("Failed to count meeting slots", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		slots, errFind = s.repo.List(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list meeting slots", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve meeting slots", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return slots, count, nil
}

func (s *slotService) Update(ctx context.Context, id string, update *model.MeetingSlotUpdate) (*model.MeetingSlot, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.sanitizeUpdate(update)
	if err := s.validator.ValidateSlotUpdate(update); err != nil {
		s.cfg.Log.Warn("Meeting slot update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	start, end := existing.StartTime, existing.EndTime
	if update.StartTime != nil {
		start = update.StartTime.UTC()
		update.StartTime = &start
	}
	if update.EndTime != nil {
		end = update.EndTime.UTC()
		update.EndTime = &end
	}
	if err := s.validator.ValidateWindow(start, end); err != nil {
		return nil, validationError("Invalid update input", err)
	}
	// Repository derives duration only from a full window.
	if update.StartTime != nil || update.EndTime != nil {
		update.StartTime, update.EndTime = &start, &end
	}

	if err := s.checkMergedLocation(existing, update); err != nil {
		return nil, err
	}

	if update.MaxBookings != nil && *update.MaxBookings < existing.CurrentBookings {
		return nil, apperrors.Conflict("max_bookings cannot be lower than current_bookings").
			WithDetails(map[string]any{"current_bookings": existing.CurrentBookings})
	}

	updated, err := s.repo.Update(ctx, id, update, s.now())
	if err != nil {
		if errors.Is(err, meetingserrors.ErrCapacityBelowBookings) {
			return nil, apperrors.Conflict("max_bookings cannot be lower than current_bookings")
		}
		return nil, slotError(err, id, "Failed to update meeting slot")
	}

	s.cfg.Log.Info("Meeting slot updated successfully", "id", id, "status", updated.Status)
	return updated, nil
}

func (s *slotService) checkMergedLocation(existing *model.MeetingSlot, update *model.MeetingSlotUpdate) error {
	merged := *existing
	if update.MeetingLocation != nil {
		merged.MeetingLocation = *update.MeetingLocation
	}
	if update.MeetingURL != nil {
		merged.MeetingURL = *update.MeetingURL
	}
	if update.OfficeAddress != nil {
		merged.OfficeAddress = *update.OfficeAddress
	}
	if merged.MeetingLocation == model.LocationOffice && merged.OfficeAddress == "" {
		return apperrors.Validation("Invalid update input", map[string]any{
			"fields": validator.ValidationErrors{{Field: "office_address", Message: "office_address is required for office meetings"}},
		})
	}
	return nil
}

func (s *slotService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Meeting slot ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, meetingserrors.ErrSlotHasBookings) {
			return apperrors.SlotHasBookings()
		}
		return slotError(err, id, "Failed to delete meeting slot")
	}

	s.cfg.Log.Info("Meeting slot deleted successfully", "id", id)
	return nil
}

// Generate creates missing working-hour slots. Running it twice creates
// nothing the second time.
func (s *slotService) Generate(ctx context.Context, req *model.GenerateSlotsRequest) (*GenerateResult, error) {
	if req == nil {
		req = &model.GenerateSlotsRequest{}
	}
	if err := s.validator.ValidateGenerate(req); err != nil {
		return nil, validationError("Invalid generate request", err)
	}

	now := s.now()
	starts, err := s.hours.Occurrences(now, req.DaysAhead)
	if err != nil {
		return nil, apperrors.Internal("Failed to expand working hours", err)
	}

	created, err := s.repo.UpsertGenerated(ctx, s.hours.Slots(starts, now))
	if err != nil {
		s.cfg.Log.Error("Failed to store generated slots", "error", err)
		return nil, apperrors.Internal("Failed to generate meeting slots", err)
	}

	result := &GenerateResult{
		Candidates: len(starts),
		Created:    created,
		Skipped:    int64(len(starts)) - created,
	}
	s.cfg.Log.Info("Working hour slots generated",
		"candidates", result.Candidates,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}

func slotError(err error, id, message string) error {
	switch {
	case errors.Is(err, meetingserrors.ErrSlotNotFound):
		return apperrors.NotFoundWithID("Meeting slot", id)
	case errors.Is(err, meetingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid meeting slot ID format")
	default:
		return apperrors.Internal(message, err)
	}
}

func (s *slotService) applyDefaults(slot *model.MeetingSlot) {
	if slot.Timezone == "" {
		slot.Timezone = defaultSlotTimezone
	}
	if slot.MaxBookings == 0 {
		slot.MaxBookings = 1
	}
	if slot.Status == "" {
		slot.Status = model.SlotAvailable
	}
	if slot.MeetingLocation == "" {
		slot.MeetingLocation = model.LocationOnline
	}
}

func (s *slotService) sanitize(slot *model.MeetingSlot) {
	slot.Title = sanitizer.NormalizeTitle(slot.Title)
	slot.Description = sanitizer.SanitizeAgenda(slot.Description)
	slot.MeetingURL = sanitizer.NormalizeMeetingURL(slot.MeetingURL)
	slot.OfficeAddress = sanitizer.NormalizeName(slot.OfficeAddress)
}

func (s *slotService) sanitizeUpdate(u *model.MeetingSlotUpdate) {
	if u.Title != nil {
		v := sanitizer.NormalizeTitle(*u.Title)
		u.Title = &v
	}
	if u.Description != nil {
		v := sanitizer.SanitizeAgenda(*u.Description)
		u.Description = &v
	}
	if u.MeetingURL != nil {
		v := sanitizer.NormalizeMeetingURL(*u.MeetingURL)
		u.MeetingURL = &v
	}
	if u.OfficeAddress != nil {
		v := sanitizer.NormalizeName(*u.OfficeAddress)
		u.OfficeAddress = &v
	}
}
