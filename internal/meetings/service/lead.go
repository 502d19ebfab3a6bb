package service

import (
	"context"
	"errors"
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
	"glec/pkg/locale"
	"glec/pkg/model"
	"glec/pkg/sanitizer"
)

const bookingPath = "/meetings/schedule/"

type LeadService interface {
	Create(ctx context.Context, lead *model.Lead) error
	GetByID(ctx context.Context, id string) (*model.Lead, error)
	Activities(ctx context.Context, id string, limit int, offset int64) ([]*model.LeadActivity, int64, error)
	ProposeMeeting(ctx context.Context, leadID string, req *model.ProposalRequest, createdBy string) (*ProposalResult, error)
}

// ProposalResult is the only place the raw token is ever returned.
type ProposalResult struct {
	TokenID       string    `json:"token_id"`
	Token         string    `json:"token"`
	BookingURL    string    `json:"booking_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	ProposedSlots int64     `json:"proposed_slots"`
	EmailSent     bool      `json:"email_sent"`
	EmailID       string    `json:"email_id,omitempty"`
}

type leadService struct {
	leads      repository.LeadRepository
	tokens     repository.TokenRepository
	slots      repository.SlotRepository
	activities repository.ActivityRepository
	validator  *validator.MeetingValidator
	notifier   Notifier
	publisher  events.Publisher
	cfg        *config.Config
	now        func() time.Time
	newToken   func() (string, string, error)
}

func NewLeadService(
	leads repository.LeadRepository,
	tokens repository.TokenRepository,
	slots repository.SlotRepository,
	activities repository.ActivityRepository,
	validator *validator.MeetingValidator,
	notifier Notifier,
	publisher events.Publisher,
	cfg *config.Config,
) LeadService {
	return &leadService{
		leads:      leads,
		tokens:     tokens,
		slots:      slots,
		activities: activities,
		validator:  validator,
		notifier:   notifier,
		publisher:  publisher,
		cfg:        cfg,
		now:        clock,
		newToken:   NewBookingToken,
	}
}

func (s *leadService) Create(ctx context.Context, lead *model.Lead) error {
	rawPhone := lead.Phone
	lead.CompanyName = sanitizer.NormalizeName(lead.CompanyName)
	lead.ContactName = sanitizer.NormalizeName(lead.ContactName)
	lead.Email = sanitizer.SanitizeEmail(lead.Email)
	lead.Timezone = strings.TrimSpace(lead.Timezone)
	lead.Phone = sanitizer.NormalizePhoneIn(rawPhone, locale.DetectRegion(lead.Timezone))
	lead.LeadSource = sanitizer.NormalizeName(lead.LeadSource)
	lead.LeadSourceDetail = sanitizer.NormalizeName(lead.LeadSourceDetail)

	if rawPhone != "" && lead.Phone == "" {
		return apperrors.Validation("Lead validation failed", map[string]any{
			"fields": validator.ValidationErrors{{Field: "phone", Message: "phone is not a valid KR or US number"}},
		})
	}
	if err := s.validator.ValidateLead(lead); err != nil {
		s.cfg.Log.Warn("Lead validation failed", "error", err)
		return validationError("Lead validation failed", err)
	}
	if lead.Timezone == "" && lead.Phone != "" {
		lead.Timezone = locale.InferTimezoneFromPhone(lead.Phone)
	}

	now := s.now()
	lead.ID = ""
	lead.LastContactedAt = nil
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if err := s.leads.Create(ctx, lead); err != nil {
		s.cfg.Log.Error("Failed to create lead", "error", err)
		return apperrors.Internal("Failed to create lead", err)
	}

	s.cfg.Log.Info("Lead created successfully", "id", lead.ID, "lead_type", lead.LeadType)
	return nil
}

func (s *leadService) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Lead ID cannot be empty")
	}

	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, meetingserrors.ErrLeadNotFound) {
			return nil, apperrors.LeadNotFound()
		}
		if errors.Is(err, meetingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid lead ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve lead", err)
	}
	return lead, nil
}

func (s *leadService) Activities(ctx context.Context, id string, limit int, offset int64) ([]*model.LeadActivity, int64, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}

	var count int64
	var activities []*model.LeadActivity
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.activities.CountByLead(ctx, id)
	}()

	go func() {
		defer wg.Done()
		activities, errFind = s.activities.ListByLead(ctx, id, limit, offset)
	}()

	wg.Wait()
	if err := errors.Join(errCount, errFind); err != nil {
		s.cfg.Log.Error("Failed to load lead activities", "lead_id", id, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve lead activities", err)
	}
	return activities, count, nil
}

// ProposeMeeting issues a booking token for the lead and emails the link.
// The token is stored even when the email fails so the link can be resent.
func (s *leadService) ProposeMeeting(ctx context.Context, leadID string, req *model.ProposalRequest, createdBy string) (*ProposalResult, error) {
	if req == nil {
		req = &model.ProposalRequest{}
	}
	req.OfferedSlotIDs = sanitizer.NormalizeIDs(req.OfferedSlotIDs)
	req.MeetingPurpose = sanitizer.SanitizeAgenda(req.MeetingPurpose)
	req.AdminName = sanitizer.NormalizeName(req.AdminName)
	req.AdminEmail = sanitizer.SanitizeEmail(req.AdminEmail)
	if err := s.validator.ValidateProposal(req); err != nil {
		return nil, validationError("Invalid meeting proposal", err)
	}

	lead, err := s.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Email == "" {
		return nil, apperrors.Validation("Lead has no email address", map[string]any{"lead_id": leadID})
	}

	now := s.now()
	proposed, err := s.countProposable(ctx, req.OfferedSlotIDs, now)
	if err != nil {
		s.cfg.Log.Error("Failed to count available slots", "error", err)
		return nil, apperrors.Internal("Failed to check meeting availability", err)
	}
	if proposed == 0 {
		return nil, apperrors.NoSlotsAvailable()
	}

	ttl := s.cfg.TokenTTL
	if req.ExpiresInDays > 0 {
		ttl = time.Duration(req.ExpiresInDays) * 24 * time.Hour
	}

	raw, hash, err := s.newToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to issue booking token", err)
	}

	token := &model.BookingToken{
		TokenHash:      hash,
		LeadID:         lead.ID,
		LeadType:       lead.LeadType,
		OfferedSlotIDs: req.OfferedSlotIDs,
		ExpiresAt:      now.Add(ttl),
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		s.cfg.Log.Error("Failed to store booking token", "lead_id", lead.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue booking token", err)
	}

	result := &ProposalResult{
		TokenID:       token.ID,
		Token:         raw,
		BookingURL:    s.cfg.PublicBaseURL + bookingPath + raw,
		ExpiresAt:     token.ExpiresAt,
		ProposedSlots: proposed,
	}

	sent, err := s.notifier.SendProposal(ctx, notification.ProposalData{
		TokenID:           token.ID,
		RecipientEmail:    lead.Email,
		ContactName:       lead.ContactName,
		CompanyName:       lead.CompanyName,
		LeadSourceDetail:  lead.LeadSourceDetail,
		MeetingPurpose:    req.MeetingPurpose,
		ProposedSlotCount: int(proposed),
		BookingURL:        result.BookingURL,
		ExpiresAt:         token.ExpiresAt,
		Timezone:          lead.Timezone,
		AdminName:         req.AdminName,
		AdminEmail:        req.AdminEmail,
		AdminPhone:        req.AdminPhone,
	})
	if err != nil {
		s.cfg.Log.WarnContext(ctx, "Meeting proposal stored without email", "token_id", token.ID, "error", err)
	} else {
		result.EmailSent = true
		result.EmailID = sent.EmailID
	}

	if err := s.leads.TouchLastContacted(ctx, lead.ID, now); err != nil {
		s.cfg.Log.WarnContext(ctx, "Failed to update last_contacted_at", "lead_id", lead.ID, "error", err)
	}

	adminName := req.AdminName
	if adminName == "" {
		adminName = s.notifier.Admin().Name
	}
	s.publish(ctx, events.New(events.MeetingProposed, lead.ID, lead.LeadType, "미팅 일정 제안 이메일 발송", map[string]any{
		"token_id":       token.ID,
		"email_id":       result.EmailID,
		"email_sent":     result.EmailSent,
		"proposed_slots": proposed,
		"admin_name":     adminName,
		"expires_at":     token.ExpiresAt,
	}, now))

	s.cfg.Log.Info("Meeting proposed",
		"lead_id", lead.ID,
		"token_id", token.ID,
		"proposed_slots", proposed,
		"email_sent", result.EmailSent,
	)
	return result, nil
}

// countProposable counts slots the lead could book right now: the offered
// ones inside the availability window, or any slot inside the lookahead.
func (s *leadService) countProposable(ctx context.Context, offered []string, now time.Time) (int64, error) {
	if len(offered) == 0 {
		return s.slots.CountAvailable(ctx, now, now.Add(s.cfg.ProposalLookahead))
	}

	slots, err := s.slots.FindAvailable(ctx, now, now.Add(s.cfg.AvailabilityWindow), offered)
	if err != nil {
		return 0, err
	}
	return int64(len(slots)), nil
}

func (s *leadService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.WarnContext(ctx, "Failed to publish event", "event_type", event.Type, "lead_id", event.LeadID, "error", err)
	}
}
