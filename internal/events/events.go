package events

import (
	"context"
	"fmt"
	"time"

	"glec/pkg/model"

	"github.com/google/uuid"
)

type Type string

const (
	MeetingProposed      Type = "meeting.proposed"
	BookingCreated       Type = "booking.created"
	EmailSent            Type = "email.sent"
	BookingStatusChanged Type = "booking.status_changed"
)

const Source = "meetings"

var activityTypes = map[Type]model.ActivityType{
	MeetingProposed:      model.ActivityMeetingProposed,
	BookingCreated:       model.ActivityMeetingBooked,
	EmailSent:            model.ActivityEmailSent,
	BookingStatusChanged: model.ActivityBookingStatusChanged,
}

// Event is a domain fact about a lead. It becomes one lead activity.
type Event struct {
	ID          string         `json:"event_id"`
	Type        Type           `json:"event_type"`
	LeadID      string         `json:"lead_id"`
	LeadType    model.LeadType `json:"lead_type,omitempty"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func New(t Type, leadID string, leadType model.LeadType, description string, metadata map[string]any, at time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		LeadID:      leadID,
		LeadType:    leadType,
		Description: description,
		Metadata:    metadata,
		OccurredAt:  at.UTC(),
	}
}

func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if e.LeadID == "" {
		return fmt.Errorf("event %s has no lead id", e.ID)
	}
	if _, ok := activityTypes[e.Type]; !ok {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("event %s has no occurred_at", e.ID)
	}
	return nil
}

func (e Event) ToActivity(now time.Time) (*model.LeadActivity, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &model.LeadActivity{
		EventID:      e.ID,
		LeadID:       e.LeadID,
		LeadType:     e.LeadType,
		ActivityType: activityTypes[e.Type],
		Description:  e.Description,
		Metadata:     e.Metadata,
		OccurredAt:   e.OccurredAt,
		CreatedAt:    now.UTC(),
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// ActivityInserter stores activities idempotently by event id.
type ActivityInserter interface {
	Insert(ctx context.Context, activity *model.LeadActivity) (bool, error)
}
