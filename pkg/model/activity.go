package model

import "time"

type ActivityType string

const (
	ActivityMeetingProposed      ActivityType = "MEETING_PROPOSED"
	ActivityMeetingBooked        ActivityType = "MEETING_BOOKED"
	ActivityEmailSent            ActivityType = "EMAIL_SENT"
	ActivityBookingStatusChanged ActivityType = "BOOKING_STATUS_CHANGED"
)

// LeadActivity is one entry of a lead's timeline. EventID is unique so a
// redelivered event is stored once.
type LeadActivity struct {
	ID           string         `json:"id,omitempty" bson:"_id,omitempty"`
	EventID      string         `json:"event_id" bson:"event_id"`
	LeadID       string         `json:"lead_id" bson:"lead_id"`
	LeadType     LeadType       `json:"lead_type,omitempty" bson:"lead_type,omitempty"`
	ActivityType ActivityType   `json:"activity_type" bson:"activity_type"`
	Description  string         `json:"activity_description" bson:"activity_description"`
	Metadata     map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at" bson:"occurred_at"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
}
