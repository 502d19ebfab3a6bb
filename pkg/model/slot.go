package model

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
	SlotBlocked   SlotStatus = "BLOCKED"
)

type MeetingType string

const (
	MeetingTypeDemo         MeetingType = "DEMO"
	MeetingTypeConsultation MeetingType = "CONSULTATION"
	MeetingTypeOnboarding   MeetingType = "ONBOARDING"
	MeetingTypeFollowup     MeetingType = "FOLLOWUP"
	MeetingTypeOther        MeetingType = "OTHER"
)

// Label is the Korean display name used in emails and calendar entries.
func (t MeetingType) Label() string {
	switch t {
	case MeetingTypeDemo:
		return "제품 데모"
	case MeetingTypeConsultation:
		return "상담"
	case MeetingTypeOnboarding:
		return "온보딩"
	case MeetingTypeFollowup:
		return "후속 미팅"
	default:
		return "미팅"
	}
}

type MeetingLocation string

const (
	LocationOnline       MeetingLocation = "ONLINE"
	LocationOffice       MeetingLocation = "OFFICE"
	LocationClientOffice MeetingLocation = "CLIENT_OFFICE"
)

type MeetingSlot struct {
	ID              string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title           string          `json:"title" bson:"title" validate:"required,min=1,max=200"`
	Description     string          `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	MeetingType     MeetingType     `json:"meeting_type" bson:"meeting_type" validate:"required,oneof=DEMO CONSULTATION ONBOARDING FOLLOWUP OTHER"`
	StartTime       time.Time       `json:"start_time" bson:"start_time" validate:"required"`
	EndTime         time.Time       `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	DurationMinutes int             `json:"duration_minutes" bson:"duration_minutes"`
	Timezone        string          `json:"timezone" bson:"timezone" validate:"required,timezone"`
	MeetingLocation MeetingLocation `json:"meeting_location" bson:"meeting_location" validate:"required,oneof=ONLINE OFFICE CLIENT_OFFICE"`
	MeetingURL      string          `json:"meeting_url,omitempty" bson:"meeting_url,omitempty" validate:"omitempty,url,max=500"`
	OfficeAddress   string          `json:"office_address,omitempty" bson:"office_address,omitempty" validate:"omitempty,max=500"`
	MaxBookings     int             `json:"max_bookings" bson:"max_bookings" validate:"required,min=1,max=50"`
	CurrentBookings int             `json:"current_bookings" bson:"current_bookings" validate:"min=0,ltefield=MaxBookings"`
	Status          SlotStatus      `json:"status" bson:"status" validate:"required,oneof=AVAILABLE BOOKED BLOCKED"`
	Generated       bool            `json:"generated" bson:"generated"`
	CreatedBy       string          `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
}

func (s *MeetingSlot) AvailableSpots() int {
	return max(0, s.MaxBookings-s.CurrentBookings)
}

// Bookable mirrors the reservation filter: available, not full, not started.
func (s *MeetingSlot) Bookable(now time.Time) bool {
	return s.Status == SlotAvailable && s.CurrentBookings < s.MaxBookings && !s.StartTime.Before(now)
}

type MeetingSlotUpdate struct {
	Title           *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	MeetingType     *MeetingType     `json:"meeting_type,omitempty" validate:"omitempty,oneof=DEMO CONSULTATION ONBOARDING FOLLOWUP OTHER"`
	StartTime       *time.Time       `json:"start_time,omitempty"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	Timezone        *string          `json:"timezone,omitempty" validate:"omitempty,timezone"`
	MeetingLocation *MeetingLocation `json:"meeting_location,omitempty" validate:"omitempty,oneof=ONLINE OFFICE CLIENT_OFFICE"`
	MeetingURL      *string          `json:"meeting_url,omitempty" validate:"omitempty,max=500"`
	OfficeAddress   *string          `json:"office_address,omitempty" validate:"omitempty,max=500"`
	MaxBookings     *int             `json:"max_bookings,omitempty" validate:"omitempty,min=1,max=50"`
	Status          *SlotStatus      `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE BLOCKED"`
}

type SlotFilter struct {
	MeetingType MeetingType
	Status      SlotStatus
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int64
}
