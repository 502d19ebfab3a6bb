package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingConfirmed: {BookingPending},
	BookingCancelled: {BookingPending, BookingConfirmed},
	BookingCompleted: {BookingConfirmed},
}

// AllowedFrom lists the states a booking may move to s from.
func (s BookingStatus) AllowedFrom() []BookingStatus {
	return bookingTransitions[s]
}

func CanTransition(from, to BookingStatus) bool {
	for _, s := range to.AllowedFrom() {
		if s == from {
			return true
		}
	}
	return false
}

type MeetingBooking struct {
	ID                  string        `json:"id,omitempty" bson:"_id,omitempty"`
	MeetingSlotID       string        `json:"meeting_slot_id" bson:"meeting_slot_id"`
	LeadID              string        `json:"lead_id" bson:"lead_id"`
	LeadType            LeadType      `json:"lead_type" bson:"lead_type"`
	TokenID             string        `json:"token_id" bson:"token_id"`
	CompanyName         string        `json:"company_name" bson:"company_name"`
	ContactName         string        `json:"contact_name" bson:"contact_name"`
	Email               string        `json:"email" bson:"email"`
	Phone               string        `json:"phone,omitempty" bson:"phone,omitempty"`
	RequestedAgenda     string        `json:"requested_agenda,omitempty" bson:"requested_agenda,omitempty"`
	Status              BookingStatus `json:"booking_status" bson:"status"`
	ConfirmedAt         *time.Time    `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	CancelledAt         *time.Time    `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancellationReason  string        `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	ConfirmationSent    bool          `json:"confirmation_sent" bson:"confirmation_sent"`
	ConfirmationEmailID string        `json:"confirmation_email_id,omitempty" bson:"confirmation_email_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" bson:"updated_at"`

	Slot *MeetingSlot `json:"meeting_slot,omitempty" bson:"-"`
}

type BookingFilter struct {
	Status BookingStatus
	Search string
	Limit  int
	Offset int64
}
