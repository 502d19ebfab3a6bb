package model

type BookRequest struct {
	Token           string `json:"token" validate:"required,booking_token"`
	MeetingSlotID   string `json:"meeting_slot_id" validate:"required,mongodb"`
	RequestedAgenda string `json:"requested_agenda,omitempty" validate:"omitempty,max=2000"`
}

type ProposalRequest struct {
	ExpiresInDays  int      `json:"expires_in_days,omitempty" validate:"omitempty,min=1,max=30"`
	OfferedSlotIDs []string `json:"offered_slot_ids,omitempty" validate:"omitempty,max=50,dive,mongodb"`
	MeetingPurpose string   `json:"meeting_purpose,omitempty" validate:"omitempty,max=500"`
	AdminName      string   `json:"admin_name,omitempty" validate:"omitempty,max=100"`
	AdminEmail     string   `json:"admin_email,omitempty" validate:"omitempty,email"`
	AdminPhone     string   `json:"admin_phone,omitempty" validate:"omitempty,max=30"`
}

type StatusUpdateRequest struct {
	Status             BookingStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
	CancellationReason string        `json:"cancellation_reason,omitempty" validate:"omitempty,max=1000"`
}

type GenerateSlotsRequest struct {
	DaysAhead int `json:"days_ahead,omitempty" validate:"omitempty,min=1,max=90"`
}
