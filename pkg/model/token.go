package model

import "time"

// BookingToken grants one lead the right to book one slot. Only the SHA-256
// hash of the token is persisted.
type BookingToken struct {
	ID             string     `json:"id,omitempty" bson:"_id,omitempty"`
	TokenHash      string     `json:"-" bson:"token_hash"`
	LeadID         string     `json:"lead_id" bson:"lead_id"`
	LeadType       LeadType   `json:"lead_type" bson:"lead_type"`
	OfferedSlotIDs []string   `json:"offered_slot_ids,omitempty" bson:"offered_slot_ids,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at" bson:"expires_at"`
	Used           bool       `json:"used" bson:"used"`
	UsedAt         *time.Time `json:"used_at,omitempty" bson:"used_at,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
}

func (t *BookingToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Offers reports whether the token may book slotID. An empty offer list allows any slot.
func (t *BookingToken) Offers(slotID string) bool {
	if len(t.OfferedSlotIDs) == 0 {
		return true
	}
	for _, id := range t.OfferedSlotIDs {
		if id == slotID {
			return true
		}
	}
	return false
}
