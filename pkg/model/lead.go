package model

import "time"

type LeadType string

const (
	LeadContact           LeadType = "CONTACT"
	LeadLibrary           LeadType = "LIBRARY_LEAD"
	LeadEventRegistration LeadType = "EVENT_REGISTRATION"
	LeadDemoRequest       LeadType = "DEMO_REQUEST"
)

type Lead struct {
	ID               string     `json:"id,omitempty" bson:"_id,omitempty"`
	LeadType         LeadType   `json:"lead_type" bson:"lead_type" validate:"required,oneof=CONTACT LIBRARY_LEAD EVENT_REGISTRATION DEMO_REQUEST"`
	CompanyName      string     `json:"company_name" bson:"company_name" validate:"required,min=1,max=200"`
	ContactName      string     `json:"contact_name" bson:"contact_name" validate:"required,min=1,max=100"`
	Email            string     `json:"email" bson:"email" validate:"required,email,max=254"`
	Phone            string     `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Timezone         string     `json:"timezone,omitempty" bson:"timezone,omitempty" validate:"omitempty,timezone"`
	LeadSource       string     `json:"lead_source,omitempty" bson:"lead_source,omitempty" validate:"omitempty,max=100"`
	LeadSourceDetail string     `json:"lead_source_detail,omitempty" bson:"lead_source_detail,omitempty" validate:"omitempty,max=200"`
	LastContactedAt  *time.Time `json:"last_contacted_at,omitempty" bson:"last_contacted_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updated_at"`
}

// LeadInfo is the subset of a lead shown on the public booking page.
type LeadInfo struct {
	CompanyName string `json:"company_name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
}

func (l *Lead) Info() LeadInfo {
	return LeadInfo{
		CompanyName: l.CompanyName,
		ContactName: l.ContactName,
		Email:       l.Email,
	}
}
