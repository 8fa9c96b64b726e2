package dto

// Webhook event types pushed by the CRM
const (
	EventContactCreate     = "ContactCreate"
	EventContactUpdate     = "ContactUpdate"
	EventContactDelete     = "ContactDelete"
	EventOpportunityCreate = "OpportunityCreate"
	EventOpportunityUpdate = "OpportunityUpdate"
	EventOpportunityDelete = "OpportunityDelete"
)

// WebhookEvent is the envelope of an inbound CRM webhook. Only the event
// type and record id are trusted; the full record is always re-fetched
// from the API before anything is written.
type WebhookEvent struct {
	Type       string `json:"type"`
	LocationID string `json:"locationId"`
	ID         string `json:"id"`

	// Delete events for opportunities sometimes nest the id
	Opportunity *struct {
		ID string `json:"id"`
	} `json:"opportunity"`
}

// RecordID returns the CRM record id, falling back to the nested
// opportunity id on delete payloads that omit the top-level one.
func (e *WebhookEvent) RecordID() string {
	if e.ID != "" {
		return e.ID
	}
	if e.Opportunity != nil {
		return e.Opportunity.ID
	}
	return ""
}

// IsContactEvent reports whether the event targets a contact
func (e *WebhookEvent) IsContactEvent() bool {
	switch e.Type {
	case EventContactCreate, EventContactUpdate, EventContactDelete:
		return true
	}
	return false
}

// IsOpportunityEvent reports whether the event targets an opportunity
func (e *WebhookEvent) IsOpportunityEvent() bool {
	switch e.Type {
	case EventOpportunityCreate, EventOpportunityUpdate, EventOpportunityDelete:
		return true
	}
	return false
}
