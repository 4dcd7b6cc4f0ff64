package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact outreach status. A contact starts as not_contacted; the first
// successful email bumps it to emailed. Later stages are user-driven.
const (
	ContactStatusNotContacted = "not_contacted"
	ContactStatusEmailed      = "emailed"
	ContactStatusResponded    = "responded"
	ContactStatusCallHeld     = "call_held"
)

// Contact represents a banker or recruiter the user is reaching out to.
type Contact struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Title     string     `json:"title,omitempty"`
	Group     string     `json:"group,omitempty"`
	LinkedIn  string     `json:"linkedin,omitempty"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Interaction kinds recorded on a contact's timeline.
const (
	InteractionEmail = "email"
	InteractionCall  = "call"
	InteractionNote  = "note"
)

// Interaction is one entry in a contact's history.
type Interaction struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ContactID  uuid.UUID `json:"contact_id"`
	Kind       string    `json:"kind"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
