package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduledEmailStatus is the lifecycle state of a scheduled email.
// pending -> sending (claim) -> sent | failed; pending -> cancelled.
// sent, failed and cancelled are terminal.
type ScheduledEmailStatus string

const (
	ScheduledStatusPending   ScheduledEmailStatus = "pending"
	ScheduledStatusSending   ScheduledEmailStatus = "sending"
	ScheduledStatusSent      ScheduledEmailStatus = "sent"
	ScheduledStatusFailed    ScheduledEmailStatus = "failed"
	ScheduledStatusCancelled ScheduledEmailStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s ScheduledEmailStatus) Terminal() bool {
	return s == ScheduledStatusSent || s == ScheduledStatusFailed || s == ScheduledStatusCancelled
}

// Variables maps placeholder names to substitution values.
type Variables map[string]string

// ScheduledEmail is a persisted intent to send an email at a future time.
// Subject and body are stored pre-substitution; the dispatcher fills them
// from Variables at send time.
type ScheduledEmail struct {
	ID               uuid.UUID            `json:"id"`
	UserID           uuid.UUID            `json:"user_id"`
	ToEmail          string               `json:"to_email"`
	Subject          string               `json:"subject"`
	Body             string               `json:"body"`
	ScheduledFor     time.Time            `json:"scheduled_for"`
	TemplateID       *uuid.UUID           `json:"template_id,omitempty"`
	Variables        Variables            `json:"variables"`
	AttachResume     bool                 `json:"attach_resume"`
	IncludeSignature bool                 `json:"include_signature"`
	ContactID        *uuid.UUID           `json:"contact_id,omitempty"`
	Status           ScheduledEmailStatus `json:"status"`
	SentAt           *time.Time           `json:"sent_at,omitempty"`
	ErrorMessage     string               `json:"error_message,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// SentEmail records a successfully dispatched email (immediate or scheduled).
type SentEmail struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	TemplateID    *uuid.UUID `json:"template_id,omitempty"`
	TemplateName  string     `json:"template_name,omitempty"`
	Recipient     string     `json:"recipient"`
	Subject       string     `json:"subject"`
	Body          string     `json:"body"`
	VariablesUsed Variables  `json:"variables_used"`
	SentAt        time.Time  `json:"sent_at"`
}
