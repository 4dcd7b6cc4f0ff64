package models

import (
	"time"

	"github.com/google/uuid"
)

// Template is a reusable email with {{variable}} placeholders in subject
// and body.
type Template struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	Variables []string  `json:"variables"` // extracted, not persisted
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
