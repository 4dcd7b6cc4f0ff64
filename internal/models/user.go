package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account holder doing outreach.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"-"`
	Name     string    `json:"name"`

	// Gmail OAuth state. Tokens never leave the backend.
	GmailRefreshToken string `json:"-"`
	GmailAccessToken  string `json:"-"`
	GmailAddress      string `json:"gmail_address,omitempty"`

	SignatureHTML string `json:"signature_html,omitempty"`

	ResumeKey      string `json:"-"`
	ResumeFilename string `json:"resume_filename,omitempty"`
	ResumeMimetype string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	GmailConnected bool      `json:"gmail_connected"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		GmailConnected: u.GmailRefreshToken != "",
		CreatedAt:      u.CreatedAt,
	}
}
