package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account, either registered locally or synced from the
// identity provider's webhook.
type User struct {
	ID                 uuid.UUID `json:"id"`
	ExternalID         *string   `json:"external_id,omitempty"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	FirstName          string    `json:"first_name,omitempty"`
	LastName           string    `json:"last_name,omitempty"`
	Plan               string    `json:"plan"`
	EmailNotifications bool      `json:"email_notifications"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ExternalProfile is the subset of an identity-provider user we keep.
type ExternalProfile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}
