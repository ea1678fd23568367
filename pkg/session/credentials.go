package session

import (
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
)

// Credentials is the unit persisted by a Store. All fields are written and
// cleared together.
type Credentials struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	SessionID    string         `json:"session_id"`
	User         portalapi.User `json:"user"`
	// Fingerprint is the device the session was opened from.
	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate reports ErrInvalidCredentials when the access token or session id is empty.
func (c Credentials) Validate() error {
	if c.AccessToken == "" || c.SessionID == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// clone returns a copy that shares no pointers with c.
func (c Credentials) clone() Credentials {
	if c.User.Subscription != nil {
		sub := *c.User.Subscription
		c.User.Subscription = &sub
	}
	return c
}
