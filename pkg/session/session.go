package session

import (
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/access"
	"github.com/dmitrymomot/captiveportal/pkg/fingerprint"
	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

// Session is an authenticated ticket redemption bound to one device.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	User         portalapi.User
	Device       fingerprint.Device
	CreatedAt    time.Time
}

// HasToken reports whether the session carries an access token.
func (s *Session) HasToken() bool {
	return s != nil && s.AccessToken != ""
}

// Subscription returns the subscription attached at login, or nil.
func (s *Session) Subscription() *subscription.Subscription {
	if s == nil {
		return nil
	}
	return s.User.Subscription
}

// IsLive reports whether the session grants access at now.
func (s *Session) IsLive(now time.Time) bool {
	return access.IsLive(s, s.Subscription(), now)
}

func (s *Session) credentials() Credentials {
	return Credentials{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		SessionID:    s.ID,
		User:         s.User,
		Fingerprint:  s.Device.Fingerprint,
		CreatedAt:    s.CreatedAt,
	}.clone()
}

func (s *Session) clone() *Session {
	cp := *s
	cp.User = s.credentials().User
	return &cp
}

func fromCredentials(c Credentials) *Session {
	c = c.clone()
	return &Session{
		ID:           c.SessionID,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		User:         c.User,
		Device:       fingerprint.NewDevice(c.Fingerprint, c.CreatedAt),
		CreatedAt:    c.CreatedAt,
	}
}

// Status is the outcome of a status check.
type Status struct {
	// Active is the server flag combined with the local access decision.
	Active       bool
	Remaining    time.Duration
	Subscription *subscription.Subscription
	Grant        access.Grant
}

// bearer adapts a raw token to access.TokenHolder.
type bearer string

func (b bearer) HasToken() bool { return b != "" }
