// Package access decides whether a session currently grants network access.
//
// A token alone is never enough: the attached subscription must also still
// be running. All functions are pure and take the current time explicitly.
package access

import (
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

// TokenHolder is anything that may carry an access token.
type TokenHolder interface {
	HasToken() bool
}

// Reason explains a grant decision.
type Reason string

const (
	ReasonOK             Reason = "ok"
	ReasonNoToken        Reason = "no_token"
	ReasonNoSubscription Reason = "no_subscription"
	ReasonExpired        Reason = "expired"
)

// Grant is the outcome of Evaluate.
type Grant struct {
	Live      bool
	Remaining time.Duration
	Reason    Reason
}

// IsLive reports whether session holds a token and sub has not ended at now.
func IsLive(session TokenHolder, sub *subscription.Subscription, now time.Time) bool {
	return Evaluate(session, sub, now).Live
}

// RemainingTime returns the time left on sub at now, clamped to zero.
func RemainingTime(sub *subscription.Subscription, now time.Time) time.Duration {
	if sub == nil {
		return 0
	}
	return sub.RemainingAt(now)
}

// Evaluate returns the grant decision together with its reason.
func Evaluate(session TokenHolder, sub *subscription.Subscription, now time.Time) Grant {
	switch {
	case session == nil || !session.HasToken():
		return Grant{Reason: ReasonNoToken}
	case sub == nil:
		return Grant{Reason: ReasonNoSubscription}
	case sub.IsExpiredAt(now):
		return Grant{Reason: ReasonExpired}
	}
	return Grant{Live: true, Remaining: sub.RemainingAt(now), Reason: ReasonOK}
}
