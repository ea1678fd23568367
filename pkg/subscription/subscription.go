package subscription

import (
	"encoding/json"
	"time"
)

// Subscription is the entitlement attached to a ticket.
type Subscription struct {
	PlanName  string `json:"plan_name"`
	StartDate Date   `json:"start_date"`
	EndDate   Date   `json:"end_date"`
	// IsExpired is the flag reported by the server. Use IsExpiredAt for decisions.
	IsExpired bool `json:"is_expired"`
	// RemainingDays is only present in login responses.
	RemainingDays int `json:"remaining_days,omitempty"`
}

// IsExpiredAt reports whether the subscription has ended at now.
// A subscription without an end date is treated as expired.
func (s Subscription) IsExpiredAt(now time.Time) bool {
	if s.EndDate.IsZero() {
		return true
	}
	return now.After(s.EndDate.Time)
}

// RemainingAt returns the time left at now, never negative.
func (s Subscription) RemainingAt(now time.Time) time.Duration {
	if s.IsExpiredAt(now) {
		return 0
	}
	return s.EndDate.Sub(now)
}

// RemainingDaysAt returns whole days left at now, never negative.
func (s Subscription) RemainingDaysAt(now time.Time) int {
	return int(s.RemainingAt(now) / Day)
}

// UnmarshalJSON also accepts the "plan" key used by login responses.
func (s *Subscription) UnmarshalJSON(data []byte) error {
	type plain Subscription
	var wire struct {
		plain
		Plan string `json:"plan"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = Subscription(wire.plain)
	if s.PlanName == "" {
		s.PlanName = wire.Plan
	}
	return nil
}
