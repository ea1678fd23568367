package portaltest

import (
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

// Route names used by Calls, FailNext and SetLatency.
const (
	RouteLogin           = "login"
	RouteCheckStatus     = "check-status"
	RouteLogout          = "logout"
	RouteRefresh         = "refresh"
	RouteInitiatePayment = "sms-initiate"
	RoutePaymentStatus   = "payment-status"
	RouteVerifyReference = "verify-reference"
	RoutePlans           = "plans"
	RoutePlan            = "plan"
)

// User is a ticket holder known to the server.
type User struct {
	Username string    `yaml:"username"`
	Password string    `yaml:"password"`
	Email    string    `yaml:"email"`
	PlanName string    `yaml:"plan_name"`
	Start    time.Time `yaml:"start_date"`
	EndDate  time.Time `yaml:"end_date"`
	Disabled bool      `yaml:"disabled"`
	// SessionID and AccessToken pin the ids issued at the next login.
	SessionID   string `yaml:"session_id"`
	AccessToken string `yaml:"access_token"`
}

func (u *User) subscription() *subscription.Subscription {
	return &subscription.Subscription{
		PlanName:  u.PlanName,
		StartDate: subscription.NewDate(u.Start),
		EndDate:   subscription.NewDate(u.EndDate),
	}
}

// PaymentScript describes how the next initiated payment behaves.
// Each status poll consumes one entry of Statuses; the last one repeats.
type PaymentScript struct {
	TransactionID string                    `yaml:"transaction_id"`
	Reference     string                    `yaml:"reference"`
	USSDCode      string                    `yaml:"ussd_code"`
	Statuses      []portalapi.PaymentStatus `yaml:"statuses"`
	Credentials   portalapi.WiFiCredentials `yaml:"-"`
	// OmitCredentials sends CONFIRMED without wifi_credentials.
	OmitCredentials bool `yaml:"omit_credentials"`
}

// Reference is a payment reference accepted by verify-reference.
type Reference struct {
	Code        string
	PlanID      int
	Credentials portalapi.WiFiCredentials
}

type session struct {
	id           string
	username     string
	fingerprint  string
	accessToken  string
	refreshToken string
	active       bool
}

type transaction struct {
	script PaymentScript
	planID int
	phone  string
	polls  int
}

func (t *transaction) next() portalapi.PaymentStatus {
	if len(t.script.Statuses) == 0 {
		return portalapi.PaymentPending
	}
	i := min(t.polls, len(t.script.Statuses)-1)
	t.polls++
	return t.script.Statuses[i]
}

type fault struct {
	status int
	body   any
}
