package portalapi

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

// ID is an identifier the server may encode as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// User is the account returned at login.
type User struct {
	Username     string                     `json:"username"`
	Email        string                     `json:"email,omitempty"`
	Subscription *subscription.Subscription `json:"subscription,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// MACAddress carries the device fingerprint.
	MACAddress string `json:"mac_address"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    ID     `json:"session_id"`
	User         User   `json:"user"`
}

type StatusResponse struct {
	IsActive bool `json:"is_active"`
	// RemainingTime is in minutes.
	RemainingTime int                        `json:"remaining_time"`
	Subscription  *subscription.Subscription `json:"subscription,omitempty"`
}

// Remaining converts RemainingTime to a duration, never negative.
func (r StatusResponse) Remaining() time.Duration {
	if r.RemainingTime <= 0 {
		return 0
	}
	return time.Duration(r.RemainingTime) * time.Minute
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type logoutRequest struct {
	SessionID string `json:"session_id"`
}

type InitiatePaymentRequest struct {
	PlanID      int    `json:"plan_id"`
	PhoneNumber string `json:"phone_number"`
}

type InitiatePaymentResponse struct {
	TransactionID ID     `json:"transaction_id"`
	Reference     string `json:"reference"`
	USSDCode      string `json:"ussd_code"`
}

// PaymentStatus is the server-side status of a transaction.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
	PaymentExpired   PaymentStatus = "EXPIRED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// normalizePaymentStatus upper-cases s and maps the legacy SUCCESS value.
func normalizePaymentStatus(s PaymentStatus) PaymentStatus {
	switch v := PaymentStatus(strings.ToUpper(strings.TrimSpace(string(s)))); v {
	case "SUCCESS":
		return PaymentConfirmed
	default:
		return v
	}
}

// WiFiCredentials is the ticket delivered on payment confirmation.
type WiFiCredentials struct {
	Username       string            `json:"username"`
	Password       string            `json:"password"`
	ExpirationDate subscription.Date `json:"expiration_date"`
	// QRCode is a raw base64 PNG.
	QRCode string `json:"qr_code,omitempty"`
}

type PaymentStatusResponse struct {
	Status          PaymentStatus    `json:"status"`
	WiFiCredentials *WiFiCredentials `json:"wifi_credentials,omitempty"`
}

type VerifyReferenceRequest struct {
	Reference string `json:"reference"`
	PlanID    int    `json:"plan_id"`
}

type verifyReferenceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	WiFiCredentials
}
