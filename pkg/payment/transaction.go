package payment

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
)

// Transaction is one mobile-money payment attempt.
type Transaction struct {
	ID        string
	Reference string
	USSDCode  string
	PlanID    int
	Phone     string
	Status    portalapi.PaymentStatus
	CreatedAt time.Time
}

// IsTerminal reports whether the status can no longer change.
func (t *Transaction) IsTerminal() bool {
	return isTerminal(t.Status)
}

// Advance moves the transaction to status. Once terminal the status never
// changes: advancing to another status returns ErrTerminalTransaction and
// re-applying the same one is a no-op.
func (t *Transaction) Advance(status portalapi.PaymentStatus) error {
	if !knownStatus(status) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if t.IsTerminal() {
		if status == t.Status {
			return nil
		}
		return fmt.Errorf("%w: %s -> %s", ErrTerminalTransaction, t.Status, status)
	}
	t.Status = status
	return nil
}

func knownStatus(s portalapi.PaymentStatus) bool {
	switch s {
	case portalapi.PaymentPending, portalapi.PaymentConfirmed, portalapi.PaymentExpired, portalapi.PaymentFailed:
		return true
	}
	return false
}

func isTerminal(s portalapi.PaymentStatus) bool {
	switch s {
	case portalapi.PaymentConfirmed, portalapi.PaymentExpired, portalapi.PaymentFailed:
		return true
	}
	return false
}
