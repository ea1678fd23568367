package logger

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error" and its classification under "error_kind".
// A nil err yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return Group("",
		slog.Any("error", err),
		slog.String("error_kind", string(portalerr.KindOf(err))),
	)
}

// SessionID records the portal session id. Empty ids yield an empty Attr.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// TransactionID records the payment transaction id. Empty ids yield an empty Attr.
func TransactionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("transaction_id", id)
}

func Username(name string) slog.Attr {
	return slog.String("username", name)
}

func Fingerprint(fp string) slog.Attr {
	return slog.String("fingerprint", fp)
}

// State records a state machine state.
func State(s string) slog.Attr {
	return slog.String("state", s)
}

// Transition records a state change as from -> to.
func Transition(from, to string) slog.Attr {
	return Group("transition", slog.String("from", from), slog.String("to", to))
}

func Remaining(d time.Duration) slog.Attr {
	return slog.Duration("remaining", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}
