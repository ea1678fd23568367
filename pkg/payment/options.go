package payment

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
)

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithClient sets the portal client.
func WithClient(client Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// WithConfig sets custom configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithCountdownPolicy overrides the configured countdown policy.
func WithCountdownPolicy(p CountdownPolicy) Option {
	return func(e *Engine) {
		e.config.CountdownPolicy = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the clock driving polling and the countdown.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithOnConfirmed registers a callback receiving the credentials once.
func WithOnConfirmed(fn func(portalapi.WiFiCredentials)) Option {
	return func(e *Engine) {
		e.onConfirmed = fn
	}
}

// WithObserver registers a callback for state changes, countdown ticks and signals.
// It runs on engine goroutines and must not block.
func WithObserver(fn func(Event)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}
