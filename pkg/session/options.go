package session

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithStore sets the credential store. Defaults to a MemoryStore.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithClient sets the portal client.
func WithClient(client Client) Option {
	return func(m *Manager) {
		m.client = client
	}
}

// WithConfig sets custom configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithStatusCheckInterval sets the background monitor period.
func WithStatusCheckInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.config.StatusCheckInterval = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock sets the clock used for access decisions and the monitor.
func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}
