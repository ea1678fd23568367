package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/logger"
)

// Start runs a background status check of the stored session every
// StatusCheckInterval until Stop is called or ctx ends.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.monitor != nil && !m.monitor.Cancelled() {
		return ErrMonitorRunning
	}

	interval := m.config.StatusCheckInterval
	if interval <= 0 {
		interval = DefaultConfig().StatusCheckInterval
	}

	scope := m.sched.NewScope(ctx)
	if err := scope.Every(interval, m.monitorTick); err != nil {
		scope.Cancel()
		return err
	}
	m.monitor = scope

	m.logger.InfoContext(ctx, "status monitor started", slog.Duration("interval", interval))
	return nil
}

// Stop halts the background monitor and waits for its callback to return. A
// check already sent to the portal finishes in the background and its
// cancellation never ends the session.
func (m *Manager) Stop() error {
	m.mu.Lock()
	scope := m.monitor
	m.monitor = nil
	m.mu.Unlock()

	if scope == nil {
		return ErrMonitorStopped
	}
	scope.Stop()

	m.logger.Info("status monitor stopped")
	return nil
}

// Run starts the monitor and blocks until ctx ends. Suitable for errgroup.
func (m *Manager) Run(ctx context.Context) func() error {
	return func() error {
		if err := m.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return m.Stop()
	}
}

func (m *Manager) monitorTick(ctx context.Context, _ time.Time) {
	creds, err := m.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			m.logger.WarnContext(ctx, "monitor could not read credentials", logger.Error(err))
		}
		return
	}

	st, err := m.CheckStatus(ctx, creds.SessionID, creds.AccessToken)
	if err != nil {
		return
	}
	m.logger.DebugContext(ctx, "status checked",
		logger.SessionID(creds.SessionID),
		slog.Bool("active", st.Active),
		logger.Remaining(st.Remaining))
}
