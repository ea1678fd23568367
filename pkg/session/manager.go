package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/captiveportal/pkg/access"
	"github.com/dmitrymomot/captiveportal/pkg/fingerprint"
	"github.com/dmitrymomot/captiveportal/pkg/logger"
	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
	"github.com/dmitrymomot/captiveportal/pkg/scheduler"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

// Client is the subset of the portal API the manager needs.
type Client interface {
	Login(ctx context.Context, req portalapi.LoginRequest) (*portalapi.LoginResponse, error)
	CheckStatus(ctx context.Context, sessionID, token string) (*portalapi.StatusResponse, error)
	Logout(ctx context.Context, sessionID, token string) error
	RefreshToken(ctx context.Context, refreshToken string) (string, string, error)
}

// Manager owns the authenticated session: it logs in, keeps the store in
// sync and ends the session when the portal stops granting access.
type Manager struct {
	store  Store
	client Client
	config Config
	logger *slog.Logger
	clock  clockwork.Clock
	sched  *scheduler.Scheduler

	checks singleflight.Group

	// storeMu serialises store writes so a forced logout cannot clear a
	// session written after it read the store.
	storeMu sync.Mutex

	mu      sync.Mutex
	current *Session
	monitor *scheduler.Scope
}

// New creates a session manager with the given options.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		logger: logger.Discard(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.client == nil {
		// Fail fast on misconfiguration
		panic("session: portal client is required")
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	m.sched = scheduler.New(m.clock)
	m.clock = m.sched.Clock()
	m.logger = m.logger.With(logger.Component("session"))

	return m
}

// Login redeems ticket credentials for the device fingerprint and persists
// the resulting session. Portal error kinds are returned unchanged.
func (m *Manager) Login(ctx context.Context, username, password, fp string) (*Session, error) {
	username = strings.TrimSpace(username)
	fp = strings.TrimSpace(fp)
	if username == "" || password == "" || fp == "" {
		return nil, portalerr.New(portalerr.Validation, "username, password and device fingerprint are required")
	}

	resp, err := m.client.Login(ctx, portalapi.LoginRequest{
		Username:   username,
		Password:   password,
		MACAddress: fp,
	})
	if err != nil {
		m.logger.WarnContext(ctx, "login failed", logger.Username(username), logger.Fingerprint(fp), logger.Error(err))
		return nil, err
	}

	now := m.clock.Now()
	sess := &Session{
		ID:           resp.SessionID.String(),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
		Device:       fingerprint.NewDevice(fp, now),
		CreatedAt:    now,
	}
	if sess.User.Username == "" {
		sess.User.Username = username
	}

	m.storeMu.Lock()
	err = m.store.SetAll(ctx, sess.credentials())
	if err == nil {
		m.mu.Lock()
		m.current = sess
		m.mu.Unlock()
	}
	m.storeMu.Unlock()
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}

	grant := access.Evaluate(sess, sess.Subscription(), now)
	m.logger.InfoContext(ctx, "logged in",
		logger.SessionID(sess.ID), logger.Username(username), logger.Fingerprint(fp),
		slog.Bool("live", grant.Live), logger.Remaining(grant.Remaining))

	return sess.clone(), nil
}

// CheckStatus asks the portal whether the session is still active and ends
// it when it is not. Concurrent checks of one session share a single call,
// which is not cancelled by any one caller; each caller stops waiting when
// its own ctx ends. A cancelled check never ends the session.
func (m *Manager) CheckStatus(ctx context.Context, sessionID, token string) (Status, error) {
	ch := m.checks.DoChan(sessionID, func() (any, error) {
		return m.checkStatus(context.WithoutCancel(ctx), sessionID, token)
	})

	select {
	case res := <-ch:
		if res.Shared {
			m.logger.DebugContext(ctx, "status check shared", logger.SessionID(sessionID))
		}
		st, _ := res.Val.(Status)
		return st, res.Err
	case <-ctx.Done():
		m.logger.DebugContext(ctx, "status check abandoned", logger.SessionID(sessionID), logger.Error(ctx.Err()))
		return Status{}, ctx.Err()
	}
}

func (m *Manager) checkStatus(ctx context.Context, sessionID, token string) (Status, error) {
	resp, err := m.client.CheckStatus(ctx, sessionID, token)
	if err != nil {
		if interrupted(ctx, err) {
			m.logger.DebugContext(ctx, "status check interrupted", logger.SessionID(sessionID), logger.Error(err))
			return Status{}, err
		}
		m.logger.WarnContext(ctx, "status check failed", logger.SessionID(sessionID), logger.Error(err))
		if m.config.LogoutOnCheckError {
			_ = m.endSession(ctx, sessionID, token)
		}
		return Status{}, err
	}

	now := m.clock.Now()
	sub := resp.Subscription
	if sub == nil {
		sub = m.storedSubscription(sessionID)
	}
	grant := access.Evaluate(bearer(token), sub, now)

	st := Status{
		Active:       resp.IsActive && grant.Live,
		Subscription: sub,
		Grant:        grant,
	}
	if st.Active {
		st.Remaining = resp.Remaining()
		if st.Remaining == 0 || (grant.Remaining > 0 && grant.Remaining < st.Remaining) {
			st.Remaining = grant.Remaining
		}
		m.touch(sessionID, now)
		return st, nil
	}

	m.logger.InfoContext(ctx, "session no longer active",
		logger.SessionID(sessionID),
		slog.Bool("server_active", resp.IsActive),
		slog.String("reason", string(grant.Reason)))
	if err := m.endSession(ctx, sessionID, token); err != nil {
		return st, err
	}
	return st, nil
}

// interrupted reports whether err comes from cancellation rather than from
// the portal.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

func (m *Manager) storedSubscription(sessionID string) *subscription.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.ID != sessionID {
		return nil
	}
	return m.current.credentials().User.Subscription
}

func (m *Manager) touch(sessionID string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.ID == sessionID {
		m.current.Device.Touch(now)
	}
}

// Logout notifies the portal and clears the store. The notification is best
// effort: it is awaited for at most LogoutNotifyTimeout and its failure is
// only logged. The store is cleared whatever the network outcome.
func (m *Manager) Logout(ctx context.Context, sessionID, token string) error {
	if sessionID != "" && token != "" {
		m.notifyLogout(ctx, sessionID, token)
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	m.forget(sessionID)
	return m.clearStore(ctx, sessionID)
}

// endSession is the forced logout. Unlike Logout it leaves the store alone
// when it already holds a different session.
func (m *Manager) endSession(ctx context.Context, sessionID, token string) error {
	if sessionID != "" && token != "" {
		m.notifyLogout(ctx, sessionID, token)
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	m.forget(sessionID)

	creds, err := m.store.Get(ctx)
	switch {
	case errors.Is(err, ErrNoCredentials):
		return nil
	case err != nil:
		m.logger.ErrorContext(ctx, "failed to read credentials", logger.SessionID(sessionID), logger.Error(err))
		return errors.Join(ErrStore, err)
	case creds.SessionID != sessionID:
		m.logger.InfoContext(ctx, "ended session no longer stored",
			logger.SessionID(sessionID), slog.String("stored_session_id", creds.SessionID))
		return nil
	}
	return m.clearStore(ctx, sessionID)
}

func (m *Manager) forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && (sessionID == "" || m.current.ID == sessionID) {
		m.current = nil
	}
}

// clearStore must be called with storeMu held.
func (m *Manager) clearStore(ctx context.Context, sessionID string) error {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to clear credentials", logger.SessionID(sessionID), logger.Error(err))
		return errors.Join(ErrStore, err)
	}
	m.logger.InfoContext(ctx, "logged out", logger.SessionID(sessionID))
	return nil
}

func (m *Manager) notifyLogout(ctx context.Context, sessionID, token string) {
	done := make(chan error, 1)
	go func() {
		done <- m.client.Logout(context.WithoutCancel(ctx), sessionID, token)
	}()

	timeout := m.config.LogoutNotifyTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().LogoutNotifyTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			m.logger.WarnContext(ctx, "logout notification failed", logger.SessionID(sessionID), logger.Error(err))
		}
	case <-timer.C:
		m.logger.WarnContext(ctx, "logout notification abandoned", logger.SessionID(sessionID), slog.Duration("timeout", timeout))
	}
}

// Restore loads the stored session and verifies it with the portal.
// It returns ErrNoSession when nothing is stored and ErrSessionInactive when
// the portal no longer grants access, in which case the store is cleared.
func (m *Manager) Restore(ctx context.Context) (*Session, Status, error) {
	creds, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return nil, Status{}, ErrNoSession
		}
		return nil, Status{}, errors.Join(ErrStore, err)
	}

	sess := fromCredentials(creds)
	m.mu.Lock()
	if m.current == nil || m.current.ID != sess.ID {
		m.current = sess
	}
	m.mu.Unlock()

	st, err := m.CheckStatus(ctx, creds.SessionID, creds.AccessToken)
	if err != nil {
		return nil, st, err
	}
	if !st.Active {
		return nil, st, ErrSessionInactive
	}

	current, err := m.Current(ctx)
	if err != nil {
		return nil, st, err
	}
	return current, st, nil
}

// Refresh exchanges the stored refresh token for a new access token and
// rewrites the store. Any failure ends the session.
func (m *Manager) Refresh(ctx context.Context) (*Session, error) {
	creds, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return nil, ErrNoSession
		}
		return nil, errors.Join(ErrStore, err)
	}

	if creds.RefreshToken == "" {
		_ = m.endSession(ctx, creds.SessionID, creds.AccessToken)
		return nil, portalerr.New(portalerr.Auth, "no refresh token stored")
	}

	token, rotated, err := m.client.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		if interrupted(ctx, err) {
			return nil, err
		}
		m.logger.WarnContext(ctx, "token refresh failed", logger.SessionID(creds.SessionID), logger.Error(err))
		_ = m.endSession(ctx, creds.SessionID, creds.AccessToken)
		return nil, err
	}

	creds.AccessToken = token
	if rotated != "" {
		creds.RefreshToken = rotated
	}
	m.storeMu.Lock()
	err = m.store.SetAll(ctx, creds)
	if err == nil {
		m.mu.Lock()
		if m.current != nil && m.current.ID == creds.SessionID {
			m.current.AccessToken = creds.AccessToken
			m.current.RefreshToken = creds.RefreshToken
		}
		m.mu.Unlock()
	}
	m.storeMu.Unlock()
	if err != nil {
		_ = m.endSession(ctx, creds.SessionID, token)
		return nil, errors.Join(ErrStore, err)
	}

	m.logger.DebugContext(ctx, "access token refreshed", logger.SessionID(creds.SessionID))
	return m.Current(ctx)
}

// Current returns the session held in the store.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	creds, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return nil, ErrNoSession
		}
		return nil, errors.Join(ErrStore, err)
	}

	sess := fromCredentials(creds)
	m.mu.Lock()
	if m.current != nil && m.current.ID == sess.ID {
		sess.Device = m.current.Device
	}
	m.mu.Unlock()
	return sess, nil
}
