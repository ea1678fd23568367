package session

import "time"

// Config holds session manager configuration.
type Config struct {
	// StatusCheckInterval is the period of the background status monitor.
	StatusCheckInterval time.Duration `env:"SESSION_STATUS_CHECK_INTERVAL" envDefault:"60s"`

	// LogoutOnCheckError ends the session when a status check fails for any reason.
	LogoutOnCheckError bool `env:"SESSION_LOGOUT_ON_CHECK_ERROR" envDefault:"true"`

	// LogoutNotifyTimeout bounds how long Logout waits for the server notification.
	LogoutNotifyTimeout time.Duration `env:"SESSION_LOGOUT_NOTIFY_TIMEOUT" envDefault:"5s"`
}

// DefaultConfig returns default session configuration.
func DefaultConfig() Config {
	return Config{
		StatusCheckInterval: 60 * time.Second,
		LogoutOnCheckError:  true,
		LogoutNotifyTimeout: 5 * time.Second,
	}
}

// NewFromConfig creates a Manager from cfg. A Client is required via options.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
