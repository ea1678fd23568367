package portalapi

import "time"

// Config holds client configuration.
type Config struct {
	BaseURL string        `env:"PORTAL_API_URL" envDefault:"http://localhost:8000/api"`
	Timeout time.Duration `env:"PORTAL_API_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000/api",
		Timeout: 10 * time.Second,
	}
}

// NewFromConfig creates a Client from cfg.
func NewFromConfig(cfg Config, opts ...Option) *Client {
	return New(cfg.BaseURL, append([]Option{WithTimeout(cfg.Timeout)}, opts...)...)
}
