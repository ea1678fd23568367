package payment

import (
	"fmt"
	"time"
)

// CountdownPolicy decides what happens when the countdown ends while pending.
type CountdownPolicy string

const (
	// PolicySignal publishes EventTimeout and keeps polling.
	PolicySignal CountdownPolicy = "signal"
	// PolicyExpire also marks the transaction EXPIRED and returns to phone entry.
	PolicyExpire CountdownPolicy = "expire"
)

// Config holds payment engine configuration. Periods are counted in Unit.
type Config struct {
	Unit            time.Duration   `env:"PAYMENT_UNIT" envDefault:"1s"`
	PollEvery       int             `env:"PAYMENT_POLL_EVERY" envDefault:"3"`
	CountdownBudget int             `env:"PAYMENT_COUNTDOWN_BUDGET" envDefault:"600"`
	CountdownPolicy CountdownPolicy `env:"PAYMENT_COUNTDOWN_POLICY" envDefault:"signal"`
	// QRSize is the side in pixels of locally rendered QR codes.
	QRSize int `env:"PAYMENT_QR_SIZE" envDefault:"256"`
}

// DefaultConfig polls every 3s with a 600s countdown.
func DefaultConfig() Config {
	return Config{
		Unit:            time.Second,
		PollEvery:       3,
		CountdownBudget: 600,
		CountdownPolicy: PolicySignal,
		QRSize:          256,
	}
}

// Validate reports ErrInvalidConfig for unusable values.
func (c Config) Validate() error {
	switch {
	case c.Unit <= 0:
		return fmt.Errorf("%w: unit must be positive", ErrInvalidConfig)
	case c.PollEvery <= 0:
		return fmt.Errorf("%w: poll period must be positive", ErrInvalidConfig)
	case c.CountdownBudget <= 0:
		return fmt.Errorf("%w: countdown budget must be positive", ErrInvalidConfig)
	case c.CountdownPolicy != PolicySignal && c.CountdownPolicy != PolicyExpire:
		return fmt.Errorf("%w: unknown countdown policy %q", ErrInvalidConfig, c.CountdownPolicy)
	}
	return nil
}

func (c Config) PollInterval() time.Duration { return c.Unit * time.Duration(c.PollEvery) }

func (c Config) Budget() time.Duration { return c.Unit * time.Duration(c.CountdownBudget) }

// NewFromConfig creates an Engine from cfg. A Client is required via options.
func NewFromConfig(cfg Config, opts ...Option) (*Engine, error) {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
