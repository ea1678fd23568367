package portalapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/logger"
	"github.com/dmitrymomot/captiveportal/pkg/requestid"
)

// Client talks to one portal server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses a copy of c. Its transport is wrapped to add request ids.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cp := *c
			cl.http = &cp
		}
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// New creates a client for baseURL, e.g. "https://portal.example/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if _, ok := c.http.Transport.(*requestid.Transport); !ok {
		c.http.Transport = &requestid.Transport{Base: c.http.Transport}
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) url(path string) string {
	return c.baseURL + path
}
