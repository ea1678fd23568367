package httpserver

import (
	"log/slog"
	"time"
)

// Option configures the server.
type Option func(*Server)

// WithAddr sets the listen address. Port 0 picks a free port.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("WithAddr: addr cannot be empty")
	}
	return func(s *Server) { s.addr = addr }
}

func WithReadHeaderTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithReadHeaderTimeout: duration must be > 0")
	}
	return func(s *Server) { s.readHeaderTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithWriteTimeout: duration must be > 0")
	}
	return func(s *Server) { s.writeTimeout = d }
}

func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithShutdownTimeout: duration must be > 0")
	}
	return func(s *Server) { s.shutdownTimeout = d }
}

// WithLogger sets the logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReadiness adds a check reported by the /readyz endpoint.
func WithReadiness(name string, check func() error) Option {
	if check == nil {
		panic("WithReadiness: nil check")
	}
	return func(s *Server) { s.checks = append(s.checks, namedCheck{name: name, check: check}) }
}
