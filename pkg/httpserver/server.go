package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/logger"
)

// Server runs one handler with graceful shutdown and health probes.
type Server struct {
	addr              string
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
	checks            []namedCheck

	mu  sync.Mutex
	ln  net.Listener
	srv *http.Server
}

// New returns a Server listening on 127.0.0.1:8000 unless configured otherwise.
func New(opts ...Option) *Server {
	s := &Server{
		addr:              "127.0.0.1:8000",
		readHeaderTimeout: 5 * time.Second,
		shutdownTimeout:   5 * time.Second,
		logger:            logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("httpserver"))
	return s
}

// Listen binds the listen address. Run calls it when needed; calling it
// first lets callers learn the bound address.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr(), nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, errors.Join(ErrStart, err)
	}
	s.ln = ln
	return ln.Addr(), nil
}

// Run serves handler until ctx ends, then shuts down gracefully.
// /healthz and /readyz are answered before handler is reached.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	addr, err := s.Listen()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	srv := &http.Server{
		Handler:           s.withProbes(handler),
		ReadHeaderTimeout: s.readHeaderTimeout,
		WriteTimeout:      s.writeTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.srv = srv
	ln := s.ln
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", addr.String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownErr := s.shutdown(srv)
		<-errCh
		return shutdownErr
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Join(ErrStart, err)
	}
}

func (s *Server) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	s.logger.Info("http server stopped")
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
