package portaltest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/captiveportal/pkg/requestid"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

// Server is an in-memory portal.
type Server struct {
	mu           sync.Mutex
	clock        clockwork.Clock
	users        map[string]*User
	bindings     map[string]string // fingerprint -> session id
	sessions     map[string]*session
	plans        []subscription.Plan
	scripts      []PaymentScript
	transactions map[string]*transaction
	references   map[string]Reference
	calls        map[string]int
	faults       map[string][]fault
	latency      map[string]time.Duration
	requestIDs   []string

	router chi.Router
	ts     *httptest.Server
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for subscription expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithPlans seeds the plan catalogue.
func WithPlans(plans ...subscription.Plan) Option {
	return func(s *Server) { s.plans = append(s.plans, plans...) }
}

// New creates a server without starting a listener. Use Handler to mount it.
func New(opts ...Option) *Server {
	s := &Server{
		clock:        clockwork.NewRealClock(),
		users:        make(map[string]*User),
		bindings:     make(map[string]string),
		sessions:     make(map[string]*session),
		transactions: make(map[string]*transaction),
		references:   make(map[string]Reference),
		calls:        make(map[string]int),
		faults:       make(map[string][]fault),
		latency:      make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// NewServer creates and starts a server on a loopback listener.
func NewServer(opts ...Option) *Server {
	s := New(opts...)
	s.ts = httptest.NewServer(s.router)
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(s.recordRequestID)

	r.Route("/captive-portal", func(r chi.Router) {
		r.Post("/login/", s.handle(RouteLogin, s.login))
		r.Get("/check-status/", s.handle(RouteCheckStatus, s.checkStatus))
		r.Post("/logout/", s.handle(RouteLogout, s.logout))
	})
	r.Post("/auth/token/refresh/", s.handle(RouteRefresh, s.refresh))
	r.Route("/payments", func(r chi.Router) {
		r.Post("/sms-initiate", s.handle(RouteInitiatePayment, s.initiatePayment))
		r.Get("/{transactionID}/status", s.handle(RoutePaymentStatus, s.paymentStatus))
		r.Post("/verify-reference", s.handle(RouteVerifyReference, s.verifyReference))
	})
	r.Route("/subscriptions/plans", func(r chi.Router) {
		r.Get("/", s.handle(RoutePlans, s.listPlans))
		r.Get("/{planID}/", s.handle(RoutePlan, s.getPlan))
	})
	return r
}

// Handler returns the HTTP handler for mounting under a custom server.
func (s *Server) Handler() http.Handler { return s.router }

// URL is the API root of a started server.
func (s *Server) URL() string {
	if s.ts == nil {
		return ""
	}
	return s.ts.URL
}

// Close stops a started server.
func (s *Server) Close() {
	if s.ts != nil {
		s.ts.Close()
	}
}

// handle counts the call, applies latency and queued faults, then runs h.
func (s *Server) handle(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		delay := s.latency[route]
		var f *fault
		if q := s.faults[route]; len(q) > 0 {
			f = &q[0]
			s.faults[route] = q[1:]
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if f != nil {
			if f.body == nil {
				w.WriteHeader(f.status)
				return
			}
			writeJSON(w, f.status, f.body)
			return
		}
		h(w, r)
	}
}

func (s *Server) recordRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requestIDs = append(s.requestIDs, requestid.FromContext(r.Context()))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) now() time.Time { return s.clock.Now() }

func newID() string { return uuid.NewString() }
