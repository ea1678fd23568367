package portaltest

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

// AddUser registers or replaces a ticket holder.
func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.Username] = &cp
}

// SetEndDate moves the subscription end date of a user.
func (s *Server) SetEndDate(username string, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		u.EndDate = end
	}
}

// AddPlan adds a plan to the catalogue.
func (s *Server) AddPlan(p subscription.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, p)
}

// QueuePayment scripts the next sms-initiate call. Scripts are consumed in order.
func (s *Server) QueuePayment(p PaymentScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, p)
}

// SetPaymentStatus forces the status returned by all further polls of a transaction.
func (s *Server) SetPaymentStatus(transactionID string, status portalapi.PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.transactions[transactionID]; ok {
		tx.script.Statuses = []portalapi.PaymentStatus{status}
		tx.polls = 0
	}
}

// AddReference registers a payment reference for manual verification.
func (s *Server) AddReference(ref Reference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.references[ref.Code] = ref
}

// FailNext makes the next call to route return status with body.
// A nil body sends no content.
func (s *Server) FailNext(route string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = append(s.faults[route], fault{status: status, body: body})
}

// SetLatency delays every call to route by d.
func (s *Server) SetLatency(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency[route] = d
}

// Calls returns how many requests hit route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// RequestIDs returns the X-Request-ID of every request received, in order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// SessionActive reports whether a session exists and is active.
func (s *Server) SessionActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return ok && sess.active
}

// Bound reports whether a fingerprint is bound to an active session.
func (s *Server) Bound(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bindings[fingerprint]
	return ok
}

// Seed is the YAML document accepted by LoadSeed.
type Seed struct {
	Users    []User              `yaml:"users"`
	Plans    []subscription.Plan `yaml:"plans"`
	Payments []SeedPayment       `yaml:"payments"`
	// References are accepted for any plan when PlanID is 0.
	References []SeedReference `yaml:"references"`
}

type SeedCredentials struct {
	Username string    `yaml:"username"`
	Password string    `yaml:"password"`
	Expires  time.Time `yaml:"expiration_date"`
}

func (c SeedCredentials) wifi() portalapi.WiFiCredentials {
	return portalapi.WiFiCredentials{
		Username:       c.Username,
		Password:       c.Password,
		ExpirationDate: subscription.NewDate(c.Expires),
	}
}

type SeedPayment struct {
	PaymentScript `yaml:",inline"`
	Credentials   SeedCredentials `yaml:"credentials"`
}

type SeedReference struct {
	Code        string          `yaml:"code"`
	PlanID      int             `yaml:"plan_id"`
	Credentials SeedCredentials `yaml:"credentials"`
}

// LoadSeed applies a YAML seed document to the server.
func (s *Server) LoadSeed(r io.Reader) error {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return fmt.Errorf("portaltest: decode seed: %w", err)
	}

	for _, u := range seed.Users {
		if u.Username == "" {
			return fmt.Errorf("portaltest: seed user without username")
		}
		s.AddUser(u)
	}
	for _, p := range seed.Plans {
		s.AddPlan(p)
	}
	for _, p := range seed.Payments {
		script := p.PaymentScript
		script.Credentials = p.Credentials.wifi()
		s.QueuePayment(script)
	}
	for _, ref := range seed.References {
		s.AddReference(Reference{Code: ref.Code, PlanID: ref.PlanID, Credentials: ref.Credentials.wifi()})
	}
	return nil
}
