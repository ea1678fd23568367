package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/captiveportal/pkg/logger"
	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
	"github.com/dmitrymomot/captiveportal/pkg/qrcode"
	"github.com/dmitrymomot/captiveportal/pkg/scheduler"
	"github.com/dmitrymomot/captiveportal/pkg/statemachine"
)

// Client is the subset of the portal API the engine needs.
type Client interface {
	InitiatePayment(ctx context.Context, req portalapi.InitiatePaymentRequest) (*portalapi.InitiatePaymentResponse, error)
	PaymentStatus(ctx context.Context, transactionID string) (*portalapi.PaymentStatusResponse, error)
	VerifyReference(ctx context.Context, req portalapi.VerifyReferenceRequest) (*portalapi.WiFiCredentials, error)
}

// Engine drives one device through the payment flow until it yields WiFi
// credentials. CONFIRMED is final: a new purchase needs a new Engine.
type Engine struct {
	client      Client
	config      Config
	logger      *slog.Logger
	clock       clockwork.Clock
	sched       *scheduler.Scheduler
	onConfirmed func(portalapi.WiFiCredentials)
	observer    func(Event)

	machine *statemachine.Machine[State, Trigger]

	mu        sync.Mutex
	tx        *Transaction
	scope     *scheduler.Scope
	stoppedAt time.Time
	timedOut  bool
	pending   []Event
	creds     *portalapi.WiFiCredentials

	outMu    sync.Mutex
	outbox   []Event
	draining bool

	confirmed   chan struct{}
	credentials chan portalapi.WiFiCredentials
}

// New creates an engine in PHONE_ENTRY.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config:      DefaultConfig(),
		logger:      logger.Discard(),
		confirmed:   make(chan struct{}),
		credentials: make(chan portalapi.WiFiCredentials, 1),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		return nil, errors.New("payment: portal client is required")
	}
	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	e.sched = scheduler.New(e.clock)
	e.clock = e.sched.Clock()
	e.logger = e.logger.With(logger.Component("payment"))

	machine, err := statemachine.New[State, Trigger](StatePhoneEntry, e.transitions()...)
	if err != nil {
		return nil, err
	}
	e.machine = machine
	return e, nil
}

func (e *Engine) transitions() []statemachine.Option[State, Trigger] {
	record := statemachine.WithAction[State, Trigger](e.recordTransition)
	hasTx := statemachine.WithGuard[State, Trigger](func(context.Context, State, Trigger) bool {
		return e.tx != nil
	})

	return []statemachine.Option[State, Trigger]{
		statemachine.WithTransition(StatePhoneEntry, StateInstructionsShown, TriggerInitiate, record, hasTx),
		statemachine.WithTransition(StateInstructionsShown, StateAwaitingConfirmation, TriggerAwait, record, hasTx),
		statemachine.WithTransition(StateAwaitingConfirmation, StateAwaitingConfirmation, TriggerAwait, record, hasTx),

		statemachine.WithTransition(StateAwaitingConfirmation, StateConfirmed, TriggerConfirm, record),
		statemachine.WithTransition(StateAwaitingConfirmation, StateExpired, TriggerExpire, record),
		statemachine.WithTransition(StateAwaitingConfirmation, StateFailed, TriggerFail, record),

		// manual reference verification
		statemachine.WithTransition(StatePhoneEntry, StateConfirmed, TriggerConfirm, record),
		statemachine.WithTransition(StateInstructionsShown, StateConfirmed, TriggerConfirm, record),

		statemachine.WithTransition(StateExpired, StatePhoneEntry, TriggerRetry, record),
		statemachine.WithTransition(StateFailed, StatePhoneEntry, TriggerRetry, record),

		statemachine.WithTerminal[State, Trigger](StateConfirmed),
	}
}

// recordTransition runs inside Fire with e.mu held.
func (e *Engine) recordTransition(_ context.Context, from, to State, trigger Trigger) error {
	var txID string
	if e.tx != nil {
		txID = e.tx.ID
	}
	e.logger.Debug("payment state changed",
		logger.Transition(string(from), string(to)),
		slog.String("trigger", string(trigger)),
		logger.TransactionID(txID))
	e.pending = append(e.pending, Event{
		Type:          EventStateChanged,
		From:          from,
		To:            to,
		TransactionID: txID,
		At:            e.clock.Now(),
	})
	return nil
}

// State returns the current step of the flow.
func (e *Engine) State() State {
	return e.machine.Current()
}

// Transaction returns a copy of the latest transaction, or nil.
func (e *Engine) Transaction() *Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tx == nil {
		return nil
	}
	cp := *e.tx
	return &cp
}

// Initiate requests a mobile-money payment for planID. It is only legal in PHONE_ENTRY.
func (e *Engine) Initiate(ctx context.Context, planID int, phone string) (*Transaction, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, portalerr.New(portalerr.Validation, "phone number is required")
	}
	if err := e.allowed(ctx, StatePhoneEntry, TriggerInitiate); err != nil {
		return nil, err
	}

	resp, err := e.client.InitiatePayment(ctx, portalapi.InitiatePaymentRequest{PlanID: planID, PhoneNumber: phone})
	if err != nil {
		e.logger.WarnContext(ctx, "payment initiation failed", slog.Int("plan_id", planID), logger.Error(err))
		return nil, err
	}

	e.mu.Lock()
	if e.machine.Current() != StatePhoneEntry {
		e.mu.Unlock()
		return nil, ErrStateChanged
	}
	prev := e.tx
	e.tx = &Transaction{
		ID:        resp.TransactionID.String(),
		Reference: resp.Reference,
		USSDCode:  resp.USSDCode,
		PlanID:    planID,
		Phone:     phone,
		Status:    portalapi.PaymentPending,
		CreatedAt: e.clock.Now(),
	}
	if err := e.machine.Fire(ctx, TriggerInitiate); err != nil {
		e.tx = prev
		e.mu.Unlock()
		return nil, err
	}
	tx := *e.tx
	e.enqueue(e.takePending())
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "payment initiated", logger.TransactionID(tx.ID), slog.Int("plan_id", planID))
	e.flush()
	return &tx, nil
}

// allowed reports whether trigger may fire now. An empty from accepts any state.
func (e *Engine) allowed(ctx context.Context, from State, trigger Trigger) error {
	current := e.machine.Current()
	if from != "" && current != from {
		return statemachine.NoTransition(string(current), string(trigger))
	}
	if e.machine.IsTerminal() {
		return statemachine.ErrTerminalState
	}
	if trigger == TriggerConfirm && !e.machine.CanFire(ctx, trigger) {
		return statemachine.NoTransition(string(current), string(trigger))
	}
	return nil
}

// BeginPolling enters AWAITING_CONFIRMATION and starts polling the
// transaction status together with the countdown. Both stop when a final
// status is seen, on Cancel, or when ctx ends. An empty transactionID means
// the current transaction.
func (e *Engine) BeginPolling(ctx context.Context, transactionID string) error {
	e.mu.Lock()
	if e.tx == nil {
		e.mu.Unlock()
		return ErrNoTransaction
	}
	if transactionID != "" && transactionID != e.tx.ID {
		e.mu.Unlock()
		return ErrTransactionMismatch
	}
	if e.scope != nil && !e.scope.Cancelled() {
		e.mu.Unlock()
		return ErrPollingActive
	}
	if err := e.machine.Fire(ctx, TriggerAwait); err != nil {
		e.mu.Unlock()
		return err
	}

	scope := e.sched.NewScope(ctx)
	e.scope = scope
	e.stoppedAt = time.Time{}
	e.timedOut = false

	context.AfterFunc(scope.Context(), e.scopeEnded(scope))

	err := scope.Every(e.config.PollInterval(), e.pollTick(scope))
	if err == nil {
		err = scope.Every(e.config.Unit, e.countdownTick(scope))
	}
	if err != nil {
		e.stopLocked()
	}
	txID := e.tx.ID
	e.enqueue(e.takePending())
	e.mu.Unlock()

	e.flush()
	if err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "polling payment status",
		logger.TransactionID(txID),
		slog.Duration("interval", e.config.PollInterval()),
		logger.Remaining(e.config.Budget()))
	return nil
}

// scopeEnded freezes the countdown when the polling context ends on its own.
func (e *Engine) scopeEnded(scope *scheduler.Scope) func() {
	return func() {
		e.mu.Lock()
		if e.scope != scope || !e.stoppedAt.IsZero() {
			e.mu.Unlock()
			return
		}
		e.stoppedAt = e.clock.Now()
		var txID string
		if e.tx != nil {
			txID = e.tx.ID
		}
		e.enqueue([]Event{{Type: EventStopped, TransactionID: txID, Err: scope.Context().Err(), Remaining: e.remainingLocked(), At: e.stoppedAt}})
		e.mu.Unlock()

		e.flush()
	}
}

func (e *Engine) pollTick(scope *scheduler.Scope) scheduler.Func {
	return func(ctx context.Context, _ time.Time) {
		e.mu.Lock()
		if e.scope != scope || scope.Cancelled() || e.tx == nil {
			e.mu.Unlock()
			return
		}
		txID := e.tx.ID
		e.mu.Unlock()

		// cancellation only stops scheduling; an in-flight poll completes
		resp, err := e.client.PaymentStatus(context.WithoutCancel(ctx), txID)

		e.mu.Lock()
		if e.scope != scope || scope.Cancelled() {
			e.mu.Unlock()
			return
		}
		var events []Event
		if err != nil {
			e.logger.WarnContext(ctx, "payment status poll failed", logger.TransactionID(txID), logger.Error(err))
			events = append(events, Event{Type: EventPollError, TransactionID: txID, Err: err, At: e.clock.Now()})
		} else {
			events = e.applyStatus(ctx, resp)
		}
		e.enqueue(events)
		e.mu.Unlock()

		e.flush()
	}
}

// applyStatus must be called with e.mu held.
func (e *Engine) applyStatus(ctx context.Context, resp *portalapi.PaymentStatusResponse) []Event {
	now := e.clock.Now()
	txID := e.tx.ID

	switch resp.Status {
	case portalapi.PaymentPending:
		return nil

	case portalapi.PaymentConfirmed:
		if resp.WiFiCredentials == nil {
			err := portalerr.New(portalerr.Server, "payment confirmed without wifi credentials")
			e.logger.WarnContext(ctx, "confirmation without credentials", logger.TransactionID(txID))
			return []Event{{Type: EventPollError, TransactionID: txID, Err: err, At: now}}
		}
		if err := e.tx.Advance(portalapi.PaymentConfirmed); err != nil {
			return e.rejectStatus(ctx, resp.Status, err)
		}
		return e.confirmLocked(ctx, *resp.WiFiCredentials)

	case portalapi.PaymentExpired, portalapi.PaymentFailed:
		if err := e.tx.Advance(resp.Status); err != nil {
			return e.rejectStatus(ctx, resp.Status, err)
		}
		return e.closeLocked(ctx, resp.Status, nil)

	default:
		return e.rejectStatus(ctx, resp.Status, ErrUnknownStatus)
	}
}

func (e *Engine) rejectStatus(ctx context.Context, status portalapi.PaymentStatus, err error) []Event {
	e.logger.WarnContext(ctx, "ignoring payment status", logger.TransactionID(e.tx.ID),
		slog.String("status", string(status)), logger.Error(err))
	return []Event{{Type: EventPollError, TransactionID: e.tx.ID, Err: err, At: e.clock.Now()}}
}

// closeLocked publishes the EXPIRED or FAILED outcome and loops back to PHONE_ENTRY.
func (e *Engine) closeLocked(ctx context.Context, status portalapi.PaymentStatus, cause error) []Event {
	trigger, outcome := TriggerExpire, EventExpired
	if status == portalapi.PaymentFailed {
		trigger, outcome = TriggerFail, EventFailed
	}

	e.stopLocked()
	if err := e.machine.Fire(ctx, trigger); err != nil {
		e.logger.ErrorContext(ctx, "payment transition failed", logger.Error(err))
		return e.takePending()
	}
	e.pending = append(e.pending, Event{Type: outcome, TransactionID: e.tx.ID, Err: cause, At: e.clock.Now()})
	if err := e.machine.Fire(ctx, TriggerRetry); err != nil {
		e.logger.ErrorContext(ctx, "payment retry transition failed", logger.Error(err))
	}
	e.logger.InfoContext(ctx, "payment closed", logger.TransactionID(e.tx.ID), slog.String("status", string(status)))
	return e.takePending()
}

// confirmLocked moves to CONFIRMED and queues the credentials for delivery.
func (e *Engine) confirmLocked(ctx context.Context, creds portalapi.WiFiCredentials) []Event {
	e.stopLocked()
	if err := e.machine.Fire(ctx, TriggerConfirm); err != nil {
		e.logger.ErrorContext(ctx, "payment confirmation transition failed", logger.Error(err))
		return e.takePending()
	}

	if creds.QRCode == "" && creds.Username != "" {
		qr, err := qrcode.GenerateBase64(creds.Username, e.config.QRSize)
		if err != nil {
			e.logger.WarnContext(ctx, "failed to render qr code", logger.Error(err))
		} else {
			creds.QRCode = qr
		}
	}

	e.creds = &creds
	close(e.confirmed)
	e.credentials <- creds

	var txID string
	if e.tx != nil {
		txID = e.tx.ID
	}
	e.logger.InfoContext(ctx, "payment confirmed", logger.TransactionID(txID), logger.Username(creds.Username))
	delivered := creds
	e.pending = append(e.pending, Event{Type: EventConfirmed, TransactionID: txID, Credentials: &delivered, At: e.clock.Now()})
	return e.takePending()
}

func (e *Engine) countdownTick(scope *scheduler.Scope) scheduler.Func {
	return func(ctx context.Context, now time.Time) {
		e.mu.Lock()
		if e.scope != scope || scope.Cancelled() || e.timedOut {
			e.mu.Unlock()
			return
		}
		remaining := e.remainingLocked()
		events := []Event{{Type: EventCountdown, TransactionID: e.tx.ID, Remaining: remaining, At: now}}

		if remaining == 0 && e.tx.Status == portalapi.PaymentPending {
			e.timedOut = true
			err := portalerr.New(portalerr.TransactionTimeout, "payment confirmation window elapsed")
			events = append(events, Event{Type: EventTimeout, TransactionID: e.tx.ID, Err: err, At: now})
			e.logger.WarnContext(ctx, "payment countdown elapsed",
				logger.TransactionID(e.tx.ID), slog.String("policy", string(e.config.CountdownPolicy)))

			if e.config.CountdownPolicy == PolicyExpire {
				if advErr := e.tx.Advance(portalapi.PaymentExpired); advErr == nil {
					events = append(events, e.closeLocked(ctx, portalapi.PaymentExpired, err)...)
				}
			}
		}
		e.enqueue(events)
		e.mu.Unlock()

		e.flush()
	}
}

// VerifyReference checks a payment reference entered by hand. On success the
// engine is CONFIRMED and any polling stops; on rejection nothing changes.
// A zero planID means the plan of the current transaction.
func (e *Engine) VerifyReference(ctx context.Context, reference string, planID int) (portalapi.WiFiCredentials, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return portalapi.WiFiCredentials{}, portalerr.New(portalerr.Validation, "payment reference is required")
	}

	e.mu.Lock()
	if err := e.allowed(ctx, "", TriggerConfirm); err != nil {
		e.mu.Unlock()
		return portalapi.WiFiCredentials{}, err
	}
	if planID == 0 && e.tx != nil {
		planID = e.tx.PlanID
	}
	e.mu.Unlock()

	creds, err := e.client.VerifyReference(ctx, portalapi.VerifyReferenceRequest{Reference: reference, PlanID: planID})
	if err != nil {
		e.logger.WarnContext(ctx, "payment reference rejected", slog.String("reference", reference), logger.Error(err))
		return portalapi.WiFiCredentials{}, err
	}

	e.mu.Lock()
	if err := e.allowed(ctx, "", TriggerConfirm); err != nil {
		e.mu.Unlock()
		return portalapi.WiFiCredentials{}, errors.Join(ErrStateChanged, err)
	}
	if e.tx != nil {
		if e.tx.IsTerminal() {
			// an EXPIRED or FAILED transaction is not the one being confirmed
			e.tx = nil
		} else {
			_ = e.tx.Advance(portalapi.PaymentConfirmed)
		}
	}
	e.enqueue(e.confirmLocked(ctx, *creds))
	delivered := *e.creds
	e.mu.Unlock()

	e.flush()
	return delivered, nil
}

// Remaining returns the countdown budget left, never negative. Before
// polling starts it is the full budget; after polling stops it is frozen.
func (e *Engine) Remaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remainingLocked()
}

func (e *Engine) remainingLocked() time.Duration {
	budget := e.config.Budget()
	if e.scope == nil {
		return budget
	}
	end := e.clock.Now()
	if !e.stoppedAt.IsZero() {
		end = e.stoppedAt
	}
	left := budget - end.Sub(e.scope.Started())
	if left < 0 {
		return 0
	}
	return left
}

// Polling reports whether a polling scope is running.
func (e *Engine) Polling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope != nil && !e.scope.Cancelled()
}

// Cancel stops polling and the countdown without changing state. It does not
// wait for a running callback and may be called from an observer.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Close cancels polling and waits for running callbacks to return.
func (e *Engine) Close() {
	e.mu.Lock()
	scope := e.scope
	e.stopLocked()
	e.mu.Unlock()

	if scope != nil {
		scope.Wait()
	}
}

func (e *Engine) stopLocked() {
	if e.scope == nil || e.scope.Cancelled() {
		return
	}
	e.scope.Cancel()
	e.stoppedAt = e.clock.Now()
}

// Wait blocks until credentials are confirmed or ctx ends.
func (e *Engine) Wait(ctx context.Context) (portalapi.WiFiCredentials, error) {
	select {
	case <-e.confirmed:
		e.mu.Lock()
		defer e.mu.Unlock()
		return *e.creds, nil
	case <-ctx.Done():
		return portalapi.WiFiCredentials{}, ctx.Err()
	}
}

// Credentials receives the confirmed credentials exactly once.
func (e *Engine) Credentials() <-chan portalapi.WiFiCredentials {
	return e.credentials
}

func (e *Engine) takePending() []Event {
	events := e.pending
	e.pending = nil
	return events
}

// enqueue must be called with e.mu held so events leave in the order they
// were produced.
func (e *Engine) enqueue(events []Event) {
	if len(events) == 0 {
		return
	}
	e.outMu.Lock()
	e.outbox = append(e.outbox, events...)
	e.outMu.Unlock()
}

// flush delivers queued events. One goroutine drains at a time; a caller that
// finds a drain in progress leaves its events to it.
func (e *Engine) flush() {
	e.outMu.Lock()
	if e.draining {
		e.outMu.Unlock()
		return
	}
	e.draining = true
	for len(e.outbox) > 0 {
		events := e.outbox
		e.outbox = nil
		e.outMu.Unlock()
		e.publish(events)
		e.outMu.Lock()
	}
	e.draining = false
	e.outMu.Unlock()
}

func (e *Engine) publish(events []Event) {
	for _, ev := range events {
		if ev.Type == EventConfirmed && e.onConfirmed != nil && ev.Credentials != nil {
			e.onConfirmed(*ev.Credentials)
		}
		if e.observer != nil {
			e.observer(ev)
		}
	}
}
