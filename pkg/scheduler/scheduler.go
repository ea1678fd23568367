package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Func is a periodic callback. ctx is the scope context and now is the tick time.
type Func func(ctx context.Context, now time.Time)

// Scheduler creates scopes bound to one clock.
type Scheduler struct {
	clock clockwork.Clock
}

// New creates a Scheduler. A nil clock means the real clock.
func New(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

func (s *Scheduler) Clock() clockwork.Clock { return s.clock }

func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// NewScope creates a scope that ends when parent ends or when cancelled.
func (s *Scheduler) NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{clock: s.clock, ctx: ctx, cancel: cancel, started: s.clock.Now()}
}

// Scope owns a set of tickers that share one cancellation.
type Scope struct {
	clock   clockwork.Clock
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time

	mu sync.Mutex
	wg sync.WaitGroup
}

// Every runs fn every d until the scope is cancelled.
func (s *Scope) Every(d time.Duration, fn Func) error {
	if d <= 0 {
		return ErrInvalidInterval
	}
	if fn == nil {
		return ErrNilCallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return ErrScopeCancelled
	}

	ticker := s.clock.NewTicker(d)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case now := <-ticker.Chan():
				// select picks randomly when both are ready
				if s.ctx.Err() != nil {
					return
				}
				fn(s.ctx, now)
			}
		}
	}()
	return nil
}

// Cancel stops all tickers of the scope. It does not wait for running
// callbacks and is safe to call from inside one.
func (s *Scope) Cancel() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
}

// Wait blocks until every ticker goroutine has returned.
func (s *Scope) Wait() {
	s.wg.Wait()
}

// Stop cancels the scope and waits for its callbacks to return.
func (s *Scope) Stop() {
	s.Cancel()
	s.Wait()
}

func (s *Scope) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Scope) Context() context.Context { return s.ctx }

// Cancelled reports whether the scope has ended.
func (s *Scope) Cancelled() bool { return s.ctx.Err() != nil }

// Started is the clock time the scope was created at.
func (s *Scope) Started() time.Time { return s.started }

// Elapsed is the clock time passed since the scope was created.
func (s *Scope) Elapsed() time.Duration { return s.clock.Since(s.started) }
