// Package scheduler runs periodic callbacks inside cancellation scopes.
//
// A Scope groups any number of tickers under one context. Cancelling the
// scope stops every ticker it owns, so a payment poll and its countdown can
// never outlive each other. Time comes from a clockwork.Clock, which lets
// tests drive tickers with clockwork.NewFakeClock.
//
// # Usage
//
//	sched := scheduler.New(nil) // real clock
//	scope := sched.NewScope(ctx)
//	_ = scope.Every(3*time.Second, poll)
//	_ = scope.Every(time.Second, tick)
//	...
//	scope.Stop() // cancel and wait for callbacks to return
//
// Tickers are created synchronously inside Every, so a fake clock advanced
// right after Every returns will fire them.
//
// Callbacks on the same scope run on separate goroutines. Callers that share
// state between them must synchronize it. Cancel may be called from a
// callback; Stop and Wait must not, since they wait for callbacks to return.
package scheduler
