// Package subscription models the plan catalogue and the time-bounded
// entitlement attached to a ticket.
//
// Both types are reference data owned by the portal server. The client only
// reads them: Plan describes what can be bought, Subscription describes what
// a logged-in user currently holds. Expiry is always derived from the end date
// and the caller's clock, never from the server-reported flag alone.
package subscription
