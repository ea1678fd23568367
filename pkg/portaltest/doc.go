// Package portaltest provides an in-memory portal server implementing the
// captive portal REST contract, for tests and local development.
//
// The server keeps users, device bindings, sessions, plans, payment
// transactions and payment references in memory. Tests seed it through
// methods such as AddUser, QueuePayment and AddReference, inject faults with
// FailNext and SetLatency, and assert on Calls.
//
//	srv := portaltest.NewServer()
//	defer srv.Close()
//	srv.AddUser(portaltest.User{Username: "alice", Password: "p1", EndDate: tomorrow})
//	client := portalapi.New(srv.URL())
//
// Login enforces one active session per device fingerprint and rejects a
// second binding with DEVICE_ALREADY_USED. Status checks end a session once
// its subscription end date has passed.
package portaltest
