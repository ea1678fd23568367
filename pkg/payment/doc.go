// Package payment implements the mobile-money purchase flow of the captive
// portal as a state machine:
//
//	PHONE_ENTRY -> INSTRUCTIONS_SHOWN -> AWAITING_CONFIRMATION -> CONFIRMED
//	                                                           -> EXPIRED -> PHONE_ENTRY
//	                                                           -> FAILED  -> PHONE_ENTRY
//
// Initiate asks the portal for a USSD payment. BeginPolling then polls the
// transaction status every PollEvery units while a countdown of
// CountdownBudget units runs. Both timers live in one scheduler scope, so
// they stop together on a final status, on Cancel or when the context ends.
// VerifyReference confirms a payment from a reference typed by the user
// instead.
//
// On CONFIRMED the engine delivers the WiFi credentials exactly once through
// Wait, Credentials and the WithOnConfirmed callback. It never stores them;
// callers pass them to session.Manager.Login.
//
// When the countdown ends while the transaction is still pending the engine
// publishes EventTimeout. With PolicySignal polling continues; with
// PolicyExpire the transaction is marked EXPIRED and the flow returns to
// PHONE_ENTRY.
package payment
