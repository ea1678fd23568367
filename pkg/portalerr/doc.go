// Package portalerr defines the error taxonomy shared by the portal client,
// the session manager and the payment engine.
//
// Transport failures never leave pkg/portalapi in raw form. Every outcome is
// classified into one Kind and wrapped in an *Error carrying the server
// message and HTTP status (0 when no response was received). Callers branch
// on the kind with errors.Is:
//
//	if errors.Is(err, portalerr.DeviceConflict) {
//		// ticket already redeemed on another device
//	}
//
// Kind values implement error themselves so they can be used as errors.Is
// targets without separate sentinel variables.
package portalerr
