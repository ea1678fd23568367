// Package portalapi is the HTTP client for the captive portal REST API.
//
// It is the only place where transport errors exist in raw form. Every
// failure returned by a Client method is a *portalerr.Error:
// no response maps to Network (status 0), DEVICE_ALREADY_USED to
// DeviceConflict, 401/403 to Auth, 400/422 to Validation, and 5xx or an
// undecodable success body to Server. Calls are single-shot; nothing is
// retried.
//
// # Usage
//
//	client := portalapi.New("https://portal.example/api")
//	resp, err := client.Login(ctx, portalapi.LoginRequest{
//		Username:   "alice",
//		Password:   "p1",
//		MACAddress: fp,
//	})
//	if errors.Is(err, portalerr.DeviceConflict) { ... }
//
// Every request carries an X-Request-ID header taken from the context or
// freshly generated.
package portalapi
