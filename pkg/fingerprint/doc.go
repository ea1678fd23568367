// Package fingerprint derives a stable device identifier for captive-portal
// logins.
//
// A captive portal cannot see a reliable hardware address, so the device is
// approximated from what the client environment reports: user agent,
// preferred language, screen resolution, timezone offset and a rendered
// canvas signature. The identifier is sent to the portal as the mac_address
// field and is what the server binds a ticket redemption to.
//
// # Usage
//
//	env := fingerprint.Environment{
//		UserAgent:        r.UserAgent(),
//		Language:         "fr-FR",
//		ScreenResolution: "1920x1080",
//		TimezoneOffset:   -180,
//		CanvasSignature:  canvasData,
//	}
//	fp := fingerprint.Generate(env)
//
// For HTTP handlers, FromRequest builds the Environment from request headers
// and Middleware stores the resulting fingerprint in the request context.
//
// # Caveats
//
// The hash is a 32-bit rolling hash. It is fast and deterministic but not
// collision resistant and must not be treated as a security control. Two
// devices reporting identical environments share a fingerprint.
package fingerprint
