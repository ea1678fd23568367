// Package requestid propagates X-Request-ID correlation identifiers.
//
// Every call the portal client makes carries an id: the one already in the
// context if present, a fresh UUIDv4 otherwise. Transport wraps an
// http.RoundTripper to set the header on outbound requests, and Middleware
// does the inverse for the fake portal server, so client and server log
// lines for one call share the same request_id attribute.
//
// Plug the id into pkg/logger with
// logger.StringExtractor("request_id", requestid.FromContext).
package requestid
