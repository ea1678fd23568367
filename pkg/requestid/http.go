package requestid

import "net/http"

// Middleware reuses a valid incoming X-Request-ID or assigns a new one,
// stores it in the request context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if !Valid(requestID) {
			requestID = New()
		}
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), requestID)))
	})
}

// Transport sets X-Request-ID on outbound requests from the request context.
type Transport struct {
	// Base is the underlying transport. Nil means http.DefaultTransport.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get(Header) != "" {
		return base.RoundTrip(req)
	}
	_, id := Ensure(req.Context())
	// RoundTrippers must not modify the caller's request
	out := req.Clone(req.Context())
	out.Header.Set(Header, id)
	return base.RoundTrip(out)
}
