package fingerprint

import "net/http"

// Middleware stores the fingerprint of each request in its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := Generate(FromRequest(r))
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), fp)))
	})
}
