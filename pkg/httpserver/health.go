package httpserver

import (
	"net/http"

	"github.com/dmitrymomot/captiveportal/pkg/logger"
)

type namedCheck struct {
	name  string
	check func() error
}

// withProbes answers liveness on /healthz and readiness on /readyz.
func (s *Server) withProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
		case "/readyz":
			for _, c := range s.checks {
				if err := c.check(); err != nil {
					s.logger.ErrorContext(r.Context(), "readiness check failed",
						logger.Component(c.name), logger.Error(err))
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte("NOT_READY"))
					return
				}
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("READY"))
		default:
			next.ServeHTTP(w, r)
		}
	})
}
