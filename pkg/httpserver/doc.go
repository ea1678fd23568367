// Package httpserver runs a single http.Handler with graceful shutdown and
// liveness/readiness probes.
//
// Run blocks until its context ends, then calls http.Server.Shutdown with the
// configured deadline. Signal handling belongs to the caller, usually through
// signal.NotifyContext in main. Listen may be called before Run to bind the
// address early, which is how callers using port 0 learn the real port.
//
// # Probes
//
// GET /healthz always answers 200 "ALIVE". GET /readyz runs every check
// registered with WithReadiness and answers 503 "NOT_READY" on the first
// failure.
//
// # Usage
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// # Errors
//
// Listen failures are wrapped with ErrStart and shutdown failures with
// ErrShutdown. Use errors.Is to distinguish them.
package httpserver
