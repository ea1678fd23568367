package fingerprint

import "context"

type contextKey struct{}

// WithContext stores the device fingerprint for logging and request handlers.
func WithContext(ctx context.Context, fp string) context.Context {
	return context.WithValue(ctx, contextKey{}, fp)
}

// FromContext returns the stored fingerprint or "".
func FromContext(ctx context.Context) string {
	fp, _ := ctx.Value(contextKey{}).(string)
	return fp
}
