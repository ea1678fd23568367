package requestid

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

const (
	Header      = "X-Request-ID"
	maxIDLength = 128
)

var validIDRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

type contextKey struct{}

// New returns a fresh request id.
func New() string {
	return uuid.NewString()
}

// Valid reports whether id is safe to propagate.
func Valid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validIDRegex.MatchString(id)
}

func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(contextKey{}).(string)
	return requestID
}

// Ensure returns ctx carrying a valid request id, generating one if needed.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); Valid(id) {
		return ctx, id
	}
	id := New()
	return WithContext(ctx, id), id
}
