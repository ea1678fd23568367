package session

import "context"

// Store persists the credentials of the current session.
// Implementations must make SetAll and Clear atomic: a reader never observes
// a partially written set.
type Store interface {
	// Get returns the stored credentials or ErrNoCredentials.
	Get(ctx context.Context) (Credentials, error)

	// SetAll replaces every stored field at once.
	SetAll(ctx context.Context, creds Credentials) error

	// Clear removes every stored field at once. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
