package session

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds *Credentials
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.creds == nil {
		return Credentials{}, ErrNoCredentials
	}
	return m.creds.clone(), nil
}

func (m *MemoryStore) SetAll(_ context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	cp := creds.clone()

	m.mu.Lock()
	m.creds = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.creds = nil
	m.mu.Unlock()
	return nil
}
