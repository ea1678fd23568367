package session

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrymomot/captiveportal/pkg/secrets"
)

// fileNamespace scopes the encryption key derived for the credentials file.
const fileNamespace = "credentials"

// FileStore keeps credentials in a single JSON file, optionally sealed with
// AES-GCM. Writes go to a temporary file that is renamed over the target.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  []byte
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithEncryptionKey seals the file with a key derived from master.
func WithEncryptionKey(master []byte) FileStoreOption {
	return func(f *FileStore) {
		if len(master) > 0 {
			f.key = append([]byte(nil), master...)
		}
	}
}

// NewFileStore creates a store backed by path. The file is created on the first SetAll.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	f := &FileStore{path: path}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(_ context.Context) (Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, errors.Join(ErrStore, err)
	}

	if f.key != nil {
		if data, err = secrets.Open(f.key, fileNamespace, data); err != nil {
			return Credentials{}, errors.Join(ErrCorruptCredentials, err)
		}
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, errors.Join(ErrCorruptCredentials, err)
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, errors.Join(ErrCorruptCredentials, err)
	}
	return creds, nil
}

func (f *FileStore) SetAll(_ context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	if f.key != nil {
		if data, err = secrets.Seal(f.key, fileNamespace, data); err != nil {
			return errors.Join(ErrStore, err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := writeFileAtomic(f.path, data); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
