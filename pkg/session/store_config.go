package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/redis"
	"github.com/dmitrymomot/captiveportal/pkg/secrets"
)

// StoreDriver selects a Store implementation.
type StoreDriver string

const (
	DriverMemory StoreDriver = "memory"
	DriverFile   StoreDriver = "file"
	DriverRedis  StoreDriver = "redis"
)

// StoreConfig selects and configures the credential store.
type StoreConfig struct {
	Driver StoreDriver `env:"SESSION_STORE" envDefault:"file"`

	FilePath string `env:"SESSION_FILE" envDefault:".captiveportal/credentials"`
	// EncryptionKey seals the credentials file. Hex or base64, 32 bytes.
	EncryptionKey string `env:"SESSION_ENCRYPTION_KEY"`

	RedisKey string        `env:"SESSION_REDIS_KEY" envDefault:"captiveportal:credentials"`
	RedisTTL time.Duration `env:"SESSION_REDIS_TTL" envDefault:"0s"`
	Redis    redis.Config
}

// DefaultStoreConfig returns the file store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:   DriverFile,
		FilePath: ".captiveportal/credentials",
		RedisKey: "captiveportal:credentials",
		Redis:    redis.DefaultConfig(),
	}
}

// NewStore builds the Store described by cfg. A RedisStore created here
// owns its client and must be closed.
func NewStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile, "":
		var opts []FileStoreOption
		if cfg.EncryptionKey != "" {
			key, err := secrets.ParseKey(cfg.EncryptionKey)
			if err != nil {
				return nil, errors.Join(ErrStore, err)
			}
			opts = append(opts, WithEncryptionKey(key))
		}
		return NewFileStore(cfg.FilePath, opts...), nil
	case DriverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, errors.Join(ErrStore, err)
		}
		store := NewRedisStore(client, cfg.RedisKey, cfg.RedisTTL)
		store.owned = true
		return store, nil
	default:
		return nil, ErrUnknownStoreDriver
	}
}
