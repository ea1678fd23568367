package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
	fieldSessionID    = "session_id"
	fieldUser         = "user"
	fieldFingerprint  = "fingerprint"
	fieldCreatedAt    = "created_at"
)

// RedisStore keeps credentials in one Redis hash.
// SetAll replaces the hash inside MULTI/EXEC.
type RedisStore struct {
	client goredis.UniversalClient
	key    string
	ttl    time.Duration
	owned  bool
}

// NewRedisStore creates a store writing to the hash at key. A positive ttl
// expires the stored credentials.
func NewRedisStore(client goredis.UniversalClient, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// Key returns the hash key.
func (r *RedisStore) Key() string { return r.key }

func (r *RedisStore) Get(ctx context.Context) (Credentials, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return Credentials{}, errors.Join(ErrStore, err)
	}
	if len(fields) == 0 {
		return Credentials{}, ErrNoCredentials
	}

	creds := Credentials{
		AccessToken:  fields[fieldAccessToken],
		RefreshToken: fields[fieldRefreshToken],
		SessionID:    fields[fieldSessionID],
		Fingerprint:  fields[fieldFingerprint],
	}
	if raw := fields[fieldUser]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &creds.User); err != nil {
			return Credentials{}, errors.Join(ErrCorruptCredentials, err)
		}
	}
	if raw := fields[fieldCreatedAt]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Credentials{}, errors.Join(ErrCorruptCredentials, err)
		}
		creds.CreatedAt = t
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, errors.Join(ErrCorruptCredentials, err)
	}
	return creds, nil
}

func (r *RedisStore) SetAll(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	user, err := json.Marshal(creds.User)
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, map[string]any{
			fieldAccessToken:  creds.AccessToken,
			fieldRefreshToken: creds.RefreshToken,
			fieldSessionID:    creds.SessionID,
			fieldUser:         string(user),
			fieldFingerprint:  creds.Fingerprint,
			fieldCreatedAt:    creds.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

// Close closes the client when it was opened by NewStore.
func (r *RedisStore) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
