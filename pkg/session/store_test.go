package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/secrets"
	"github.com/dmitrymomot/captiveportal/pkg/session"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

func sampleCredentials() session.Credentials {
	return session.Credentials{
		AccessToken:  "t1",
		RefreshToken: "r1",
		SessionID:    "s1",
		User: portalapi.User{
			Username: "alice",
			Subscription: &subscription.Subscription{
				PlanName: "Daily",
				EndDate:  subscription.NewDate(epoch.Add(24 * time.Hour)),
			},
		},
		Fingerprint: "fp-A",
		CreatedAt:   epoch,
	}
}

// testStore runs the behaviour every Store must share.
func testStore(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, session.ErrNoCredentials)

	require.NoError(t, store.Clear(ctx), "clearing an empty store")

	in := sampleCredentials()
	require.NoError(t, store.SetAll(ctx, in))

	out, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.Equal(t, in.RefreshToken, out.RefreshToken)
	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, in.Fingerprint, out.Fingerprint)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, "alice", out.User.Username)
	require.NotNil(t, out.User.Subscription)
	assert.Equal(t, "Daily", out.User.Subscription.PlanName)
	assert.True(t, in.User.Subscription.EndDate.Equal(out.User.Subscription.EndDate.Time))

	replaced := in
	replaced.AccessToken = "t2"
	replaced.RefreshToken = ""
	require.NoError(t, store.SetAll(ctx, replaced))
	out, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", out.AccessToken)
	assert.Empty(t, out.RefreshToken, "SetAll replaces every field")

	invalid := in
	invalid.SessionID = ""
	assert.ErrorIs(t, store.SetAll(ctx, invalid), session.ErrInvalidCredentials)
	out, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", out.AccessToken, "rejected write leaves store untouched")

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, session.ErrNoCredentials)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	testStore(t, session.NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore()

	in := sampleCredentials()
	require.NoError(t, store.SetAll(ctx, in))
	in.User.Subscription.PlanName = "mutated"

	out, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Daily", out.User.Subscription.PlanName)
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "state", "credentials.json")
		testStore(t, session.NewFileStore(path))
	})

	t.Run("encrypted", func(t *testing.T) {
		t.Parallel()
		key, err := secrets.GenerateKey()
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "credentials")
		testStore(t, session.NewFileStore(path, session.WithEncryptionKey(key)))
	})

	t.Run("encrypted file is not readable as json", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		key, err := secrets.GenerateKey()
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "credentials")

		store := session.NewFileStore(path, session.WithEncryptionKey(key))
		require.NoError(t, store.SetAll(ctx, sampleCredentials()))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "alice")

		_, err = session.NewFileStore(path).Get(ctx)
		assert.ErrorIs(t, err, session.ErrCorruptCredentials)

		other, err := secrets.GenerateKey()
		require.NoError(t, err)
		_, err = session.NewFileStore(path, session.WithEncryptionKey(other)).Get(ctx)
		assert.ErrorIs(t, err, session.ErrCorruptCredentials)
	})

	t.Run("leaves no temp files and restricts permissions", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "credentials.json")
		store := session.NewFileStore(path)

		for range 3 {
			require.NoError(t, store.SetAll(ctx, sampleCredentials()))
		}

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "credentials.json", entries[0].Name())

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	key := "captiveportal:test:" + t.Name()
	t.Cleanup(func() { _ = client.Del(context.Background(), key).Err() })

	testStore(t, session.NewRedisStore(client, key, time.Minute))

	ttl, err := client.TTL(context.Background(), key).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Duration(0), "cleared key has no ttl")
}

func TestNewStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := session.NewStore(ctx, session.StoreConfig{Driver: session.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)

	path := filepath.Join(t.TempDir(), "credentials")
	store, err = session.NewStore(ctx, session.StoreConfig{Driver: session.DriverFile, FilePath: path})
	require.NoError(t, err)
	fs, ok := store.(*session.FileStore)
	require.True(t, ok)
	assert.Equal(t, path, fs.Path())

	_, err = session.NewStore(ctx, session.StoreConfig{Driver: session.DriverFile, FilePath: path, EncryptionKey: "short"})
	assert.ErrorIs(t, err, session.ErrStore)

	_, err = session.NewStore(ctx, session.StoreConfig{Driver: "etcd"})
	assert.ErrorIs(t, err, session.ErrUnknownStoreDriver)
}
