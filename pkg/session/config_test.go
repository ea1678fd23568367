package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/captiveportal/pkg/config"
	"github.com/dmitrymomot/captiveportal/pkg/session"
)

func TestConfig_Load(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		var cfg session.Config
		require.NoError(t, config.Load(&cfg, config.WithEnvironment(map[string]string{})))
		assert.Equal(t, session.DefaultConfig(), cfg)

		var store session.StoreConfig
		require.NoError(t, config.Load(&store, config.WithEnvironment(map[string]string{})))
		assert.Equal(t, session.DefaultStoreConfig(), store)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()
		var cfg session.Config
		require.NoError(t, config.Load(&cfg, config.WithEnvironment(map[string]string{
			"SESSION_STATUS_CHECK_INTERVAL": "15s",
			"SESSION_LOGOUT_ON_CHECK_ERROR": "false",
		})))
		assert.Equal(t, 15*time.Second, cfg.StatusCheckInterval)
		assert.False(t, cfg.LogoutOnCheckError)

		var store session.StoreConfig
		require.NoError(t, config.Load(&store, config.WithEnvironment(map[string]string{
			"SESSION_STORE": "redis",
			"REDIS_URL":     "redis://cache:6379/2",
		})))
		assert.Equal(t, session.DriverRedis, store.Driver)
		assert.Equal(t, "redis://cache:6379/2", store.Redis.ConnectionURL)
	})
}
