// Package redis connects to the Redis server used by the shared credential
// store.
//
// Connect retries the initial ping so that a portal agent started next to a
// Redis container does not fail while the server is still booting:
//
//	client, err := redis.Connect(ctx, redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0",
//	    RetryAttempts:  3,
//	    RetryInterval:  2 * time.Second,
//	    ConnectTimeout: 10 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Config fields are read from REDIS_* environment variables through
// pkg/config. Errors wrap go-redis failures with errors.Join, so both the
// sentinel and the cause match errors.Is.
package redis
