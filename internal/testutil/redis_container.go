package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// The container is shared by every test in the binary and removed by the
// testcontainers reaper when the process exits.
var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// RedisAddress returns the host:port of the shared Redis container, starting
// it on first use. The test is skipped when no container provider is
// available.
func RedisAddress(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	redisOnce.Do(func() {
		redisAddr, redisErr = startRedis()
	})
	if redisErr != nil {
		t.Fatalf("starting redis container: %v", redisErr)
	}
	return redisAddr
}

func startRedis() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := testcontainers.Run(
		ctx, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	if err != nil {
		return "", err
	}

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		_ = c.Terminate(context.Background())
		return "", err
	}
	return endpoint, nil
}

// NewRedisClient connects to the shared container and removes every key
// under prefix before the test and again when it ends.
func NewRedisClient(t *testing.T, prefix string) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: RedisAddress(t)})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("redis ping failed: %v", err)
	}

	if err := FlushPrefix(ctx, client, prefix); err != nil {
		t.Fatalf("flushing %q: %v", prefix, err)
	}
	t.Cleanup(func() {
		_ = FlushPrefix(context.Background(), client, prefix)
		_ = client.Close()
	})
	return client
}

// FlushPrefix deletes every key starting with prefix.
func FlushPrefix(ctx context.Context, client *redis.Client, prefix string) error {
	iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
