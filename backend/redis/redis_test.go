package redis

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/backend/test"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const (
	address  = "localhost:6379"
	user     = ""
	password = ""
)

func newClient() redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{address},
		Username: user,
		Password: password,
		DB:       0,
	})
}

// getClient returns a client, or skips the test if no server is reachable
func getClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	if testing.Short() {
		t.Skip()
	}

	client := newClient()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not reachable at %s: %v", address, err)
	}

	return client
}

// deleteKeys removes all keys with the given prefix
func deleteKeys(t *testing.T, client redis.UniversalClient, prefix string) {
	ctx := context.Background()

	iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		require.NoError(t, client.Del(ctx, iter.Val()).Err())
	}
	require.NoError(t, iter.Err())
}

func Test_RedisBackend(t *testing.T) {
	getClient(t).Close()

	test.BackendTest(t, func() backend.Backend {
		prefix := "flowcov-test:" + uuid.NewString() + ":"

		// Each backend closes its own client
		b, err := NewRedisBackend(newClient(), WithKeyPrefix(prefix))
		require.NoError(t, err)

		return b
	}, func(b backend.Backend) {
		rb := b.(*redisBackend)
		deleteKeys(t, rb.rdb, rb.keys.prefix)
		require.NoError(t, b.Close())
	})
}

func Test_RedisBackend_AutoExpiration(t *testing.T) {
	client := getClient(t)
	prefix := "flowcov-test:" + uuid.NewString() + ":"
	ctx := context.Background()

	c := clock.NewMock()
	c.Set(time.Now())

	b, err := NewRedisBackend(client,
		WithKeyPrefix(prefix),
		WithAutoExpiration(time.Hour),
		WithBackendOptions(backend.WithClock(c)),
	)
	require.NoError(t, err)
	defer func() {
		deleteKeys(t, client, prefix)
		b.Close()
	}()

	require.NoError(t, b.SaveClassRun(ctx, &backend.ClassRun{
		ID:        "run-1",
		ClassName: "OrderProcessTest",
		CreatedAt: c.Now(),
		Coverage:  &coverage.ClassSnapshot{},
	}))

	ttl, err := client.TTL(ctx, b.keys.runKey("run-1")).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 59*time.Minute)

	runs, err := b.ListClassRuns(ctx, "OrderProcessTest")
	require.NoError(t, err)
	require.Len(t, runs, 1)

	// Once past the expiration, the indexes are cleaned up even if redis still holds the payload
	c.Add(2 * time.Hour)

	runs, err = b.ListClassRuns(ctx, "OrderProcessTest")
	require.NoError(t, err)
	require.Empty(t, runs)

	s, err := b.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), s.ClassRuns)
	require.Equal(t, int64(0), s.Classes)
}
