package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/domain"
)

func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	cache := NewRedisCache(client)
	token := "test-" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { _ = cache.Forget(ctx, token) })

	_, err := cache.Get(ctx, token)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, token, domain.Identity{UserID: "u1", Email: "a@b.test"}, time.Minute))
	id, err := cache.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)

	require.NoError(t, cache.Forget(ctx, token))
	_, err = cache.Get(ctx, token)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
