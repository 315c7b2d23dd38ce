package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"orderledger/internal/domain"
)

const cacheKeyPrefix = "session:"

// RedisCache keeps resolved session identities in redis.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, token string) (*domain.Identity, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *RedisCache) Set(ctx context.Context, token string, id domain.Identity, ttl time.Duration) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+token, raw, ttl).Err()
}

// Forget drops a cached token, e.g. after sign-out.
func (c *RedisCache) Forget(ctx context.Context, token string) error {
	return c.client.Del(ctx, cacheKeyPrefix+token).Err()
}
