package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"farmacia/internal/models"

	"github.com/redis/go-redis/v9"
)

const selectKey = "farmacia:medicamentos:select"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSelectCache stores the medicamento select projection in Redis.
type RedisSelectCache struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisSelectCache connects using a redis:// URL.
func NewRedisSelectCache(ctx context.Context, url string, ttl time.Duration) (*RedisSelectCache, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return newRedisSelectCache(client, ttl), client, nil
}

func newRedisSelectCache(client redisClient, ttl time.Duration) *RedisSelectCache {
	return &RedisSelectCache{client: client, ttl: ttl}
}

// Get returns ok=false on a cache miss.
func (c *RedisSelectCache) Get(ctx context.Context) ([]models.MedicamentoSelectOption, bool, error) {
	raw, err := c.client.Get(ctx, selectKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read select cache: %w", err)
	}

	var options []models.MedicamentoSelectOption
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, false, fmt.Errorf("failed to decode select cache: %w", err)
	}
	return options, true, nil
}

func (c *RedisSelectCache) Set(ctx context.Context, options []models.MedicamentoSelectOption) error {
	raw, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode select cache: %w", err)
	}
	if err := c.client.Set(ctx, selectKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write select cache: %w", err)
	}
	return nil
}

func (c *RedisSelectCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, selectKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate select cache: %w", err)
	}
	return nil
}
