// Package cache keeps finished search pages in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/project-explorer/internal/models"
)

// KeyPrefix namespaces every key written by the cache
const KeyPrefix = "explorer:search:"

// RedisCache implements search.Cache on top of a Redis client
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Config holds the Redis connection settings
type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("connected to redis", "address", cfg.Address, "db", cfg.DB, "ttl", cfg.TTL)
	return NewRedisCacheFromClient(client, cfg.TTL), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Key derives the cache key of a request. Callers pass normalized requests,
// so equivalent searches share a key.
func Key(req models.FilterRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached page for req, if any
func (c *RedisCache) Get(ctx context.Context, req models.FilterRequest) (models.ResultPage, bool, error) {
	data, err := c.client.Get(ctx, Key(req)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ResultPage{}, false, nil
	}
	if err != nil {
		return models.ResultPage{}, false, fmt.Errorf("failed to read cached page: %w", err)
	}

	var page models.ResultPage
	if err := json.Unmarshal(data, &page); err != nil {
		return models.ResultPage{}, false, fmt.Errorf("failed to decode cached page: %w", err)
	}
	if page.Rows == nil {
		page.Rows = []models.ProjectRow{}
	}
	return page, true, nil
}

// Set stores page for req with the configured TTL
func (c *RedisCache) Set(ctx context.Context, req models.FilterRequest, page models.ResultPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}
	if err := c.client.Set(ctx, Key(req), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cached page: %w", err)
	}
	return nil
}

// Flush removes every key under KeyPrefix and returns how many were deleted.
// Run it after the catalog is re-imported.
func (c *RedisCache) Flush(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, KeyPrefix+"*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	slog.Info("search cache flushed", "keys_deleted", deleted)
	return deleted, nil
}

// HealthCheck verifies Redis connectivity
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
