package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds all configuration for the Redis client
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// RedisClient wraps go-redis with the listing cache and change stream operations.
type RedisClient struct {
	client *redis.Client
	config *Config
}

// NewClient creates and connects a new RedisClient.
func NewClient(cfg *Config) (*RedisClient, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.Username != "" {
		opts.Username = cfg.Username
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisClient{
		client: rdb,
		config: cfg,
	}, nil
}

// Close gracefully closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying go-redis client if needed.
func (c *RedisClient) GetClient() *redis.Client {
	return c.client
}

// GetJSON decodes the value at key into dest. It reports false on a cache miss.
func (c *RedisClient) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to GET %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value at key as JSON with the given TTL.
func (c *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to SET %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys.
func (c *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to DEL %v: %w", keys, err)
	}
	return nil
}

// PublishEvent adds an event to a stream using XADD and returns the message ID.
func (c *RedisClient) PublishEvent(ctx context.Context, streamName string, data map[string]interface{}) (string, error) {
	// '*' lets Redis assign a timestamp-based ID
	args := &redis.XAddArgs{
		Stream: streamName,
		Values: data,
	}

	msgID, err := c.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to XADD to stream %s: %w", streamName, err)
	}
	return msgID, nil
}

// GetStreamLength returns the current stream length
func (c *RedisClient) GetStreamLength(ctx context.Context, streamName string) (int64, error) {
	return c.client.XLen(ctx, streamName).Result()
}

// HealthCheck verifies Redis connectivity
func (c *RedisClient) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
