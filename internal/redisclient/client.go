package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromRedis(rdb), nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetToken returns a cached API token for a provider
func (c *Client) GetToken(ctx context.Context, provider string) (string, bool, error) {
	return c.get(ctx, fmt.Sprintf("token:%s", provider))
}

// SetToken caches an API token until it expires
func (c *Client) SetToken(ctx context.Context, provider, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("token:%s", provider), token, ttl).Err()
}

// GetStatus returns the cached tracking status for a waybill
func (c *Client) GetStatus(ctx context.Context, awb string) (string, bool, error) {
	return c.get(ctx, fmt.Sprintf("tracking:%s", awb))
}

// SetStatus caches a tracking status for a waybill
func (c *Client) SetStatus(ctx context.Context, awb, status string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("tracking:%s", awb), status, ttl).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}

func (c *Client) get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
