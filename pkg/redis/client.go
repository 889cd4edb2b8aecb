package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps go-redis for the history archive. The engine itself is
// in-memory; redis is an optional tier for the archived poll list.
type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Archive key constants
const (
	KeyPollHistory = "polls:history"
)

// NewClient creates a new Redis client and verifies the connection.
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// LPush prepends values to a list
func (c *Client) LPush(ctx context.Context, key string, values ...interface{}) error {
	start := time.Now()
	err := c.rdb.LPush(ctx, key, values...).Err()
	c.log.Debug("redis_lpush",
		zap.String("key", key),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return err
}

// LRange returns list elements between start and stop inclusive
func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	t := time.Now()
	vals, err := c.rdb.LRange(ctx, key, start, stop).Result()
	c.log.Debug("redis_lrange",
		zap.String("key", key),
		zap.Int("count", len(vals)),
		zap.Duration("duration", time.Since(t)),
		zap.Error(err))
	return vals, err
}

// LTrim trims a list to the given inclusive bounds
func (c *Client) LTrim(ctx context.Context, key string, start, stop int64) error {
	t := time.Now()
	err := c.rdb.LTrim(ctx, key, start, stop).Err()
	c.log.Debug("redis_ltrim",
		zap.String("key", key),
		zap.Duration("duration", time.Since(t)),
		zap.Error(err))
	return err
}
