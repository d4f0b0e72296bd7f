package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/adpulse/adpulse/pkg/config"
)

// Client wraps the Redis client. Redis is optional infrastructure: when
// disabled in config the wrapper stays nil-safe and callers fall back to
// direct store reads.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New creates a new Redis client. With Redis disabled in config it returns
// a client whose operations are all no-ops.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Disabled returns a client that performs no caching. For tests.
func Disabled() *Client {
	return &Client{enabled: false}
}

// Enabled reports whether Redis is configured and reachable.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the underlying go-redis client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close closes the connection.
func (c *Client) Close() error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Close()
}
