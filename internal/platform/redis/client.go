// Package redis connects the optional Redis backend used by the session
// cache. Redis is opt-in: installs on personal devices run without it and
// fall back to the file cache.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"carteirinha/internal/platform/config"
)

// Client wraps the go-redis client so callers can health-check it without
// knowing the underlying library.
type Client struct {
	*redis.Client
}

// New dials Redis from the configuration. A nil Client with a nil error means
// Redis is not configured; callers treat that as "file cache only" and the
// health endpoint skips the check.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	// Fail at startup, not on the first session read.
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
