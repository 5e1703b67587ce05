// Package cache publishes menu session events to Redis so dashboards and
// other services can observe running menus without touching the engine.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quillmoor/discord-paginator/config"
)

const (
	keyPrefix = "discord-paginator:"

	// EventsKey is the list of recent session events.
	EventsKey = keyPrefix + "events"
	// EventStreamChannel is the pub/sub channel session events are
	// published on.
	EventStreamChannel = keyPrefix + "event-stream"

	maxEvents = 200
)

// Client wraps the go-redis client with the paginator's key layout.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis. A nil config or empty address disables the cache;
// callers get a nil Client and must treat it as absent.
func New(cfg *config.RedisConfig) (*Client, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to cache at %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Ping verifies the connection is still alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// addToList pushes a value onto the front of a list and trims the list to
// maxLength.
func (c *Client) addToList(ctx context.Context, key, value string, maxLength int64) error {
	pipe := c.rdb.Pipeline()
	pipe.LPush(ctx, key, value)
	pipe.LTrim(ctx, key, 0, maxLength-1)
	_, err := pipe.Exec(ctx)
	return err
}
