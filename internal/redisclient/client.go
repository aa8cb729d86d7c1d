package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
	prefix  string
}

type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key this client writes.
	Prefix string
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "gatekeeper:"
	}

	return &Client{redisdb: redisdb, prefix: prefix}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// this closes the client

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// IncrWindow bumps a fixed-window counter. The window starts with the first
// hit and the key expires when it ends, so every process sharing this redis
// sees the same count.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	k := c.prefix + "rl:" + key

	count, err := c.redisdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", k, err)
	}

	if count == 1 {
		if err := c.redisdb.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", k, err)
		}
		return 1, window, nil
	}

	ttl, err := c.redisdb.PTTL(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("pttl %s: %w", k, err)
	}

	// a crash between INCR and PEXPIRE leaves a key without ttl; repair it
	if ttl < 0 {
		_ = c.redisdb.PExpire(ctx, k, window).Err()
		ttl = window
	}

	return int(count), ttl, nil
}
