// Package cache provides the redis client and read-through caches placed
// in front of PostgreSQL point lookups.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// NewClient parses a redis URL and returns the client. Only a malformed
// URL is an error. An unreachable server is logged and the client is
// returned anyway: the cache is optional and reconnects on its own.
func NewClient(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxIdleConns = 5

	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout

	client := redis.NewClient(opts)

	if err := Ping(ctx, client); err != nil {
		logger.Warn("redis unreachable at startup, lookups go to postgres until it answers",
			slog.String("addr", opts.Addr),
			slog.String("error", err.Error()),
		)
		return client, nil
	}

	logger.Info("redis client connected",
		slog.String("addr", opts.Addr),
		slog.Int("pool_size", opts.PoolSize),
	)

	return client, nil
}

// Ping verifies that the redis server answers within pingTimeout.
func Ping(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
