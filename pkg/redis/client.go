// Package redis wraps the go-redis client for the advisory caches this
// service keeps: per-user Gmail access tokens (TTL tied to token expiry)
// and short-lived outreach stats. Nothing here is authoritative; a cold
// cache always falls back to Postgres or the token endpoint.
package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client is a go-redis client verified reachable at construction.
type Client struct {
	*redis.Client
	logger *zap.Logger
}

// NewClient connects and pings; a dead Redis fails startup rather than
// surfacing later as cache misses.
func NewClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("Redis client connected", zap.String("addr", addr))
	return &Client{Client: rdb, logger: logger}, nil
}

// Key joins segments into a colon-delimited cache key, e.g.
// Key("gmail", "access", userID) -> "gmail:access:<userID>".
func Key(segments ...string) string {
	return strings.Join(segments, ":")
}
