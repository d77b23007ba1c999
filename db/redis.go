// api/db/redis.go
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/edgegate/api/logging"
)

// LookupResult is the outcome of a token cache lookup. Unavailable means the
// cache could not be consulted at all; callers must not treat it as Miss for
// anything other than falling back to upstream verification.
type LookupResult int

const (
	Hit LookupResult = iota
	Miss
	Unavailable
)

func (r LookupResult) String() string {
	switch r {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return "unavailable"
	}
}

const tokenKeyPrefix = "turnstile:"

// TokenCache remembers tokens that already passed upstream verification.
// The connection is dialed lazily on first use and shared by all requests;
// a failed dial is retried on the next request. Every failure downgrades to
// Unavailable (lookups) or a silent no-op (writes) so the cache can never
// take the gate down with it.
type TokenCache struct {
	url string
	ttl time.Duration

	mu     sync.Mutex
	client *redis.Client
}

func NewTokenCache(url string, ttl time.Duration) *TokenCache {
	return &TokenCache{url: url, ttl: ttl}
}

// conn returns the shared client, dialing and pinging it first if no healthy
// connection exists yet.
func (c *TokenCache) conn(ctx context.Context) (*redis.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	opts, err := redis.ParseURL(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	c.client = client
	return c.client, nil
}

// Lookup reports whether the token was previously marked valid and has not
// expired yet.
func (c *TokenCache) Lookup(ctx context.Context, token string) LookupResult {
	client, err := c.conn(ctx)
	if err != nil {
		logger.Warn("Token cache unavailable", zap.Error(err))
		return Unavailable
	}

	key := tokenKeyPrefix + token
	_, err = client.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Token not found in cache", zap.String("key", key))
		return Miss
	} else if err != nil {
		logger.Warn("Token cache lookup failed", zap.Error(err), zap.String("key", key))
		return Unavailable
	}

	logger.Debug("Token found in cache", zap.String("key", key))
	return Hit
}

// MarkValid records a successfully verified token for the cache TTL. Write
// failures are logged and swallowed; the current request was already verified
// upstream, the next one simply re-verifies.
func (c *TokenCache) MarkValid(ctx context.Context, token string) {
	client, err := c.conn(ctx)
	if err != nil {
		logger.Warn("Token cache unavailable, skipping cache write", zap.Error(err))
		return
	}

	key := tokenKeyPrefix + token
	if err := client.Set(ctx, key, "valid", c.ttl).Err(); err != nil {
		logger.Warn("Failed to cache verified token", zap.Error(err), zap.String("key", key))
		return
	}

	logger.Debug("Verified token cached", zap.String("key", key), zap.Duration("ttl", c.ttl))
}

// Close releases the underlying connection if one was ever established.
func (c *TokenCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
		c.client = nil
	}
}
