// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go provides the Valkey-backed cache for public JSON responses.
// Successful GET responses are stored under their path and query so that
// repeated listing and detail requests skip the database. Every admin
// mutation clears the whole prefix.
package cache

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"brokerscope/internal/metrics"
)

const (
	// keyPrefix is the Valkey key prefix for cached responses.
	keyPrefix = "api:"

	// DefaultTTL is how long a response stays cached.
	DefaultTTL = 5 * time.Minute
)

// ResponseCache stores response bodies in Valkey. A nil *ResponseCache is
// valid and caches nothing, so callers never need to check whether Valkey
// is configured. Errors are logged and treated as misses.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a cache backed by the given Valkey client.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Key returns the cache key for a request URL: the path plus the query
// with parameters in sorted order.
func Key(u *url.URL) string {
	if q := u.Query().Encode(); q != "" {
		return u.Path + "?" + q
	}
	return u.Path
}

// RequestKey is Key for an incoming request.
func RequestKey(r *http.Request) string {
	return Key(r.URL)
}

// Get retrieves a cached body. The second result is false on a miss.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		metrics.ObserveCache("miss")
		return nil, false
	}
	if err != nil {
		metrics.ObserveCache("error")
		log.Warn().Err(err).Str("key", key).Msg("response cache get error")
		return nil, false
	}
	metrics.ObserveCache("hit")
	log.Debug().Str("key", key).Msg("response cache hit")
	return val, true
}

// Set stores a body under key with the configured TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, body, c.ttl).Err(); err != nil {
		metrics.ObserveCache("error")
		log.Warn().Err(err).Str("key", key).Msg("response cache set error")
		return
	}
	metrics.ObserveCache("set")
}

// InvalidateAll removes every cached response by scanning for the prefix.
// It returns the number of keys deleted.
func (c *ResponseCache) InvalidateAll(ctx context.Context) int {
	if c == nil {
		return 0
	}
	var cursor uint64
	var deleted int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			metrics.ObserveCache("error")
			log.Warn().Err(err).Msg("response cache scan error")
			return deleted
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Warn().Err(err).Msg("response cache bulk delete error")
			} else {
				deleted += len(keys)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	metrics.ObserveCache("invalidate")
	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("response cache cleared")
	}
	return deleted
}

// Ping reports whether Valkey is reachable. A nil cache reports
// "disabled" through the boolean.
func (c *ResponseCache) Ping(ctx context.Context) (enabled bool, err error) {
	if c == nil {
		return false, nil
	}
	return true, c.client.Ping(ctx).Err()
}
