package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitAuthPrefix is the Redis key prefix for auth endpoint rate limits.
const rateLimitAuthPrefix = "ratelimit:auth:"

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// fixedWindowScript atomically counts a request in the current window
// and reports how long until the window resets. The counter lives for
// exactly one window; losing it on restart is acceptable.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local max = tonumber(ARGV[1])        -- max requests per window
	local window = tonumber(ARGV[2])     -- window length in seconds

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		redis.call('EXPIRE', key, window)
		ttl = window
	end

	local allowed = 0
	local remaining = max - count
	if count <= max then
		allowed = 1
	else
		remaining = 0
	end

	return {allowed, remaining, ttl}
`)

// CheckAuthRateLimit counts one request against the fixed window for
// the given client and reports whether it is allowed. The client key
// is hashed so raw IP addresses are never stored in Redis.
func (c *Cache) CheckAuthRateLimit(ctx context.Context, clientKey string, maxPerWindow int, window time.Duration) (*RateLimitResult, error) {
	key := rateLimitAuthPrefix + hashClientKey(clientKey)

	result, err := fixedWindowScript.Run(ctx, c.client,
		[]string{key},
		maxPerWindow, int(window.Seconds()),
	).Int64Slice()

	if err != nil {
		// Fail open on Redis errors - allow the request
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(maxPerWindow),
		}, err
	}

	allowed := result[0] == 1
	remaining := result[1]
	ttlSec := result[2]

	res := &RateLimitResult{
		Allowed:   allowed,
		Remaining: remaining,
	}
	if !allowed {
		res.RetryAfter = time.Duration(ttlSec) * time.Second
	}
	return res, nil
}

// hashClientKey creates a truncated SHA256 hash of a client key.
// This provides privacy while maintaining uniqueness.
func hashClientKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
