package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/business-units/internal/core/ports"
)

const (
	keyPrefix      = "business_units:"
	defaultLimit   = 10
	defaultWindow  = 15 * time.Minute
	limiterTimeout = 250 * time.Millisecond
)

var _ ports.LoginLimiter = (*LoginLimiter)(nil)

// counter is the slice of the go-redis API the limiter needs.
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// LoginLimiter counts attempts per key in fixed windows.
// Key format: business_units:<key>, e.g. business_units:login:a@x.com
type LoginLimiter struct {
	client  counter
	limit   int64
	window  time.Duration
	timeout time.Duration
}

// NewLoginLimiter allows limit attempts per window for each key. Non-positive
// values fall back to 10 attempts per 15 minutes.
func NewLoginLimiter(client *redis.Client, limit int, window time.Duration) *LoginLimiter {
	return newLoginLimiter(client, limit, window)
}

func newLoginLimiter(client counter, limit int, window time.Duration) *LoginLimiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginLimiter{
		client:  client,
		limit:   int64(limit),
		window:  window,
		timeout: limiterTimeout,
	}
}

// Allow records one attempt for key and reports whether it is within the
// limit. The window starts at the first attempt. A counter found without a
// TTL (an earlier EXPIRE failed) gets its window re-armed, so a key can never
// outlive its window indefinitely.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	redisKey := keyPrefix + key
	n, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("login limiter incr: %w", err)
	}

	needsExpiry := n == 1
	if !needsExpiry {
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err != nil {
			return false, fmt.Errorf("login limiter ttl: %w", err)
		}
		// -1 means the key exists without an expiry.
		needsExpiry = ttl < 0
	}
	if needsExpiry {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("login limiter expire: %w", err)
		}
	}
	return n <= l.limit, nil
}
