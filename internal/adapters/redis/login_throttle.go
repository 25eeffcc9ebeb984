package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle is a fixed-window failure counter keyed by login identifier.
type LoginThrottle struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int64
	window      time.Duration
}

// LoginThrottleOptions configures LoginThrottle.
type LoginThrottleOptions struct {
	Client      redis.UniversalClient
	Prefix      string        // default "login_attempts:"
	MaxAttempts int           // default 5
	Window      time.Duration // default 15m
}

// NewLoginThrottle constructs a LoginThrottle.
func NewLoginThrottle(opts LoginThrottleOptions) *LoginThrottle {
	t := &LoginThrottle{
		client:      opts.Client,
		prefix:      opts.Prefix,
		maxAttempts: int64(opts.MaxAttempts),
		window:      opts.Window,
	}
	if t.prefix == "" {
		t.prefix = "login_attempts:"
	}
	if t.maxAttempts <= 0 {
		t.maxAttempts = 5
	}
	if t.window <= 0 {
		t.window = 15 * time.Minute
	}
	return t
}

// Allow reports whether key has fewer recorded failures than the limit.
func (t *LoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Get(ctx, t.prefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}
	return n < t.maxAttempts, nil
}

// Fail increments the failure counter, starting the window on the first failure.
func (t *LoginThrottle) Fail(ctx context.Context, key string) error {
	k := t.prefix + key
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

// Reset clears the counter for key.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.prefix+key).Err()
}
