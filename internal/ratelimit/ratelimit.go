// Package ratelimit throttles failed logins with Redis counters keyed
// by identifier and, optionally, by client IP. A nil *Limiter is valid
// and disables throttling, so deployments without Redis still work.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLimited means the attempt budget is exhausted for the cooldown window.
	ErrLimited = errors.New("login rate limited")
	// ErrUnavailable wraps Redis transport failures.
	ErrUnavailable = errors.New("rate limit backend unavailable")
)

// Config tunes the throttle.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
	ThrottleIP  bool
}

// Limiter counts failed login attempts in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter. Returns nil when client is nil, which
// callers treat as "throttling disabled".
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if client == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Minute
	}
	return &Limiter{redis: client, config: cfg}
}

// Check reports whether the identifier (and IP, when enabled) is
// within the attempt budget.
func (l *Limiter) Check(ctx context.Context, identifier, ip string) error {
	if l == nil {
		return nil
	}

	if err := l.checkKey(ctx, identifierKey(identifier)); err != nil {
		return err
	}
	if l.config.ThrottleIP && ip != "" {
		return l.checkKey(ctx, ipKey(ip))
	}
	return nil
}

// RecordFailure counts one failed attempt against the identifier and
// IP, starting the cooldown window on the first failure.
func (l *Limiter) RecordFailure(ctx context.Context, identifier, ip string) error {
	if l == nil {
		return nil
	}

	if err := l.incrKey(ctx, identifierKey(identifier)); err != nil {
		return err
	}
	if l.config.ThrottleIP && ip != "" {
		return l.incrKey(ctx, ipKey(ip))
	}
	return nil
}

// Reset clears the counters after a successful login.
func (l *Limiter) Reset(ctx context.Context, identifier, ip string) error {
	if l == nil {
		return nil
	}

	keys := []string{identifierKey(identifier)}
	if l.config.ThrottleIP && ip != "" {
		keys = append(keys, ipKey(ip))
	}
	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (l *Limiter) checkKey(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrLimited
	}
	return nil
}

func (l *Limiter) incrKey(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrLimited
	}
	return nil
}

func identifierKey(identifier string) string {
	return "barhub:login:id:" + identifier
}

func ipKey(ip string) string {
	return "barhub:login:ip:" + ip
}
