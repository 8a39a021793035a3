package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, cfg), mr
}

func TestLimiterBlocksAfterBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 3, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.RecordFailure(ctx, "a@x.com", ""); err != nil {
			t.Fatalf("RecordFailure %d: %v", i, err)
		}
		if err := l.Check(ctx, "a@x.com", ""); err != nil {
			t.Fatalf("Check after %d failures: %v", i+1, err)
		}
	}

	if err := l.RecordFailure(ctx, "a@x.com", ""); !errors.Is(err, ErrLimited) {
		t.Fatalf("third failure: got %v, want ErrLimited", err)
	}
	if err := l.Check(ctx, "a@x.com", ""); !errors.Is(err, ErrLimited) {
		t.Fatalf("Check at budget: got %v, want ErrLimited", err)
	}

	// Another identifier is unaffected.
	if err := l.Check(ctx, "b@x.com", ""); err != nil {
		t.Fatalf("unrelated identifier throttled: %v", err)
	}
}

func TestLimiterResetClearsBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 2, Cooldown: time.Minute})
	ctx := context.Background()

	_ = l.RecordFailure(ctx, "a@x.com", "10.0.0.1")
	if err := l.Reset(ctx, "a@x.com", "10.0.0.1"); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if err := l.Check(ctx, "a@x.com", "10.0.0.1"); err != nil {
		t.Fatalf("Check after reset: %v", err)
	}
}

func TestLimiterCooldownExpiry(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1, Cooldown: time.Minute})
	ctx := context.Background()

	if err := l.RecordFailure(ctx, "a@x.com", ""); !errors.Is(err, ErrLimited) {
		t.Fatalf("got %v, want ErrLimited", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.Check(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("Check after cooldown: %v", err)
	}
}

func TestLimiterIPThrottle(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 2, Cooldown: time.Minute, ThrottleIP: true})
	ctx := context.Background()

	// Same IP hammering different identifiers still trips the IP counter.
	_ = l.RecordFailure(ctx, "a@x.com", "10.0.0.9")
	err := l.RecordFailure(ctx, "b@x.com", "10.0.0.9")
	if !errors.Is(err, ErrLimited) {
		t.Fatalf("got %v, want ErrLimited on shared IP", err)
	}
}

func TestNilLimiterIsDisabled(t *testing.T) {
	var l *Limiter
	ctx := context.Background()

	if err := l.Check(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("nil limiter Check: %v", err)
	}
	if err := l.RecordFailure(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("nil limiter RecordFailure: %v", err)
	}
	if err := l.Reset(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("nil limiter Reset: %v", err)
	}

	if New(nil, Config{}) != nil {
		t.Fatal("New(nil, ...) must return a nil limiter")
	}
}
