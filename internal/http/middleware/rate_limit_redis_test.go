package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniredisLimiter(t *testing.T) *RedisFixedWindowLimiter {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFixedWindowLimiter(client, "test-rl")
}

func TestRedisFixedWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("counts within the window", func(t *testing.T) {
		l := newMiniredisLimiter(t)
		for i := 0; i < 5; i++ {
			allowed, _, err := l.Allow(ctx, "1.2.3.4", 5, time.Minute)
			if err != nil {
				t.Fatalf("allow %d: %v", i, err)
			}
			if !allowed {
				t.Fatalf("request %d denied below limit", i)
			}
		}
		allowed, retryAfter, err := l.Allow(ctx, "1.2.3.4", 5, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if allowed {
			t.Fatal("sixth request allowed")
		}
		if retryAfter <= 0 {
			t.Fatalf("unexpected retry-after %v", retryAfter)
		}
	})

	t.Run("separate keys do not interfere", func(t *testing.T) {
		l := newMiniredisLimiter(t)
		if allowed, _, _ := l.Allow(ctx, "a", 1, time.Minute); !allowed {
			t.Fatal("key a denied")
		}
		if allowed, _, _ := l.Allow(ctx, "b", 1, time.Minute); !allowed {
			t.Fatal("key b denied")
		}
	})

	t.Run("nil client errors", func(t *testing.T) {
		l := NewRedisFixedWindowLimiter(nil, "")
		if _, _, err := l.Allow(ctx, "x", 1, time.Minute); err == nil {
			t.Fatal("expected error for nil client")
		}
	})
}
