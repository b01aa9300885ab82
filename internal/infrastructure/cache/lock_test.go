package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return NewRedisLocker(c, 30*time.Second), s
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	l, s := newLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "state")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !s.Exists("lock:state") {
		t.Fatal("lock key not set")
	}
	if ttl := s.TTL("lock:state"); ttl != 30*time.Second {
		t.Fatalf("ttl = %v, want 30s", ttl)
	}
	unlock()
	unlock() // second call is a no-op
	if s.Exists("lock:state") {
		t.Fatal("lock key still present after unlock")
	}
}

func TestRedisLocker_WaitsForHolder(t *testing.T) {
	l, _ := newLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "state")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	got := make(chan error, 1)
	go func() {
		u, err := l.Lock(ctx, "state")
		if err == nil {
			u()
		}
		got <- err
	}()

	select {
	case err := <-got:
		t.Fatalf("second Lock returned while held: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	unlock()

	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("second Lock: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second Lock never acquired")
	}
}

func TestRedisLocker_ContextCancel(t *testing.T) {
	l, _ := newLocker(t)

	unlock, err := l.Lock(context.Background(), "state")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "state"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

func TestRedisLocker_UnlockKeepsForeignToken(t *testing.T) {
	l, s := newLocker(t)

	unlock, err := l.Lock(context.Background(), "state")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	// lock expired and someone else took it
	_ = s.Set("lock:state", "other")
	unlock()
	if v, _ := s.Get("lock:state"); v != "other" {
		t.Fatalf("foreign lock released: %q", v)
	}
}
