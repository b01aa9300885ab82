package cache

import (
	"context"
	"fmt"
	"time"

	"loanshare/internal/config"

	"github.com/redis/go-redis/v9"
)

// Options maps the service config onto the client. Lock waits and stream
// writes are short, so timeouts stay tight.
func Options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr,
		DB:           cfg.RedisDB,
		Password:     cfg.RedisPass,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	}
}

// OpenRedis connects and pings once within ctx. The client backs the state
// lock, the event stream and idempotency replay.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	r := redis.NewClient(Options(cfg))
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.RedisAddr, err)
	}
	return r, nil
}
