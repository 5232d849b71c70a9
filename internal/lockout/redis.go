package lockout

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lockout:"

// RedisLedger shares lockout state across instances through Redis. Failure
// counts live under lockout:<origin> with the window as TTL; an active
// lockout is a separate lockout:<origin>:lock key whose TTL is the time
// remaining.
type RedisLedger struct {
	client *redis.Client
	cfg    Config
}

// NewRedis connects to Redis and returns a shared ledger.
func NewRedis(addr, password string, cfg Config) (*RedisLedger, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisLedger{client: client, cfg: cfg.withDefaults()}, nil
}

func (l *RedisLedger) failKey(origin string) string { return keyPrefix + origin }
func (l *RedisLedger) lockKey(origin string) string { return keyPrefix + origin + ":lock" }

func (l *RedisLedger) Check(ctx context.Context, origin string) (Status, error) {
	ttl, err := l.client.PTTL(ctx, l.lockKey(origin)).Result()
	if err != nil {
		return Status{}, fmt.Errorf("lockout check: %w", err)
	}
	if ttl > 0 {
		return Status{Locked: true, Remaining: ttl}, nil
	}

	failures, err := l.client.Get(ctx, l.failKey(origin)).Int()
	if err != nil && err != redis.Nil {
		return Status{}, fmt.Errorf("lockout check: %w", err)
	}
	return Status{Failures: failures}, nil
}

func (l *RedisLedger) RecordFailure(ctx context.Context, origin string) error {
	// An active lockout is never extended by further attempts.
	locked, err := l.client.Exists(ctx, l.lockKey(origin)).Result()
	if err != nil {
		return fmt.Errorf("lockout record: %w", err)
	}
	if locked > 0 {
		return nil
	}

	count, err := l.client.Incr(ctx, l.failKey(origin)).Result()
	if err != nil {
		return fmt.Errorf("lockout record: %w", err)
	}
	if count == 1 {
		l.client.Expire(ctx, l.failKey(origin), l.cfg.Window)
	}
	if int(count) >= l.cfg.Threshold {
		if err := l.client.Set(ctx, l.lockKey(origin), "1", l.cfg.Duration).Err(); err != nil {
			return fmt.Errorf("lockout record: %w", err)
		}
		l.client.Del(ctx, l.failKey(origin))
	}
	return nil
}

func (l *RedisLedger) ResetSuccess(ctx context.Context, origin string) error {
	if err := l.client.Del(ctx, l.failKey(origin), l.lockKey(origin)).Err(); err != nil {
		return fmt.Errorf("lockout reset: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

var (
	_ Ledger = (*RedisLedger)(nil)
	_ Ledger = (*MemoryLedger)(nil)
)
