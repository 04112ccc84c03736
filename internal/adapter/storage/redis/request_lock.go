package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RequestLock implements ports.RequestLock with SET NX. It stops two
// requests carrying the same idempotency key from running side by side.
type RequestLock struct {
	client *goredis.Client
	prefix string
}

// NewRequestLock creates a new Redis-backed request lock.
func NewRequestLock(client *goredis.Client) *RequestLock {
	return &RequestLock{
		client: client,
		prefix: "ledger:inflight:",
	}
}

// Acquire returns true if the caller now owns key, false if another request does.
func (l *RequestLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := l.client.SetArgs(ctx, l.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis request lock: %w", err)
	}
	return result == "OK", nil
}

// Release frees key.
func (l *RequestLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis request unlock: %w", err)
	}
	return nil
}
