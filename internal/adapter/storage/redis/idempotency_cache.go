package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const replayKeyPrefix = "ledger:replay:"

// IdempotencyCache keeps the serialized outcome of committed withdrawals and
// transfers so that retried requests can be answered without touching the
// database. The first recorded outcome for a key is never overwritten.
type IdempotencyCache struct {
	client *goredis.Client
}

func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{client: client}
}

func replayKey(key string) string { return replayKeyPrefix + key }

// Get returns nil, nil on a miss.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	outcome, err := c.client.Get(ctx, replayKey(key)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read replay %s: %w", key, err)
	}
	return outcome, nil
}

func (c *IdempotencyCache) Set(ctx context.Context, key string, outcome []byte, ttl time.Duration) error {
	err := c.client.SetArgs(ctx, replayKey(key), outcome, goredis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("store replay %s: %w", key, err)
	}
	return nil
}
