package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReplayCache(t *testing.T) (*IdempotencyCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return NewIdempotencyCache(client), mr
}

func TestIdempotencyCache_MissThenHit(t *testing.T) {
	cache, mr := newReplayCache(t)
	ctx := context.Background()
	outcome := []byte(`{"type":"TRANSFER","amount":100,"fee":1}`)

	got, err := cache.Get(ctx, "7:TRANSFER:req-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Set(ctx, "7:TRANSFER:req-1", outcome, time.Hour))

	got, err = cache.Get(ctx, "7:TRANSFER:req-1")
	require.NoError(t, err)
	assert.Equal(t, outcome, got)
	assert.True(t, mr.Exists("ledger:replay:7:TRANSFER:req-1"))
}

func TestIdempotencyCache_FirstOutcomeWins(t *testing.T) {
	cache, _ := newReplayCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "7:WITHDRAW:req-2", []byte("first"), time.Hour))
	require.NoError(t, cache.Set(ctx, "7:WITHDRAW:req-2", []byte("second"), time.Hour))

	got, err := cache.Get(ctx, "7:WITHDRAW:req-2")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

func TestIdempotencyCache_Expires(t *testing.T) {
	cache, mr := newReplayCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(time.Minute + time.Second)

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdempotencyCache_Unavailable(t *testing.T) {
	cache, mr := newReplayCache(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "read replay k")
	assert.ErrorContains(t, cache.Set(context.Background(), "k", []byte("v"), time.Minute), "store replay k")
}
