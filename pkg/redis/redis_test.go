package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyaseru/brain/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

// liveClient connects to REDIS_TEST_ADDR, skipping when it is unset
func liveClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { rdb.Close() })
	return &Client{rdb: rdb, enabled: true}
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), YahooRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, YahooRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), YahooRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	assert.ErrorIs(t, cache.Get(ctx, "key", &result), ErrMiss)
	assert.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))

	n, err := cache.DeleteMatching(ctx, "*")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_Live(t *testing.T) {
	client := liveClient(t)
	cache := NewCache(client, "fuyaseru-test")
	ctx := context.Background()

	type payload struct {
		Codes []string `json:"codes"`
	}

	require.NoError(t, cache.Set(ctx, "bundle:7203", payload{Codes: []string{"7203"}}, time.Minute))
	require.NoError(t, cache.Set(ctx, "bundle:9984", payload{Codes: []string{"9984"}}, time.Minute))

	var got payload
	require.NoError(t, cache.Get(ctx, "bundle:7203", &got))
	assert.Equal(t, []string{"7203"}, got.Codes)

	n, err := cache.DeleteMatching(ctx, "bundle:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, cache.Get(ctx, "bundle:9984", &got), ErrMiss)
}

func TestRateLimiter_Live(t *testing.T) {
	client := liveClient(t)
	limiter := NewRateLimiter(client, "fuyaseru-test")
	cfg := RateLimitConfig{Key: "live-" + time.Now().Format("150405.000"), Limit: 2, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
}
