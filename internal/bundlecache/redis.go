package bundlecache

import (
	"context"
	"errors"
	"time"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/logger"
	"github.com/fuyaseru/brain/pkg/redis"
)

// Redis keeps bundles as JSON in Redis; expiry is the server's TTL
type Redis struct {
	cache  *redis.Cache
	logger *logger.Logger
}

// NewRedis wraps a pkg/redis cache
func NewRedis(cache *redis.Cache, log *logger.Logger) *Redis {
	return &Redis{cache: cache, logger: log}
}

func (c *Redis) Get(ctx context.Context, key string) (*contracts.Bundle, error) {
	var b contracts.Bundle
	if err := c.cache.Get(ctx, key, &b); err != nil {
		if errors.Is(err, redis.ErrMiss) {
			return nil, contracts.ErrCacheMiss
		}
		return nil, err
	}
	return &b, nil
}

func (c *Redis) Set(ctx context.Context, key string, bundle *contracts.Bundle, ttl time.Duration) error {
	return c.cache.Set(ctx, key, bundle, ttl)
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// Clear removes every bundle key, shared with other processes
func (c *Redis) Clear(ctx context.Context) (int, error) {
	n, err := c.cache.DeleteMatching(ctx, contracts.BundleKey(nil)+"*")
	if err != nil {
		return n, err
	}
	c.logger.WithField("removed", n).Info("Cleared redis bundle cache")
	return n, nil
}
