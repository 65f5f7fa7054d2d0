package bundlecache

import (
	"context"
	"fmt"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/config"
	"github.com/fuyaseru/brain/pkg/database"
	"github.com/fuyaseru/brain/pkg/logger"
	"github.com/fuyaseru/brain/pkg/redis"
)

// Sweeper is implemented by backends that do not expire entries on their own
type Sweeper interface {
	CleanExpired(ctx context.Context) (int, error)
}

// Open builds the backend selected by cfg.Cache.Backend.
// rdb and db may be nil unless their backend is selected.
// ⭐ SSOT: cache backend selection
func Open(ctx context.Context, cfg *config.Config, rdb *redis.Client, db *database.DB, log *logger.Logger) (contracts.BundleCache, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory, "":
		return NewMemory(log), nil
	case config.CacheBackendRedis:
		if rdb == nil || !rdb.Enabled() {
			return nil, fmt.Errorf("redis cache backend requires an enabled redis client")
		}
		return NewRedis(redis.NewCache(rdb, cfg.Cache.Prefix), log), nil
	case config.CacheBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres cache backend requires a database")
		}
		return NewPostgres(ctx, db.Pool, log)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
