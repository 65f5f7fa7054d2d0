package jobs

import (
	"context"
	"fmt"

	"github.com/fuyaseru/brain/pkg/logger"
)

// Sweeper drops expired entries and reports how many
type Sweeper interface {
	CleanExpired(ctx context.Context) (int, error)
}

// SessionSweeper drops expired login sessions
type SessionSweeper interface {
	CleanExpired() int
}

// CacheCleanupJob purges expired bundles (and sessions, when serving the API)
type CacheCleanupJob struct {
	cache    Sweeper
	sessions SessionSweeper
	logger   *logger.Logger
}

// NewCacheCleanupJob creates a new cleanup job; either sweeper may be nil
func NewCacheCleanupJob(cache Sweeper, sessions SessionSweeper, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:    cache,
		sessions: sessions,
		logger:   log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "bundle_cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	removed := 0
	if j.cache != nil {
		n, err := j.cache.CleanExpired(ctx)
		if err != nil {
			return fmt.Errorf("clean expired bundles: %w", err)
		}
		removed = n
	}

	sessions := 0
	if j.sessions != nil {
		sessions = j.sessions.CleanExpired()
	}

	if removed > 0 || sessions > 0 {
		j.logger.WithFields(map[string]interface{}{
			"bundles":  removed,
			"sessions": sessions,
		}).Info("Cache cleanup completed")
	}
	return nil
}
