package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuyaseru/brain/internal/brain"
	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/logger"
)

// BundleRunner runs a batch through the cache. *brain.BundleOrchestrator satisfies it.
type BundleRunner interface {
	Run(ctx context.Context, codes []string, progress brain.ProgressFunc) (*contracts.Bundle, bool, error)
	Invalidate(ctx context.Context, codes []string) error
}

// WatchlistWarmupJob refreshes the cached bundle of the configured watchlist
// so the first morning request is served from cache
// ⭐ SSOT: ウォッチリストの事前計算はこのジョブでのみ
type WatchlistWarmupJob struct {
	runner   BundleRunner
	codes    []string
	schedule string
	logger   *logger.Logger
}

// NewWatchlistWarmupJob creates a new warm-up job
func NewWatchlistWarmupJob(runner BundleRunner, codes []string, schedule string, log *logger.Logger) *WatchlistWarmupJob {
	return &WatchlistWarmupJob{
		runner:   runner,
		codes:    codes,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *WatchlistWarmupJob) Name() string {
	return "watchlist_warmup"
}

// Schedule returns the configured cron schedule
func (j *WatchlistWarmupJob) Schedule() string {
	return j.schedule
}

// Run drops the stale bundle and recomputes it
func (j *WatchlistWarmupJob) Run(ctx context.Context) error {
	if len(j.codes) == 0 {
		return nil
	}

	if err := j.runner.Invalidate(ctx, j.codes); err != nil {
		j.logger.WithError(err).Warn("Failed to invalidate watchlist bundle")
	}

	bundle, _, err := j.runner.Run(ctx, j.codes, nil)
	if err != nil {
		if errors.Is(err, brain.ErrNoCodes) {
			return nil
		}
		return fmt.Errorf("watchlist warm-up: %w", err)
	}

	failed := 0
	for _, r := range bundle.Results {
		if r.Status.Terminal() {
			failed++
		}
	}
	if failed == len(bundle.Results) {
		return fmt.Errorf("watchlist warm-up: all %d tickers failed", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"count":  len(bundle.Results),
		"failed": failed,
	}).Info("Watchlist warm-up completed")
	return nil
}
