package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyaseru/brain/internal/brain"
	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/logger"
)

type fakeSweeper struct {
	removed int
	err     error
}

func (f *fakeSweeper) CleanExpired(ctx context.Context) (int, error) { return f.removed, f.err }

type fakeSessions struct{ removed int }

func (f *fakeSessions) CleanExpired() int { return f.removed }

func TestCacheCleanupJob(t *testing.T) {
	job := NewCacheCleanupJob(&fakeSweeper{removed: 3}, &fakeSessions{removed: 1}, logger.NewNop())

	assert.Equal(t, "bundle_cache_cleanup", job.Name())
	assert.Equal(t, "0 */5 * * * *", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))

	failing := NewCacheCleanupJob(&fakeSweeper{err: errors.New("db down")}, nil, logger.NewNop())
	assert.ErrorContains(t, failing.Run(context.Background()), "db down")

	assert.NoError(t, NewCacheCleanupJob(nil, nil, logger.NewNop()).Run(context.Background()))
}

type fakeRunner struct {
	statuses    map[string]contracts.Status
	err         error
	invalidated [][]string
	ran         [][]string
}

func (f *fakeRunner) Run(ctx context.Context, codes []string, progress brain.ProgressFunc) (*contracts.Bundle, bool, error) {
	f.ran = append(f.ran, codes)
	if f.err != nil {
		return nil, false, f.err
	}
	b := &contracts.Bundle{Codes: codes, Results: map[string]contracts.TickerResult{}}
	for _, code := range codes {
		b.Results[code] = contracts.TickerResult{Code: code, Status: f.statuses[code]}
	}
	return b, false, nil
}

func (f *fakeRunner) Invalidate(ctx context.Context, codes []string) error {
	f.invalidated = append(f.invalidated, codes)
	return nil
}

func TestWatchlistWarmupJob(t *testing.T) {
	runner := &fakeRunner{statuses: map[string]contracts.Status{
		"7203": contracts.StatusOK,
		"0000": contracts.StatusNotFound,
	}}
	job := NewWatchlistWarmupJob(runner, []string{"7203", "0000"}, "0 0 8 * * 1-5", logger.NewNop())

	assert.Equal(t, "watchlist_warmup", job.Name())
	assert.Equal(t, "0 0 8 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, [][]string{{"7203", "0000"}}, runner.invalidated)
	assert.Equal(t, [][]string{{"7203", "0000"}}, runner.ran)
}

func TestWatchlistWarmupAllFailed(t *testing.T) {
	runner := &fakeRunner{statuses: map[string]contracts.Status{"0000": contracts.StatusNotFound}}
	job := NewWatchlistWarmupJob(runner, []string{"0000"}, "@daily", logger.NewNop())

	assert.ErrorContains(t, job.Run(context.Background()), "all 1 tickers failed")
}

func TestWatchlistWarmupEmpty(t *testing.T) {
	runner := &fakeRunner{}
	job := NewWatchlistWarmupJob(runner, nil, "@daily", logger.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, runner.ran)

	runner.err = brain.ErrNoCodes
	job = NewWatchlistWarmupJob(runner, []string{"??"}, "@daily", logger.NewNop())
	assert.NoError(t, job.Run(context.Background()))
}
