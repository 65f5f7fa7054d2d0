package brain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyaseru/brain/internal/bundlecache"
	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/logger"
	"github.com/fuyaseru/brain/pkg/metrics"
)

// stubRunner returns canned records, panicking for codes in panics
type stubRunner struct {
	results map[string]contracts.TickerResult
	panics  map[string]bool
	calls   []string
	onRun   func(code string)
}

func (s *stubRunner) Run(ctx context.Context, code string) contracts.TickerResult {
	s.calls = append(s.calls, code)
	if s.onRun != nil {
		s.onRun(code)
	}
	if s.panics[code] {
		panic("boom")
	}
	if r, ok := s.results[code]; ok {
		return r
	}
	return NotFoundResult(code, "no_data")
}

func okResult(code string) contracts.TickerResult {
	return contracts.TickerResult{Code: code, Name: "(" + code + ")", Status: contracts.StatusOK, Price: contracts.Float64(1000)}
}

func newOrchestrator(runner Runner, cache contracts.BundleCache) *BundleOrchestrator {
	return NewBundleOrchestrator(runner, cache, time.Hour, metrics.New(), logger.NewNop())
}

func TestRunOneRecordPerCode(t *testing.T) {
	runner := &stubRunner{results: map[string]contracts.TickerResult{
		"7203": okResult("7203"),
		"6758": okResult("6758"),
	}}
	o := newOrchestrator(runner, nil)

	var progress [][2]int
	b, fromCache, err := o.Run(context.Background(), []string{"７２０３", "6758", "7203", "0000"}, func(done, total int, last contracts.TickerResult) {
		progress = append(progress, [2]int{done, total})
	})

	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, []string{"7203", "6758", "0000"}, b.Codes)
	assert.Len(t, b.Results, 3)
	assert.Equal(t, []string{"7203", "6758", "0000"}, runner.calls)
	assert.Equal(t, contracts.StatusNotFound, b.Results["0000"].Status)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
	assert.False(t, b.GeneratedAt.IsZero())
}

func TestRunNoCodes(t *testing.T) {
	o := newOrchestrator(&stubRunner{}, nil)

	_, _, err := o.Run(context.Background(), []string{"", "abc"}, nil)
	assert.ErrorIs(t, err, ErrNoCodes)
}

func TestRunRecoversPanic(t *testing.T) {
	runner := &stubRunner{
		results: map[string]contracts.TickerResult{"6758": okResult("6758")},
		panics:  map[string]bool{"7203": true},
	}
	o := newOrchestrator(runner, nil)

	b, _, err := o.Run(context.Background(), []string{"7203", "6758"}, nil)
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusError, b.Results["7203"].Status)
	assert.Contains(t, b.Results["7203"].Note, "boom")
	assert.Equal(t, contracts.StatusOK, b.Results["6758"].Status)
}

func TestRunCachesBundle(t *testing.T) {
	runner := &stubRunner{results: map[string]contracts.TickerResult{"7203": okResult("7203")}}
	cache := bundlecache.NewMemory(logger.NewNop())
	o := newOrchestrator(runner, cache)

	first, fromCache, err := o.Run(context.Background(), []string{"7203"}, nil)
	require.NoError(t, err)
	assert.False(t, fromCache)

	second, fromCache, err := o.Run(context.Background(), []string{"7203"}, nil)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, first, second)
	assert.Len(t, runner.calls, 1)

	// a different order is a different key
	_, fromCache, err = o.Run(context.Background(), []string{"7203", "6758"}, nil)
	require.NoError(t, err)
	assert.False(t, fromCache)
}

func TestRunSkipsCacheWhenAllFailed(t *testing.T) {
	runner := &stubRunner{}
	cache := bundlecache.NewMemory(logger.NewNop())
	o := newOrchestrator(runner, cache)

	b, _, err := o.Run(context.Background(), []string{"0000"}, nil)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusNotFound, b.Results["0000"].Status)
	assert.Equal(t, 0, cache.Len())
}

func TestRunCancelledMidBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &stubRunner{
		results: map[string]contracts.TickerResult{"7203": okResult("7203"), "6758": okResult("6758")},
		onRun: func(code string) {
			if code == "7203" {
				cancel()
			}
		},
	}
	cache := bundlecache.NewMemory(logger.NewNop())
	o := newOrchestrator(runner, cache)

	b, _, err := o.Run(ctx, []string{"7203", "6758"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, b)
	assert.Len(t, b.Results, 2)
	assert.Equal(t, contracts.StatusOK, b.Results["7203"].Status)
	assert.Equal(t, contracts.StatusError, b.Results["6758"].Status)
	assert.Equal(t, []string{"7203"}, runner.calls)
	assert.Equal(t, 0, cache.Len())
}

func TestInvalidateAndClear(t *testing.T) {
	runner := &stubRunner{results: map[string]contracts.TickerResult{"7203": okResult("7203"), "6758": okResult("6758")}}
	cache := bundlecache.NewMemory(logger.NewNop())
	o := newOrchestrator(runner, cache)

	_, _, err := o.Run(context.Background(), []string{"7203"}, nil)
	require.NoError(t, err)
	_, _, err = o.Run(context.Background(), []string{"6758"}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	require.NoError(t, o.Invalidate(context.Background(), []string{"7203"}))
	assert.Equal(t, 1, cache.Len())

	n, err := o.ClearCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, cache.Len())
}

func TestClearCacheWithoutBackend(t *testing.T) {
	n, err := newOrchestrator(&stubRunner{}, nil).ClearCache(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
