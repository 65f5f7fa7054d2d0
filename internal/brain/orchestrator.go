package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/s1_universe"
	"github.com/fuyaseru/brain/pkg/logger"
	"github.com/fuyaseru/brain/pkg/metrics"
)

// ErrNoCodes is returned when the input holds no ticker code
var ErrNoCodes = errors.New("no valid ticker codes")

// Runner produces one record per code
type Runner interface {
	Run(ctx context.Context, code string) contracts.TickerResult
}

// ProgressFunc is called after each ticker with done/total
type ProgressFunc func(done, total int, last contracts.TickerResult)

// BundleOrchestrator runs the pipeline over a code list, strictly one ticker
// at a time, and caches the complete bundle under the exact code list.
// ⭐ SSOT: バッチ実行とキャッシュの入口
type BundleOrchestrator struct {
	pipeline Runner
	cache    contracts.BundleCache
	ttl      time.Duration
	metrics  *metrics.Recorder
	logger   *logger.Logger
	now      func() time.Time
}

// NewBundleOrchestrator creates a new orchestrator. cache may be nil.
func NewBundleOrchestrator(pipeline Runner, cache contracts.BundleCache, ttl time.Duration, rec *metrics.Recorder, log *logger.Logger) *BundleOrchestrator {
	return &BundleOrchestrator{
		pipeline: pipeline,
		cache:    cache,
		ttl:      ttl,
		metrics:  rec,
		logger:   log.WithField("module", "orchestrator"),
		now:      time.Now,
	}
}

// Run returns one record per distinct normalized code. A cached bundle is
// returned as is with fromCache=true. When ctx ends mid-batch the remaining
// codes get error records, the bundle is not cached and ctx.Err() is returned
// alongside it.
func (o *BundleOrchestrator) Run(ctx context.Context, codes []string, progress ProgressFunc) (*contracts.Bundle, bool, error) {
	codes = s1_universe.ParseCodeList(codes)
	if len(codes) == 0 {
		return nil, false, ErrNoCodes
	}
	total := len(codes)
	key := contracts.BundleKey(codes)

	if cached := o.lookup(ctx, key); cached != nil {
		if progress != nil {
			progress(total, total, contracts.TickerResult{})
		}
		return cached, true, nil
	}

	start := o.now()
	bundle := &contracts.Bundle{
		Codes:   codes,
		Results: make(map[string]contracts.TickerResult, total),
	}

	o.logger.WithFields(map[string]interface{}{
		"count": total,
		"key":   key,
	}).Info("Starting bundle run")

	var cancelErr error
	for i, code := range codes {
		var r contracts.TickerResult
		if cancelErr == nil {
			cancelErr = ctx.Err()
		}
		if cancelErr != nil {
			r = ErrorResult(code, "処理が中断されました")
		} else {
			r = o.runOne(ctx, code)
		}

		bundle.Results[code] = r
		o.metrics.RecordTickerResult(string(r.Status))
		if progress != nil {
			progress(i+1, total, r)
		}
	}
	bundle.GeneratedAt = o.now()

	failed := 0
	for _, r := range bundle.Results {
		if r.Status.Terminal() {
			failed++
		}
	}

	switch {
	case cancelErr != nil:
		o.logger.WithField("key", key).Warn("Bundle run cancelled, not caching")
	case failed == total:
		o.logger.WithField("key", key).Warn("Every ticker failed, not caching")
	default:
		o.store(ctx, key, bundle)
	}

	duration := o.now().Sub(start)
	o.metrics.RecordBatch(duration)
	o.logger.WithFields(map[string]interface{}{
		"count":    total,
		"failed":   failed,
		"duration": duration,
	}).Info("Bundle run completed")

	return bundle, false, cancelErr
}

// runOne isolates one ticker: a panic becomes an error record
func (o *BundleOrchestrator) runOne(ctx context.Context, code string) (result contracts.TickerResult) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.WithFields(map[string]interface{}{
				"code":  code,
				"panic": fmt.Sprint(rec),
			}).Error("Ticker pipeline panicked")
			result = ErrorResult(code, fmt.Sprintf("処理エラー: %v", rec))
		}
	}()
	return o.pipeline.Run(ctx, code)
}

func (o *BundleOrchestrator) lookup(ctx context.Context, key string) *contracts.Bundle {
	if o.cache == nil {
		return nil
	}
	b, err := o.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, contracts.ErrCacheMiss) {
			o.logger.WithError(err).WithField("key", key).Warn("Cache lookup failed")
		}
		o.metrics.RecordCacheLookup(false)
		return nil
	}
	o.metrics.RecordCacheLookup(true)
	o.logger.WithField("key", key).Debug("Bundle served from cache")
	return b
}

func (o *BundleOrchestrator) store(ctx context.Context, key string, b *contracts.Bundle) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Set(ctx, key, b, o.ttl); err != nil {
		o.logger.WithError(err).WithField("key", key).Warn("Cache store failed")
	}
}

// Invalidate drops the cached bundle for exactly these codes
func (o *BundleOrchestrator) Invalidate(ctx context.Context, codes []string) error {
	if o.cache == nil {
		return nil
	}
	return o.cache.Delete(ctx, contracts.BundleKey(s1_universe.ParseCodeList(codes)))
}

// ClearCache drops every cached bundle
func (o *BundleOrchestrator) ClearCache(ctx context.Context) (int, error) {
	if o.cache == nil {
		return 0, nil
	}
	n, err := o.cache.Clear(ctx)
	if err != nil {
		return n, fmt.Errorf("clear bundle cache: %w", err)
	}
	o.logger.WithField("removed", n).Info("Bundle cache cleared")
	return n, nil
}
