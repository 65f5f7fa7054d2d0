package s0_data

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/config"
	"github.com/fuyaseru/brain/pkg/httputil"
	"github.com/fuyaseru/brain/pkg/logger"
	"github.com/fuyaseru/brain/pkg/metrics"
)

// Not-found reasons
const (
	ReasonNoData      = "no_data"
	ReasonRateLimited = "rate_limited"
	ReasonInvalidCode = "invalid_code"
	ReasonUnreachable = "unreachable"
)

// FetchError is the terminal "no price history" failure for one ticker.
// errors.Is(err, contracts.ErrTickerNotFound) holds for every FetchError.
type FetchError struct {
	Code     string
	Reason   string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: no price history after %d attempts (%s): %v", e.Code, e.Attempts, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{contracts.ErrTickerNotFound, e.Err}
}

// FetchResult is a successful price fetch with optional fundamentals
type FetchResult struct {
	Code            string
	Period          contracts.Period
	History         []contracts.PriceBar
	Fundamentals    *contracts.Fundamentals // nil when unavailable
	FundamentalsErr error
	Attempts        int
}

// Partial reports whether fundamentals are missing
func (r *FetchResult) Partial() bool {
	return r.Fundamentals == nil
}

// Policy is the retry and pacing policy
type Policy struct {
	MaxRetries      int
	RetryDelay      time.Duration
	PacingMin       time.Duration
	PacingMax       time.Duration
	HistoryPeriod   contracts.Period
	FallbackPeriod  contracts.Period
	FallbackEnabled bool
}

// PolicyFromConfig converts the env-level fetch settings
func PolicyFromConfig(cfg config.FetchConfig) Policy {
	return Policy{
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      cfg.RetryDelay,
		PacingMin:       cfg.PacingMin,
		PacingMax:       cfg.PacingMax,
		HistoryPeriod:   contracts.Period(cfg.HistoryPeriod),
		FallbackPeriod:  contracts.Period(cfg.FallbackPeriod),
		FallbackEnabled: cfg.FallbackEnabled,
	}
}

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryingFetcher paces and retries market data access for one ticker at a time
// ⭐ SSOT: 取得リトライ・ペース配分はここだけ
type RetryingFetcher struct {
	source  contracts.MarketDataSource
	policy  Policy
	metrics *metrics.Recorder
	logger  *logger.Logger
	sleep   Sleeper
	jitter  func(n int64) int64
}

// NewRetryingFetcher creates a new fetcher over source
func NewRetryingFetcher(source contracts.MarketDataSource, policy Policy, rec *metrics.Recorder, log *logger.Logger) *RetryingFetcher {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	if policy.HistoryPeriod == "" {
		policy.HistoryPeriod = contracts.Period6Mo
	}
	return &RetryingFetcher{
		source:  source,
		policy:  policy,
		metrics: rec,
		logger:  log.WithField("module", "fetcher"),
		sleep:   sleepContext,
		jitter:  rand.Int64N,
	}
}

// WithSleeper replaces the blocking sleep (tests)
func (f *RetryingFetcher) WithSleeper(s Sleeper) *RetryingFetcher {
	f.sleep = s
	return f
}

// WithJitter replaces the random source used for pacing (tests)
func (f *RetryingFetcher) WithJitter(fn func(n int64) int64) *RetryingFetcher {
	f.jitter = fn
	return f
}

// Fetch pauses for the pacing interval, then fetches history with retries and
// fundamentals once. A *FetchError means no price history; a context error
// is returned as is.
func (f *RetryingFetcher) Fetch(ctx context.Context, code string) (*FetchResult, error) {
	if err := f.sleep(ctx, f.pacing()); err != nil {
		return nil, err
	}

	result, err := f.fetchHistory(ctx, code)
	if err != nil {
		return nil, err
	}

	fundamentals, err := f.source.FetchFundamentals(ctx, code)
	switch {
	case err != nil:
		f.metrics.RecordFetch("fundamentals", outcomeOf(err))
		f.logger.WithError(err).WithField("code", code).Warn("Fundamentals unavailable, continuing with prices only")
		result.FundamentalsErr = fmt.Errorf("%w: %v", contracts.ErrPartialFundamentals, err)
	case fundamentals == nil:
		f.metrics.RecordFetch("fundamentals", "empty")
		result.FundamentalsErr = contracts.ErrPartialFundamentals
	default:
		f.metrics.RecordFetch("fundamentals", "ok")
		result.Fundamentals = fundamentals
	}

	return result, nil
}

// pacing is a uniform random duration in [PacingMin, PacingMax]
func (f *RetryingFetcher) pacing() time.Duration {
	d := f.policy.PacingMin
	if span := f.policy.PacingMax - f.policy.PacingMin; span > 0 {
		d += time.Duration(f.jitter(int64(span) + 1))
	}
	return d
}

func (f *RetryingFetcher) fetchHistory(ctx context.Context, code string) (*FetchResult, error) {
	var (
		lastErr     error
		rateLimited bool
		attempts    int
	)

	for attempt := 1; attempt <= f.policy.MaxRetries; attempt++ {
		attempts = attempt
		bars, err := f.source.FetchHistory(ctx, code, f.policy.HistoryPeriod)
		if err == nil && len(bars) == 0 {
			err = contracts.ErrEmptyHistory
		}
		f.metrics.RecordFetch("history", outcomeOf(err))

		if err == nil {
			return &FetchResult{Code: code, Period: f.policy.HistoryPeriod, History: bars, Attempts: attempts}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		rateLimited = rateLimited || isRateLimited(err)

		// an unknown symbol will not appear on retry
		if isInvalidCode(err) {
			return nil, &FetchError{Code: code, Reason: ReasonInvalidCode, Attempts: attempts, Err: err}
		}

		if attempt < f.policy.MaxRetries {
			f.logger.WithError(err).WithFields(map[string]interface{}{
				"code":    code,
				"attempt": attempt,
				"delay":   f.policy.RetryDelay,
			}).Warn("History fetch failed, retrying")

			if err := f.sleep(ctx, f.policy.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	if f.policy.FallbackEnabled && f.policy.FallbackPeriod != "" && f.policy.FallbackPeriod != f.policy.HistoryPeriod {
		attempts++
		bars, err := f.source.FetchHistory(ctx, code, f.policy.FallbackPeriod)
		if err == nil && len(bars) == 0 {
			err = contracts.ErrEmptyHistory
		}
		f.metrics.RecordFetch("fallback", outcomeOf(err))

		if err == nil {
			f.logger.WithFields(map[string]interface{}{
				"code":   code,
				"period": f.policy.FallbackPeriod,
			}).Info("History recovered with fallback period")
			return &FetchResult{Code: code, Period: f.policy.FallbackPeriod, History: bars, Attempts: attempts}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		rateLimited = rateLimited || isRateLimited(err)
	}

	reason := classify(lastErr)
	if rateLimited && reason != ReasonInvalidCode {
		reason = ReasonRateLimited
	}

	f.logger.WithError(lastErr).WithFields(map[string]interface{}{
		"code":     code,
		"attempts": attempts,
		"reason":   reason,
	}).Warn("No price history, ticker not found")

	return nil, &FetchError{Code: code, Reason: reason, Attempts: attempts, Err: lastErr}
}

func classify(err error) string {
	switch {
	case err == nil, errors.Is(err, contracts.ErrEmptyHistory):
		return ReasonNoData
	case isRateLimited(err):
		return ReasonRateLimited
	case isInvalidCode(err):
		return ReasonInvalidCode
	default:
		return ReasonUnreachable
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, contracts.ErrEmptyHistory), errors.Is(err, contracts.ErrPartialFundamentals):
		return "empty"
	case isRateLimited(err):
		return "rate_limited"
	case isInvalidCode(err):
		return "not_found"
	default:
		return "error"
	}
}

func isRateLimited(err error) bool {
	return httputil.IsRateLimited(err) || errors.Is(err, contracts.ErrRateLimited)
}

func isInvalidCode(err error) bool {
	return httputil.IsNotFound(err) || errors.Is(err, contracts.ErrInvalidCode)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
