package brain

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/s0_data"
	"github.com/fuyaseru/brain/internal/s2_signals"
	"github.com/fuyaseru/brain/internal/screenconfig"
	"github.com/fuyaseru/brain/pkg/logger"
)

// Display names of terminal records
const (
	NameNotFound = "該当なし"
	NameError    = "エラー"
)

var notFoundNotes = map[string]string{
	s0_data.ReasonNoData:      "データ取得不可（価格履歴なし）",
	s0_data.ReasonRateLimited: "アクセス制限中（429）。時間をおいて再実行してください",
	s0_data.ReasonInvalidCode: "銘柄コードが見つかりません（404）",
	s0_data.ReasonUnreachable: "データ提供元に接続できません",
}

// Fetcher returns prices and optional fundamentals for one code
type Fetcher interface {
	Fetch(ctx context.Context, code string) (*s0_data.FetchResult, error)
}

// TickerPipeline turns one code into one TickerResult
// ⭐ SSOT: 銘柄ごとの計算フロー
type TickerPipeline struct {
	fetcher   Fetcher
	names     contracts.NameResolver
	technical *s2_signals.TechnicalAnalyzer
	volume    *s2_signals.VolumeProfileAnalyzer
	value     *s2_signals.FairValueEngine
	quality   *s2_signals.QualityClassifier
	bigPlayer *s2_signals.BigPlayerScorer
	logger    *logger.Logger
}

// NewTickerPipeline wires the analyzers for policy. names may be nil.
func NewTickerPipeline(fetcher Fetcher, names contracts.NameResolver, policy *screenconfig.Policy, log *logger.Logger) *TickerPipeline {
	return &TickerPipeline{
		fetcher:   fetcher,
		names:     names,
		technical: s2_signals.NewTechnicalAnalyzer(policy.Technical, log),
		volume:    s2_signals.NewVolumeProfileAnalyzer(policy.VolumeWall, log),
		value:     s2_signals.NewFairValueEngine(policy.Valuation, log),
		quality:   s2_signals.NewQualityClassifier(policy.Quality),
		bigPlayer: s2_signals.NewBigPlayerScorer(policy.BigPlayer),
		logger:    log.WithField("module", "pipeline"),
	}
}

// Run never fails: every outcome, including fetch failure, is a record
func (p *TickerPipeline) Run(ctx context.Context, code string) contracts.TickerResult {
	fetched, err := p.fetcher.Fetch(ctx, code)
	if err != nil {
		return p.failed(code, err)
	}
	return p.build(ctx, code, fetched)
}

func (p *TickerPipeline) failed(code string, err error) contracts.TickerResult {
	var fe *s0_data.FetchError
	if errors.As(err, &fe) {
		return NotFoundResult(code, fe.Reason)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorResult(code, "処理が中断されました")
	}
	p.logger.WithError(err).WithField("code", code).Error("Fetch failed unexpectedly")
	return ErrorResult(code, fmt.Sprintf("処理エラー: %v", err))
}

func (p *TickerPipeline) build(ctx context.Context, code string, fetched *s0_data.FetchResult) contracts.TickerResult {
	bars := fetched.History
	last, ok := latestQuote(bars)
	if !ok {
		p.logger.WithField("code", code).Warn("No bar with a usable close")
		return NotFoundResult(code, s0_data.ReasonNoData)
	}
	price := last.Close
	f := fetched.Fundamentals
	if f == nil {
		f = &contracts.Fundamentals{}
	}

	result := contracts.TickerResult{
		Code:    code,
		Name:    p.resolveName(ctx, code, f),
		Status:  contracts.StatusOK,
		Price:   contracts.Float64(price),
		History: bars,
	}
	if fetched.Partial() {
		result.Status = contracts.StatusPartial
	}

	v := p.value.Evaluate(ctx, code, s2_signals.ValueInput{
		Price:       result.Price,
		TrailingEPS: f.TrailingEPS,
		ForwardEPS:  f.ForwardEPS,
		BookValue:   f.BookValue,
		QuoteType:   f.QuoteType,
		Name:        result.Name,
	})
	result.FairValue = v.FairValue
	result.UpsidePct = v.UpsidePct
	result.Rating = v.Rating
	result.EPSSource = v.EPSSource
	result.Excluded = v.Excluded
	result.Note = v.Note

	weather := p.quality.Classify(f.ROE, f.ROA)
	result.Weather = &weather

	if f.DividendRate != nil {
		result.DividendAmount = contracts.Float64(*f.DividendRate)
		result.DividendYieldPct = contracts.Float64(*f.DividendRate / price * 100)
	}
	if f.RevenueGrowth != nil {
		result.RevenueGrowthPct = contracts.Float64(*f.RevenueGrowth * 100)
	}
	result.MarketCap = f.MarketCap
	if f.BookValue != nil && *f.BookValue > 0 {
		result.PBR = contracts.Float64(price / *f.BookValue)
	}
	if f.AverageVolume != nil && *f.AverageVolume > 0 {
		result.VolumeRatio = contracts.Float64(last.Volume / *f.AverageVolume)
	}

	score := p.bigPlayer.Score(result.MarketCap, result.PBR, result.VolumeRatio)
	result.BigPlayerScore = contracts.Int(score)

	tech := p.technical.Analyze(ctx, code, bars)
	result.Technical = &tech
	result.Signal = &tech.Signal

	wall := p.volume.Analyze(ctx, code, bars, price)
	result.VolumeWall = &wall

	p.logger.WithFields(map[string]interface{}{
		"code":   code,
		"status": result.Status,
		"signal": tech.Signal,
		"wall":   wall.State,
	}).Debug("Ticker pipeline completed")

	return result
}

// latestQuote returns the newest bar with a finite, positive close
func latestQuote(bars []contracts.PriceBar) (contracts.PriceBar, bool) {
	for i := len(bars) - 1; i >= 0; i-- {
		c := bars[i].Close
		if c > 0 && !math.IsInf(c, 0) && !math.IsNaN(c) {
			return bars[i], true
		}
	}
	return contracts.PriceBar{}, false
}

// resolveName: long name, short name, scraped page title, then "(code)"
func (p *TickerPipeline) resolveName(ctx context.Context, code string, f *contracts.Fundamentals) string {
	if name := f.DisplayName(); name != "" {
		return name
	}
	if p.names != nil {
		name, err := p.names.ResolveName(ctx, code)
		if err == nil && name != "" {
			return name
		}
		p.logger.WithError(err).WithField("code", code).Debug("Page title lookup failed")
	}
	return "(" + code + ")"
}

// NotFoundResult is the terminal record for a code without price history.
// Every dependent field stays nil.
func NotFoundResult(code, reason string) contracts.TickerResult {
	note, ok := notFoundNotes[reason]
	if !ok {
		note = notFoundNotes[s0_data.ReasonNoData]
	}
	return contracts.TickerResult{
		Code:   code,
		Name:   NameNotFound,
		Status: contracts.StatusNotFound,
		Reason: reason,
		Note:   note,
	}
}

// ErrorResult is the terminal record for a processing failure
func ErrorResult(code, note string) contracts.TickerResult {
	return contracts.TickerResult{
		Code:   code,
		Name:   NameError,
		Status: contracts.StatusError,
		Note:   note,
	}
}
