package s2_signals

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/s1_universe"
	"github.com/fuyaseru/brain/internal/screenconfig"
	"github.com/fuyaseru/brain/pkg/logger"
)

// Notes attached to a fair value outcome
const (
	NotePriceUnknown   = "現在値不明"
	NoteNoFinancials   = "財務データ不足"
	NoteLoss           = "赤字（実績EPSマイナス）"
	NoteNoEPS          = "EPSデータなし"
	NoteImpairmentRisk = "債務超過の恐れ（計算不可）"
	ForecastMarker     = "予想"
	forecastNoteSuffix = "（予想EPSベース）"
	realizedNoteFormat = "EPS%.0f×BPS%.0f"
	forecastNoteFormat = "予想EPS%.0f×BPS%.0f"
)

// FairValueEngine computes the Graham-number fair value and star rating
// ⭐ SSOT: 理論株価計算はここだけ
type FairValueEngine struct {
	policy screenconfig.Valuation
	logger *logger.Logger
}

// NewFairValueEngine creates a new fair value engine
func NewFairValueEngine(policy screenconfig.Valuation, log *logger.Logger) *FairValueEngine {
	return &FairValueEngine{
		policy: policy,
		logger: log,
	}
}

// ValueInput is everything the valuation needs
type ValueInput struct {
	Price       *float64
	TrailingEPS *float64
	ForwardEPS  *float64
	BookValue   *float64
	QuoteType   string
	Name        string
}

// Valuation is the fair value outcome. Every branch sets Note.
type Valuation struct {
	FairValue *float64
	UpsidePct *float64
	Rating    *int
	EPSSource contracts.EPSSource
	Excluded  bool
	Note      string
}

// Evaluate runs the valuation policy in order; it never fails
func (e *FairValueEngine) Evaluate(ctx context.Context, code string, in ValueInput) Valuation {
	v := e.evaluate(in)

	e.logger.WithFields(map[string]interface{}{
		"code":       code,
		"fair_value": v.FairValue,
		"upside_pct": v.UpsidePct,
		"eps_source": v.EPSSource,
		"note":       v.Note,
	}).Debug("Calculated fair value")

	return v
}

func (e *FairValueEngine) evaluate(in ValueInput) Valuation {
	if reason := s1_universe.ExclusionReason(in.QuoteType, in.Name); reason != "" {
		return Valuation{Excluded: true, Note: reason}
	}

	if in.Price == nil || *in.Price <= 0 {
		return Valuation{Note: NotePriceUnknown}
	}
	price := *in.Price

	if in.BookValue == nil {
		return Valuation{Note: NoteNoFinancials}
	}
	bps := *in.BookValue

	var (
		eps    float64
		source contracts.EPSSource
		note   string
	)
	switch {
	case positive(in.TrailingEPS):
		eps, source = *in.TrailingEPS, contracts.EPSTrailing
		note = fmt.Sprintf(realizedNoteFormat, eps, bps)
	case positive(in.ForwardEPS):
		eps, source = *in.ForwardEPS, contracts.EPSForward
		note = fmt.Sprintf(forecastNoteFormat, eps, bps) + forecastNoteSuffix
	case in.TrailingEPS != nil && *in.TrailingEPS < 0:
		return Valuation{Note: NoteLoss}
	default:
		return Valuation{Note: NoteNoEPS}
	}

	product := e.policy.GrahamMultiplier * eps * bps
	if product <= 0 {
		return Valuation{EPSSource: source, Note: NoteImpairmentRisk}
	}

	fair := math.Round(math.Sqrt(product))
	upside := UpsidePct(price, fair)

	return Valuation{
		FairValue: contracts.Float64(fair),
		UpsidePct: upside,
		Rating:    e.Rating(upside),
		EPSSource: source,
		Note:      note,
	}
}

// UpsidePct is (fair/price - 1) * 100 rounded to 2 places, nil unless price > 0
func UpsidePct(price, fair float64) *float64 {
	if price <= 0 {
		return nil
	}
	raw := decimal.NewFromFloat(fair).
		Div(decimal.NewFromFloat(price)).
		Sub(decimal.NewFromInt(1)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := raw.Float64()
	return &f
}

// Rating maps upside % to 0..5 stars; nil stays nil
func (e *FairValueEngine) Rating(upside *float64) *int {
	if upside == nil {
		return nil
	}
	stars := len(e.policy.RatingThresholds)
	for i, th := range e.policy.RatingThresholds {
		if *upside >= th {
			return contracts.Int(stars - i)
		}
	}
	return contracts.Int(0)
}

func positive(v *float64) bool {
	return v != nil && *v > 0 && !math.IsInf(*v, 0)
}
