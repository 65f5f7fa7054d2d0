package contracts

import "time"

// Status is the outcome of one ticker pipeline run
type Status string

const (
	StatusOK       Status = "ok"
	StatusPartial  Status = "partial"   // price present, fundamentals missing
	StatusNotFound Status = "not_found" // terminal: no price history
	StatusError    Status = "error"     // terminal: processing failure
)

// Terminal reports whether the result carries no market data at all
func (s Status) Terminal() bool {
	return s == StatusNotFound || s == StatusError
}

// Signal is the discrete technical signal
type Signal string

const (
	SignalStrongBuy Signal = "strong_buy"
	SignalBuy       Signal = "buy"
	SignalNeutral   Signal = "neutral"
	SignalSell      Signal = "sell"
	SignalDanger    Signal = "danger"
	SignalUnknown   Signal = "unknown" // not enough history
)

// Weather is the ROE/ROA financial-health label
type Weather string

const (
	WeatherExcellent Weather = "excellent"
	WeatherAverage   Weather = "average"
	WeatherLoss      Weather = "loss"
	WeatherUnknown   Weather = "unknown"
)

// WallState classifies the volume-profile read
type WallState string

const (
	WallUpperContested WallState = "upper_contested"
	WallLowerContested WallState = "lower_contested"
	WallRange          WallState = "range"
	WallDegenerate     WallState = "degenerate"
)

// VolumeWall is the support/resistance descriptor.
// Upper or Lower is nil when that side had no traded volume.
type VolumeWall struct {
	State       WallState `json:"state"`
	Upper       *float64  `json:"upper,omitempty"`
	Lower       *float64  `json:"lower,omitempty"`
	Description string    `json:"description"`
}

// TechnicalReading is the indicator snapshot behind Signal
type TechnicalReading struct {
	Signal     Signal   `json:"signal"`
	Score      int      `json:"score"`
	RSI        *float64 `json:"rsi,omitempty"`
	MA         *float64 `json:"ma,omitempty"`
	UpperBand  *float64 `json:"upper_band,omitempty"`
	LowerBand  *float64 `json:"lower_band,omitempty"`
	Sufficient bool     `json:"sufficient"`
}

// EPSSource tells which EPS fed the fair value
type EPSSource string

const (
	EPSNone     EPSSource = ""
	EPSTrailing EPSSource = "trailing"
	EPSForward  EPSSource = "forward"
)

// TickerResult is the per-code output record. Optional fields are nil when
// the value could not be determined; a zero is always a real measurement.
// ⭐ SSOT: built once per pipeline run, never mutated afterwards
type TickerResult struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"` // not-found cause: no_data, rate_limited, invalid_code, unreachable

	Price   *float64   `json:"price,omitempty"`
	History []PriceBar `json:"history,omitempty"`

	FairValue *float64  `json:"fair_value,omitempty"`
	UpsidePct *float64  `json:"upside_pct,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	EPSSource EPSSource `json:"eps_source,omitempty"`
	Excluded  bool      `json:"excluded,omitempty"` // fund / REIT

	Weather *Weather `json:"weather,omitempty"`

	DividendYieldPct *float64 `json:"dividend_yield_pct,omitempty"`
	DividendAmount   *float64 `json:"dividend_amount,omitempty"`
	RevenueGrowthPct *float64 `json:"revenue_growth_pct,omitempty"`
	MarketCap        *float64 `json:"market_cap,omitempty"`
	PBR              *float64 `json:"pbr,omitempty"`
	VolumeRatio      *float64 `json:"volume_ratio,omitempty"`

	BigPlayerScore *int              `json:"big_player_score,omitempty"`
	Signal         *Signal           `json:"signal,omitempty"`
	Technical      *TechnicalReading `json:"technical,omitempty"`
	VolumeWall     *VolumeWall       `json:"volume_wall,omitempty"`

	Note string `json:"note"`
}

// Bundle is the cached aggregate of one batch, keyed by the exact code list
type Bundle struct {
	Codes       []string                `json:"codes"`
	Results     map[string]TickerResult `json:"results"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// Ordered returns results in input-code order
func (b *Bundle) Ordered() []TickerResult {
	out := make([]TickerResult, 0, len(b.Codes))
	for _, code := range b.Codes {
		if r, ok := b.Results[code]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Float64 returns a pointer to v
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }
