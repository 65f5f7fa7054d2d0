package contracts

import (
	"context"
	"time"
)

// Period is a provider history window such as "6mo"
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
)

// PriceBar is one daily OHLCV bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Fundamentals holds the provider's fundamental fields.
// Every numeric field is nil when the provider did not report it.
type Fundamentals struct {
	LongName  string `json:"long_name,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	QuoteType string `json:"quote_type,omitempty"` // EQUITY, ETF, MUTUALFUND...

	TrailingEPS   *float64 `json:"trailing_eps,omitempty"`
	ForwardEPS    *float64 `json:"forward_eps,omitempty"`
	BookValue     *float64 `json:"book_value,omitempty"` // per share
	ROE           *float64 `json:"roe,omitempty"`        // ratio, 0.08 = 8%
	ROA           *float64 `json:"roa,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	DividendRate  *float64 `json:"dividend_rate,omitempty"` // per share, annual
	AverageVolume *float64 `json:"average_volume,omitempty"`
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"` // ratio
}

// DisplayName returns the long name, then the short name, or ""
func (f *Fundamentals) DisplayName() string {
	if f == nil {
		return ""
	}
	if f.LongName != "" {
		return f.LongName
	}
	return f.ShortName
}

// MarketDataSource supplies price history and fundamentals for a ticker code.
// Both calls may fail transiently, return partial data, or be rate limited.
// ⭐ SSOT: the only boundary to the external market data provider
type MarketDataSource interface {
	// FetchHistory returns daily bars in ascending date order.
	// An empty series is reported as ErrEmptyHistory.
	FetchHistory(ctx context.Context, code string, period Period) ([]PriceBar, error)

	// FetchFundamentals returns whatever fields the provider has.
	FetchFundamentals(ctx context.Context, code string) (*Fundamentals, error)
}

// NameResolver looks up a display name when fundamentals carry none
type NameResolver interface {
	ResolveName(ctx context.Context, code string) (string, error)
}
