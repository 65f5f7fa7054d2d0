package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fuyaseru/brain/internal/contracts"
)

const summaryModules = "price,summaryDetail,defaultKeyStatistics,financialData,quoteType"

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper; {} means absent
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v *rawValue) value() *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				LongName  string    `json:"longName"`
				ShortName string    `json:"shortName"`
				MarketCap *rawValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail *struct {
				DividendRate  *rawValue `json:"dividendRate"`
				AverageVolume *rawValue `json:"averageVolume"`
				MarketCap     *rawValue `json:"marketCap"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics *struct {
				TrailingEps *rawValue `json:"trailingEps"`
				ForwardEps  *rawValue `json:"forwardEps"`
				BookValue   *rawValue `json:"bookValue"`
			} `json:"defaultKeyStatistics"`
			FinancialData *struct {
				ReturnOnEquity *rawValue `json:"returnOnEquity"`
				ReturnOnAssets *rawValue `json:"returnOnAssets"`
				RevenueGrowth  *rawValue `json:"revenueGrowth"`
			} `json:"financialData"`
			QuoteType *struct {
				QuoteType string `json:"quoteType"`
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"quoteType"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// FetchFundamentals fetches fundamental fields; absent fields stay nil
func (c *Client) FetchFundamentals(ctx context.Context, code string) (*contracts.Fundamentals, error) {
	params := url.Values{}
	params.Set("modules", summaryModules)

	body, err := c.httpClient.GetBody(ctx, c.endpoint(c.cfg.QuoteURL, code, params))
	if err != nil {
		return nil, fmt.Errorf("fetch quote summary %s: %w", code, err)
	}

	f, err := parseQuoteSummary(body)
	if err != nil {
		return nil, fmt.Errorf("parse quote summary %s: %w", code, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"code":       code,
		"quote_type": f.QuoteType,
		"has_eps":    f.TrailingEPS != nil || f.ForwardEPS != nil,
		"has_bps":    f.BookValue != nil,
	}).Debug("Fetched fundamentals")

	return f, nil
}

func parseQuoteSummary(body []byte) (*contracts.Fundamentals, error) {
	var resp quoteSummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if e := resp.QuoteSummary.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", contracts.ErrInvalidCode, e.Description)
		}
		return nil, fmt.Errorf("yahoo api error: %s", e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, contracts.ErrPartialFundamentals
	}

	r := resp.QuoteSummary.Result[0]
	f := &contracts.Fundamentals{}

	if qt := r.QuoteType; qt != nil {
		f.QuoteType = qt.QuoteType
		f.LongName = qt.LongName
		f.ShortName = qt.ShortName
	}
	if p := r.Price; p != nil {
		if p.LongName != "" {
			f.LongName = p.LongName
		}
		if p.ShortName != "" {
			f.ShortName = p.ShortName
		}
		f.MarketCap = p.MarketCap.value()
	}
	if sd := r.SummaryDetail; sd != nil {
		f.DividendRate = sd.DividendRate.value()
		f.AverageVolume = sd.AverageVolume.value()
		if f.MarketCap == nil {
			f.MarketCap = sd.MarketCap.value()
		}
	}
	if ks := r.DefaultKeyStatistics; ks != nil {
		f.TrailingEPS = ks.TrailingEps.value()
		f.ForwardEPS = ks.ForwardEps.value()
		f.BookValue = ks.BookValue.value()
	}
	if fd := r.FinancialData; fd != nil {
		f.ROE = fd.ReturnOnEquity.value()
		f.ROA = fd.ReturnOnAssets.value()
		f.RevenueGrowth = fd.RevenueGrowth.value()
	}

	return f, nil
}
