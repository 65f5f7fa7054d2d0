package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"github.com/fuyaseru/brain/internal/contracts"
)

// chartResponse is the v8 chart API payload
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory fetches daily bars for the period in ascending order
func (c *Client) FetchHistory(ctx context.Context, code string, period contracts.Period) ([]contracts.PriceBar, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", string(period))

	body, err := c.httpClient.GetBody(ctx, c.endpoint(c.cfg.ChartURL, code, params))
	if err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", code, err)
	}

	bars, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("parse chart %s: %w", code, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"code":   code,
		"period": period,
		"count":  len(bars),
	}).Debug("Fetched history")

	return bars, nil
}

func parseChart(body []byte) ([]contracts.PriceBar, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if e := chart.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", contracts.ErrInvalidCode, e.Description)
		}
		return nil, fmt.Errorf("yahoo api error: %s", e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, contracts.ErrEmptyHistory
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]contracts.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		closePrice := at(quote.Close, i)
		if closePrice <= 0 || math.IsNaN(closePrice) {
			continue // null bar (holiday, suspension)
		}
		bars = append(bars, contracts.PriceBar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  closePrice,
			Volume: at(quote.Volume, i),
		})
	}

	if len(bars) == 0 {
		return nil, contracts.ErrEmptyHistory
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}
