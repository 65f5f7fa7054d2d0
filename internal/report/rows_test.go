package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyaseru/brain/internal/contracts"
)

func TestRowsFollowInputOrder(t *testing.T) {
	weather := contracts.WeatherExcellent
	signal := contracts.SignalBuy
	b := &contracts.Bundle{
		Codes: []string{"7203", "0000"},
		Results: map[string]contracts.TickerResult{
			"0000": {Code: "0000", Name: "該当なし", Status: contracts.StatusNotFound, Rating: contracts.Int(0), Note: "銘柄コードが見つかりません（404）"},
			"7203": {
				Code:           "7203",
				Name:           "トヨタ自動車",
				Status:         contracts.StatusOK,
				Price:          f(1000),
				FairValue:      f(1500),
				UpsidePct:      f(50),
				Rating:         contracts.Int(5),
				Weather:        &weather,
				Signal:         &signal,
				MarketCap:      f(1500e8),
				BigPlayerScore: contracts.Int(80),
				Note:           "EPS100×BPS1000",
			},
		},
		GeneratedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	}

	rows := Rows(b)
	require.Len(t, rows, 2)

	assert.Equal(t, "7203", rows[0].Code)
	assert.Equal(t, "1,000円", rows[0].Price)
	assert.Equal(t, "1,500円", rows[0].FairValue)
	assert.Equal(t, "+500円", rows[0].UpsideYen)
	assert.Equal(t, "+50.00%", rows[0].UpsidePct)
	assert.Equal(t, "★★★★★", rows[0].Stars)
	assert.Equal(t, "↗〇 買い", rows[0].Signal)
	assert.Equal(t, "☀（優良）", rows[0].Weather)
	assert.Equal(t, "1,500億円", rows[0].MarketCap)
	assert.Equal(t, "🔥 80%", rows[0].BigPlayer)

	assert.Equal(t, "0000", rows[1].Code)
	assert.Equal(t, Placeholder, rows[1].Stars)
	assert.Equal(t, Placeholder, rows[1].Price)
	assert.Equal(t, Placeholder, rows[1].UpsideYen)

	assert.Len(t, rows[0].Cells(), len(Headers))
}

func TestRowsNilBundle(t *testing.T) {
	assert.Empty(t, Rows(nil))
}
