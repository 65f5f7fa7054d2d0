package s2_signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/screenconfig"
	"github.com/fuyaseru/brain/pkg/logger"
)

func barsFromCloses(closes []float64) []contracts.PriceBar {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func newTechnical() *TechnicalAnalyzer {
	return NewTechnicalAnalyzer(screenconfig.Default().Technical, logger.NewNop())
}

// alternating 100/101 then a final close
func oscillatingThen(last float64) []float64 {
	closes := make([]float64, 0, 100)
	for i := 0; i < 99; i++ {
		closes = append(closes, 100+float64(i%2))
	}
	return append(closes, last)
}

func TestTechnicalInsufficientHistory(t *testing.T) {
	closes := make([]float64, 75)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	reading := newTechnical().Analyze(context.Background(), "7203", barsFromCloses(closes))

	assert.Equal(t, contracts.SignalUnknown, reading.Signal)
	assert.False(t, reading.Sufficient)
	assert.Nil(t, reading.RSI)
}

func TestTechnicalAnalyze(t *testing.T) {
	rising := make([]float64, 100)
	falling := make([]float64, 100)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 300 - float64(i)
	}

	tests := []struct {
		name       string
		closes     []float64
		wantScore  int
		wantSignal contracts.Signal
	}{
		// RSI 100 (-2), above MA (+1), inside bands
		{"steady uptrend", rising, -1, contracts.SignalSell},
		// RSI 0 (+2), below MA (-1), inside bands
		{"steady downtrend", falling, 1, contracts.SignalBuy},
		// oversold (+2), below MA (-1), under lower band (+2)
		{"capitulation", oscillatingThen(80), 3, contracts.SignalStrongBuy},
		// overbought (-2), above MA (+1), over upper band (-2)
		{"blow-off", oscillatingThen(120), -3, contracts.SignalDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := newTechnical().Analyze(context.Background(), "7203", barsFromCloses(tt.closes))

			require.True(t, reading.Sufficient)
			require.NotNil(t, reading.RSI)
			require.NotNil(t, reading.MA)
			assert.Equal(t, tt.wantScore, reading.Score)
			assert.Equal(t, tt.wantSignal, reading.Signal)
		})
	}
}

func TestTechnicalFlatSeriesSkipsBands(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 500
	}

	reading := newTechnical().Analyze(context.Background(), "7203", barsFromCloses(closes))

	assert.Nil(t, reading.UpperBand)
	assert.Nil(t, reading.LowerBand)
	assert.Equal(t, 0, reading.Score)
	assert.Equal(t, contracts.SignalNeutral, reading.Signal)
}

func TestSignalFromScore(t *testing.T) {
	tests := []struct {
		score int
		want  contracts.Signal
	}{
		{5, contracts.SignalStrongBuy},
		{3, contracts.SignalStrongBuy},
		{2, contracts.SignalBuy},
		{1, contracts.SignalBuy},
		{0, contracts.SignalNeutral},
		{-1, contracts.SignalSell},
		{-2, contracts.SignalSell},
		{-3, contracts.SignalDanger},
		{-5, contracts.SignalDanger},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SignalFromScore(tt.score), "score=%d", tt.score)
	}
}

func TestCalculateRSI(t *testing.T) {
	flat := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10}
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	down := []float64{16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

	assert.Equal(t, 50.0, calculateRSI(flat, 14))
	assert.Equal(t, 100.0, calculateRSI(up, 14))
	assert.Equal(t, 0.0, calculateRSI(down, 14))
	assert.Equal(t, 50.0, calculateRSI([]float64{1, 2}, 14), "short input is neutral")

	rsi := calculateRSI(oscillatingThen(80), 14)
	assert.Less(t, rsi, 30.0)
}

func TestSampleStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.138, sampleStdDev(values, mean(values)), 0.001)
	assert.Equal(t, 0.0, sampleStdDev([]float64{3}, 3))
}
