package s2_signals

import (
	"context"
	"math"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/screenconfig"
	"github.com/fuyaseru/brain/pkg/logger"
)

// TechnicalAnalyzer scores RSI, moving-average trend and Bollinger position
// ⭐ SSOT: テクニカル判定はここだけ
type TechnicalAnalyzer struct {
	policy screenconfig.Technical
	logger *logger.Logger
}

// NewTechnicalAnalyzer creates a new technical analyzer
func NewTechnicalAnalyzer(policy screenconfig.Technical, log *logger.Logger) *TechnicalAnalyzer {
	return &TechnicalAnalyzer{
		policy: policy,
		logger: log,
	}
}

// Analyze returns the composite reading for bars in ascending date order.
// With MinHistory closes or fewer the signal is Unknown.
func (a *TechnicalAnalyzer) Analyze(ctx context.Context, code string, bars []contracts.PriceBar) contracts.TechnicalReading {
	closes := closesOf(bars)
	if len(closes) <= a.policy.MinHistory {
		a.logger.WithFields(map[string]interface{}{
			"code": code,
			"days": len(closes),
		}).Debug("Not enough history for technical signal")
		return contracts.TechnicalReading{Signal: contracts.SignalUnknown}
	}

	price := closes[len(closes)-1]
	reading := contracts.TechnicalReading{Sufficient: true}

	rsi := calculateRSI(closes, a.policy.RSIPeriod)
	reading.RSI = contracts.Float64(rsi)
	reading.Score += a.rsiPoints(rsi)

	ma := mean(closes[len(closes)-a.policy.MAPeriod:])
	reading.MA = contracts.Float64(ma)
	switch {
	case price > ma:
		reading.Score++
	case price < ma:
		reading.Score--
	}

	window := closes[len(closes)-a.policy.BollingerLen:]
	mid := mean(window)
	sd := sampleStdDev(window, mid)
	// flat window: both bands collapse onto the price, no read
	if sd > 0 {
		upper := mid + a.policy.BollingerSigma*sd
		lower := mid - a.policy.BollingerSigma*sd
		reading.UpperBand = contracts.Float64(upper)
		reading.LowerBand = contracts.Float64(lower)
		switch {
		case price <= lower:
			reading.Score += 2
		case price >= upper:
			reading.Score -= 2
		}
	}

	reading.Signal = SignalFromScore(reading.Score)

	a.logger.WithFields(map[string]interface{}{
		"code":   code,
		"rsi":    rsi,
		"ma":     ma,
		"score":  reading.Score,
		"signal": reading.Signal,
	}).Debug("Calculated technical signal")

	return reading
}

// rsiPoints: ≤30 +2, ≤40 +1, ≥70 -2, ≥60 -1, otherwise 0
func (a *TechnicalAnalyzer) rsiPoints(rsi float64) int {
	switch {
	case rsi <= a.policy.RSIStrongLow:
		return 2
	case rsi <= a.policy.RSILow:
		return 1
	case rsi >= a.policy.RSIStrongHigh:
		return -2
	case rsi >= a.policy.RSIHigh:
		return -1
	}
	return 0
}

// SignalFromScore maps the integer composite to a signal
func SignalFromScore(score int) contracts.Signal {
	switch {
	case score >= 3:
		return contracts.SignalStrongBuy
	case score >= 1:
		return contracts.SignalBuy
	case score == 0:
		return contracts.SignalNeutral
	case score >= -2:
		return contracts.SignalSell
	default:
		return contracts.SignalDanger
	}
}

// calculateRSI is Wilder's RSI over closes in ascending order
func calculateRSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50.0 // Neutral
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

func closesOf(bars []contracts.PriceBar) []float64 {
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 && !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0) {
			closes = append(closes, b.Close)
		}
	}
	return closes
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the n-1 denominator
func sampleStdDev(values []float64, mu float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
