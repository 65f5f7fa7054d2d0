package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fuyaseru/brain/internal/contracts"
)

// Placeholder is shown for any value that could not be determined
const Placeholder = "—"

var printer = message.NewPrinter(language.Japanese)

func missing(v *float64) bool {
	return v == nil || math.IsNaN(*v) || math.IsInf(*v, 0)
}

// Yen renders "1,234円"
func Yen(v *float64) string {
	if missing(v) {
		return Placeholder
	}
	return printer.Sprintf("%.0f円", *v)
}

// YenDiff renders "+500円" or "▲ 500円"
func YenDiff(v *float64) string {
	if missing(v) {
		return Placeholder
	}
	if *v >= 0 {
		return printer.Sprintf("+%.0f円", *v)
	}
	return printer.Sprintf("▲ %.0f円", -*v)
}

// Pct renders a signed percentage with two decimals
func Pct(v *float64) string {
	if missing(v) {
		return Placeholder
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

// MarketCap renders 兆円 / 億円 units
func MarketCap(v *float64) string {
	if missing(v) {
		return Placeholder
	}
	switch {
	case *v >= 1e12:
		return fmt.Sprintf("%.2f兆円", *v/1e12)
	case *v >= 1e8:
		return printer.Sprintf("%.0f億円", *v/1e8)
	default:
		return Yen(v)
	}
}

// Stars renders a 0..5 rating as filled/empty stars
func Stars(rating *int) string {
	if rating == nil {
		return Placeholder
	}
	n := min(max(*rating, 0), 5)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// BigPlayerIcon: 🔥 >= 80, ⚡ >= 60, 👀 >= 40
func BigPlayerIcon(score int) string {
	switch {
	case score >= 80:
		return "🔥"
	case score >= 60:
		return "⚡"
	case score >= 40:
		return "👀"
	default:
		return ""
	}
}

// BigPlayer renders the score with its icon, e.g. "🔥 80%"
func BigPlayer(score *int) string {
	if score == nil {
		return Placeholder
	}
	if icon := BigPlayerIcon(*score); icon != "" {
		return fmt.Sprintf("%s %d%%", icon, *score)
	}
	return fmt.Sprintf("%d%%", *score)
}

var weatherLabels = map[contracts.Weather]string{
	contracts.WeatherExcellent: "☀（優良）",
	contracts.WeatherAverage:   "☁（普通）",
	contracts.WeatherLoss:      "☔（赤字）",
}

// WeatherLabel renders the financial-health icon
func WeatherLabel(w *contracts.Weather) string {
	if w == nil {
		return Placeholder
	}
	if label, ok := weatherLabels[*w]; ok {
		return label
	}
	return Placeholder
}

var signalLabels = map[contracts.Signal]string{
	contracts.SignalStrongBuy: "↑◎ 激熱",
	contracts.SignalBuy:       "↗〇 買い",
	contracts.SignalNeutral:   "→△ 様子見",
	contracts.SignalSell:      "↘▲ 売り",
	contracts.SignalDanger:    "↓✖ 危険",
}

// SignalLabel renders the arrow marker of a technical signal
func SignalLabel(s *contracts.Signal) string {
	if s == nil {
		return Placeholder
	}
	if label, ok := signalLabels[*s]; ok {
		return label
	}
	return Placeholder
}

// WallLabel renders the volume wall description
func WallLabel(w *contracts.VolumeWall) string {
	if w == nil || w.Description == "" {
		return Placeholder
	}
	switch w.State {
	case contracts.WallUpperContested, contracts.WallLowerContested:
		return "🔥 " + w.Description
	default:
		return w.Description
	}
}

// ETA is the expected wall time of an uncached run over n codes
func ETA(n int, perTicker time.Duration) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * perTicker
}

// ETAText renders "約45秒" or "約2分30秒"
func ETAText(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 60 {
		return fmt.Sprintf("約%d秒", secs)
	}
	if secs%60 == 0 {
		return fmt.Sprintf("約%d分", secs/60)
	}
	return fmt.Sprintf("約%d分%d秒", secs/60, secs%60)
}
