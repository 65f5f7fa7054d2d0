package s2_signals

import (
	"context"
	"fmt"
	"math"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/screenconfig"
	"github.com/fuyaseru/brain/pkg/logger"
)

// VolumeProfileAnalyzer finds the heaviest traded price band above and below price
// ⭐ SSOT: 価格帯別出来高の壁判定はここだけ
type VolumeProfileAnalyzer struct {
	policy screenconfig.VolumeWall
	logger *logger.Logger
}

// NewVolumeProfileAnalyzer creates a new volume profile analyzer
func NewVolumeProfileAnalyzer(policy screenconfig.VolumeWall, log *logger.Logger) *VolumeProfileAnalyzer {
	return &VolumeProfileAnalyzer{
		policy: policy,
		logger: log,
	}
}

type profileBin struct {
	mid    float64
	volume float64
}

// Analyze bins daily closes by price and classifies the walls around price
func (a *VolumeProfileAnalyzer) Analyze(ctx context.Context, code string, bars []contracts.PriceBar, price float64) contracts.VolumeWall {
	valid := make([]contracts.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 && !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0) && b.Volume >= 0 {
			valid = append(valid, b)
		}
	}

	if price <= 0 || len(valid) < a.policy.MinDays || flat(valid) {
		return degenerateWall()
	}

	bins := a.buildProfile(valid, price)
	upper, lower := pickWalls(bins, price)

	wall := contracts.VolumeWall{Upper: upper, Lower: lower}
	switch {
	case upper != nil && (*upper-price)/price <= a.policy.ContestMargin:
		wall.State = contracts.WallUpperContested
		wall.Description = fmt.Sprintf("上値壁 %s 攻防中", yen(*upper))
	case lower != nil && (price-*lower)/price <= a.policy.ContestMargin:
		wall.State = contracts.WallLowerContested
		wall.Description = fmt.Sprintf("下値壁 %s 攻防中", yen(*lower))
	default:
		wall.State = contracts.WallRange
		wall.Description = fmt.Sprintf("上値壁 %s / 下値壁 %s", wallText(upper, "天井なし"), wallText(lower, "底なし"))
	}

	a.logger.WithFields(map[string]interface{}{
		"code":  code,
		"price": price,
		"state": wall.State,
		"days":  len(valid),
	}).Debug("Calculated volume wall")

	return wall
}

// buildProfile spreads daily volume over equal-width bins by close price
func (a *VolumeProfileAnalyzer) buildProfile(bars []contracts.PriceBar, price float64) []profileBin {
	low := price * (1 - a.policy.RangePadding)
	high := price * (1 + a.policy.RangePadding)
	for _, b := range bars {
		l, h := b.Low, b.High
		if l <= 0 {
			l = b.Close
		}
		if h <= 0 {
			h = b.Close
		}
		low = math.Min(low, math.Min(l, b.Close))
		high = math.Max(high, math.Max(h, b.Close))
	}

	n := a.policy.Bins
	width := (high - low) / float64(n)
	bins := make([]profileBin, n)
	for i := range bins {
		bins[i].mid = low + (float64(i)+0.5)*width
	}

	for _, b := range bars {
		idx := int((b.Close - low) / width)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].volume += b.Volume
	}

	return bins
}

// pickWalls returns the max-volume bin midpoint on each side of price.
// A midpoint equal to price counts as below. Ties go to the bin nearer price.
func pickWalls(bins []profileBin, price float64) (upper, lower *float64) {
	var best [2]*profileBin // 0: above, 1: below

	for i := range bins {
		b := &bins[i]
		if b.volume <= 0 {
			continue
		}
		side := 1
		if b.mid > price {
			side = 0
		}
		cur := best[side]
		if cur == nil || b.volume > cur.volume ||
			(b.volume == cur.volume && math.Abs(b.mid-price) < math.Abs(cur.mid-price)) {
			best[side] = b
		}
	}

	if best[0] != nil {
		upper = contracts.Float64(best[0].mid)
	}
	if best[1] != nil {
		lower = contracts.Float64(best[1].mid)
	}
	return upper, lower
}

func flat(bars []contracts.PriceBar) bool {
	first := bars[0].Close
	for _, b := range bars[1:] {
		if b.Close != first {
			return false
		}
	}
	return true
}

func degenerateWall() contracts.VolumeWall {
	return contracts.VolumeWall{
		State:       contracts.WallDegenerate,
		Description: "壁判定不可（データ不足）",
	}
}

func wallText(v *float64, missing string) string {
	if v == nil {
		return missing
	}
	return yen(*v)
}

func yen(v float64) string {
	return fmt.Sprintf("%.0f円", math.Round(v))
}
