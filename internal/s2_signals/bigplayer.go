package s2_signals

import (
	"github.com/fuyaseru/brain/internal/screenconfig"
)

const okuUnit = 100_000_000 // 1億

// BigPlayerScorer estimates institutional interest from size, PBR and volume spikes
type BigPlayerScorer struct {
	policy screenconfig.BigPlayer
}

// NewBigPlayerScorer creates a new big player scorer
func NewBigPlayerScorer(policy screenconfig.BigPlayer) *BigPlayerScorer {
	return &BigPlayerScorer{policy: policy}
}

// Score adds the market-cap band, the PBR<1 bonus and the first matching
// volume tier, capped at MaxScore. Absent inputs contribute nothing.
func (s *BigPlayerScorer) Score(marketCap, pbr, volumeRatio *float64) int {
	score := 0

	if marketCap != nil {
		oku := *marketCap / okuUnit
		for _, band := range s.policy.CapBands {
			if band.Contains(oku) {
				score += band.Points
				break
			}
		}
	}

	if pbr != nil && *pbr > 0 && *pbr < 1 {
		score += s.policy.PBRBonus
	}

	if volumeRatio != nil {
		for _, tier := range s.policy.VolumeTiers {
			if *volumeRatio >= tier.MinRatio {
				score += tier.Points
				break
			}
		}
	}

	if score > s.policy.MaxScore {
		score = s.policy.MaxScore
	}
	return score
}
