package s2_signals

import (
	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/screenconfig"
)

// QualityClassifier derives the financial weather from ROE and ROA
type QualityClassifier struct {
	policy screenconfig.Quality
}

// NewQualityClassifier creates a new quality classifier
func NewQualityClassifier(policy screenconfig.Quality) *QualityClassifier {
	return &QualityClassifier{policy: policy}
}

// Classify: no ROE → Unknown, ROE < 0 → Loss, both thresholds met → Excellent
func (c *QualityClassifier) Classify(roe, roa *float64) contracts.Weather {
	switch {
	case roe == nil:
		return contracts.WeatherUnknown
	case *roe < 0:
		return contracts.WeatherLoss
	case roa != nil && *roe >= c.policy.ExcellentROE && *roa >= c.policy.ExcellentROA:
		return contracts.WeatherExcellent
	default:
		return contracts.WeatherAverage
	}
}
