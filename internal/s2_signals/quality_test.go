package s2_signals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/screenconfig"
)

func TestQualityClassify(t *testing.T) {
	c := NewQualityClassifier(screenconfig.Default().Quality)

	tests := []struct {
		name string
		roe  *float64
		roa  *float64
		want contracts.Weather
	}{
		{"no roe", nil, f(0.1), contracts.WeatherUnknown},
		{"loss", f(-0.02), f(0.01), contracts.WeatherLoss},
		{"excellent", f(0.12), f(0.06), contracts.WeatherExcellent},
		{"excellent at thresholds", f(0.08), f(0.05), contracts.WeatherExcellent},
		{"high roe low roa", f(0.15), f(0.02), contracts.WeatherAverage},
		{"high roe no roa", f(0.15), nil, contracts.WeatherAverage},
		{"zero roe", f(0), f(0), contracts.WeatherAverage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.roe, tt.roa))
		})
	}
}
