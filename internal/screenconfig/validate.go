package screenconfig

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError 検証失敗
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks tag constraints, then the ordering rules tags cannot express
func Validate(p *Policy) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return ValidationError{fe.Namespace(), fmt.Sprintf("failed %q (param %q)", fe.Tag(), fe.Param())}
		}
		return err
	}

	// rating thresholds strictly descending
	th := p.Valuation.RatingThresholds
	for i := 1; i < len(th); i++ {
		if th[i] >= th[i-1] {
			return ValidationError{"valuation.rating_thresholds", "must be strictly descending"}
		}
	}

	// volume tiers strictly descending so the first match is the largest bonus
	tiers := p.BigPlayer.VolumeTiers
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinRatio >= tiers[i-1].MinRatio {
			return ValidationError{"big_player.volume_tiers", "min_ratio must be strictly descending"}
		}
	}

	t := p.Technical
	if !(t.RSIStrongLow < t.RSILow && t.RSILow < t.RSIHigh && t.RSIHigh < t.RSIStrongHigh) {
		return ValidationError{"technical", "rsi bands must satisfy strong_low < low < high < strong_high"}
	}
	if t.RSIStrongLow < 0 || t.RSIStrongHigh > 100 {
		return ValidationError{"technical", "rsi bands must lie within [0, 100]"}
	}
	if t.MinHistory < t.MAPeriod || t.MinHistory < t.BollingerLen || t.MinHistory <= t.RSIPeriod {
		return ValidationError{"technical.min_history", "must cover ma_period, bollinger_period and rsi_period"}
	}

	return nil
}
