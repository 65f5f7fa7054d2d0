package screenconfig

// Policy holds every heuristic constant of the screening pipeline.
// Defaults reproduce the published behaviour; a YAML file may override them.
type Policy struct {
	Valuation  Valuation  `yaml:"valuation" json:"valuation"`
	Quality    Quality    `yaml:"quality" json:"quality"`
	BigPlayer  BigPlayer  `yaml:"big_player" json:"big_player"`
	Technical  Technical  `yaml:"technical" json:"technical"`
	VolumeWall VolumeWall `yaml:"volume_wall" json:"volume_wall"`
}

// Valuation 理論株価 (Graham number)
type Valuation struct {
	GrahamMultiplier float64 `yaml:"graham_multiplier" json:"graham_multiplier" default:"22.5" validate:"gt=0"`
	// RatingThresholds[i] is the minimum upside % for rating 5-i; below the last → 0
	RatingThresholds []float64 `yaml:"rating_thresholds" json:"rating_thresholds" default:"[50,30,15,5,0]" validate:"len=5"`
}

// Quality 財務天気 (ROE/ROA)
type Quality struct {
	ExcellentROE float64 `yaml:"excellent_roe" json:"excellent_roe" default:"0.08" validate:"gt=0,lt=1"`
	ExcellentROA float64 `yaml:"excellent_roa" json:"excellent_roa" default:"0.05" validate:"gt=0,lt=1"`
}

// BigPlayer 大口介入スコア
type BigPlayer struct {
	CapBands    []CapBand    `yaml:"cap_bands" json:"cap_bands" validate:"min=1,dive"`
	PBRBonus    int          `yaml:"pbr_bonus" json:"pbr_bonus" default:"20" validate:"gte=0"`
	VolumeTiers []VolumeTier `yaml:"volume_tiers" json:"volume_tiers" validate:"min=1,dive"`
	MaxScore    int          `yaml:"max_score" json:"max_score" default:"95" validate:"gt=0,lte=100"`
}

// CapBand awards Points when market cap (in 億円) falls inside the band.
// MinInclusive / MaxInclusive select closed or open ends.
type CapBand struct {
	MinOku       float64 `yaml:"min_oku" json:"min_oku" validate:"gte=0"`
	MaxOku       float64 `yaml:"max_oku" json:"max_oku" validate:"gtfield=MinOku"`
	MinInclusive bool    `yaml:"min_inclusive" json:"min_inclusive"`
	MaxInclusive bool    `yaml:"max_inclusive" json:"max_inclusive"`
	Points       int     `yaml:"points" json:"points" validate:"gte=0"`
}

// Contains reports whether oku lies inside the band
func (b CapBand) Contains(oku float64) bool {
	lowOK := oku > b.MinOku || (b.MinInclusive && oku == b.MinOku)
	highOK := oku < b.MaxOku || (b.MaxInclusive && oku == b.MaxOku)
	return lowOK && highOK
}

// VolumeTier awards Points when today's volume / average volume >= MinRatio
type VolumeTier struct {
	MinRatio float64 `yaml:"min_ratio" json:"min_ratio" validate:"gt=0"`
	Points   int     `yaml:"points" json:"points" validate:"gte=0"`
}

// SetDefaults fills the band tables when the file leaves them out
func (b *BigPlayer) SetDefaults() {
	if len(b.CapBands) == 0 {
		b.CapBands = []CapBand{
			{MinOku: 1000, MaxOku: 2000, MinInclusive: true, MaxInclusive: true, Points: 50},
			{MinOku: 500, MaxOku: 1000, MinInclusive: true, Points: 40},
			{MinOku: 2000, MaxOku: 3000, MaxInclusive: true, Points: 35},
			{MinOku: 300, MaxOku: 500, MinInclusive: true, Points: 20},
			{MinOku: 3000, MaxOku: 10000, MaxInclusive: true, Points: 10},
		}
	}
	if len(b.VolumeTiers) == 0 {
		b.VolumeTiers = []VolumeTier{
			{MinRatio: 3.0, Points: 30},
			{MinRatio: 2.0, Points: 20},
			{MinRatio: 1.5, Points: 10},
		}
	}
}

// Technical テクニカル判定
type Technical struct {
	MinHistory     int     `yaml:"min_history" json:"min_history" default:"75" validate:"gte=1"` // needs strictly more closes than this
	RSIPeriod      int     `yaml:"rsi_period" json:"rsi_period" default:"14" validate:"gte=2"`
	RSIStrongLow   float64 `yaml:"rsi_strong_low" json:"rsi_strong_low" default:"30"`
	RSILow         float64 `yaml:"rsi_low" json:"rsi_low" default:"40"`
	RSIHigh        float64 `yaml:"rsi_high" json:"rsi_high" default:"60"`
	RSIStrongHigh  float64 `yaml:"rsi_strong_high" json:"rsi_strong_high" default:"70"`
	MAPeriod       int     `yaml:"ma_period" json:"ma_period" default:"75" validate:"gte=2"`
	BollingerLen   int     `yaml:"bollinger_period" json:"bollinger_period" default:"20" validate:"gte=2"`
	BollingerSigma float64 `yaml:"bollinger_sigma" json:"bollinger_sigma" default:"2" validate:"gt=0"`
}

// VolumeWall 価格帯別出来高
type VolumeWall struct {
	Bins          int     `yaml:"bins" json:"bins" default:"50" validate:"gte=2,lte=1000"`
	RangePadding  float64 `yaml:"range_padding" json:"range_padding" default:"0.1" validate:"gte=0,lt=1"`
	ContestMargin float64 `yaml:"contest_margin" json:"contest_margin" default:"0.03" validate:"gt=0,lt=1"`
	MinDays       int     `yaml:"min_days" json:"min_days" default:"3" validate:"gte=1"`
}
