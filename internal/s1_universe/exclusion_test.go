package s1_universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFund(t *testing.T) {
	tests := []struct {
		name      string
		quoteType string
		stockName string
		want      bool
	}{
		{"equity", "EQUITY", "トヨタ自動車", false},
		{"etf quote type", "ETF", "NEXT FUNDS TOPIX", true},
		{"mutual fund lowercase", "mutualfund", "", true},
		{"j-reit by name", "EQUITY", "日本ビルファンド投資法人", true},
		{"reit marker", "", "Japan REIT Inc.", true},
		{"katakana reit", "", "ヘルスケア＆メディカルリート", true},
		{"listed trust", "", "上場投信 日経225", true},
		{"etn by name", "", "NEXT NOTES 日経平均 ETN", true},
		{"full-width reit", "", "ＳＯＳＩＬＡ物流ＲＥＩＴ", true},
		{"etf after digits", "", "ＮＥＸＴ　ＦＵＮＤＳ　日経225ETF", true},
		{"english fund name", "EQUITY", "Nippon Building Fund Inc.", true},
		{"english investment corporation", "EQUITY", "Japan Real Estate Investment Corporation", true},
		{"english etf name", "EQUITY", "NEXT FUNDS TOPIX Exchange Traded Fund", true},
		{"english mixed case reit", "EQUITY", "Daiwa House Reit Investment Corporation", true},
		{"metropolitan fund", "EQUITY", "Japan Metropolitan Fund Investment Corporation", true},
		{"english equity", "EQUITY", "Toyota Motor Corporation", false},
		{"fund inside a word", "EQUITY", "Fundamental Holdings Co., Ltd.", false},
		{"betf is not etf", "EQUITY", "Betfair Japan K.K.", false},
		{"unknown everything", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFund(tt.quoteType, tt.stockName))
		})
	}
}

func TestExclusionReason(t *testing.T) {
	assert.Empty(t, ExclusionReason("EQUITY", "ソニーグループ"))
	assert.NotEmpty(t, ExclusionReason("ETF", ""))
}
