package report

import (
	"github.com/fuyaseru/brain/internal/contracts"
)

// Headers are the table column titles, in Row.Cells order
var Headers = []string{
	"証券コード", "銘柄名", "現在値", "理論株価", "上昇余地（円）", "上昇余地（％）", "評価",
	"今買いか？", "需給の壁", "配当利回り", "年間配当", "事業の勢い", "業績", "時価総額",
	"大口介入期待度", "根拠【グレアム数】",
}

// Row is one display-ready table line
type Row struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	FairValue     string `json:"fair_value"`
	UpsideYen     string `json:"upside_yen"`
	UpsidePct     string `json:"upside_pct"`
	Stars         string `json:"stars"`
	Signal        string `json:"signal"`
	VolumeWall    string `json:"volume_wall"`
	DividendYield string `json:"dividend_yield"`
	Dividend      string `json:"dividend"`
	Growth        string `json:"growth"`
	Weather       string `json:"weather"`
	MarketCap     string `json:"market_cap"`
	BigPlayer     string `json:"big_player"`
	Note          string `json:"note"`
}

// Cells returns the row in Headers order
func (r Row) Cells() []string {
	return []string{
		r.Code, r.Name, r.Price, r.FairValue, r.UpsideYen, r.UpsidePct, r.Stars,
		r.Signal, r.VolumeWall, r.DividendYield, r.Dividend, r.Growth, r.Weather, r.MarketCap,
		r.BigPlayer, r.Note,
	}
}

// NewRow formats one result
func NewRow(r contracts.TickerResult) Row {
	var upsideYen *float64
	if r.FairValue != nil && r.Price != nil {
		upsideYen = contracts.Float64(*r.FairValue - *r.Price)
	}

	stars := Stars(r.Rating)
	if r.Status == contracts.StatusNotFound {
		stars = Placeholder
	}

	return Row{
		Code:          r.Code,
		Name:          r.Name,
		Price:         Yen(r.Price),
		FairValue:     Yen(r.FairValue),
		UpsideYen:     YenDiff(upsideYen),
		UpsidePct:     Pct(r.UpsidePct),
		Stars:         stars,
		Signal:        SignalLabel(r.Signal),
		VolumeWall:    WallLabel(r.VolumeWall),
		DividendYield: Pct(r.DividendYieldPct),
		Dividend:      Yen(r.DividendAmount),
		Growth:        Pct(r.RevenueGrowthPct),
		Weather:       WeatherLabel(r.Weather),
		MarketCap:     MarketCap(r.MarketCap),
		BigPlayer:     BigPlayer(r.BigPlayerScore),
		Note:          r.Note,
	}
}

// Rows formats a bundle in input-code order
func Rows(b *contracts.Bundle) []Row {
	if b == nil {
		return []Row{}
	}
	ordered := b.Ordered()
	rows := make([]Row, 0, len(ordered))
	for _, r := range ordered {
		rows = append(rows, NewRow(r))
	}
	return rows
}
