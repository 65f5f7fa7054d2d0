package s1_universe

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// 投資信託・REIT 判別用の銘柄名パターン.
// Yahoo reports J-REITs as EQUITY with an English long name, so the English
// markers carry the check for most of them. ETF/ETN may follow digits (日経225ETF).
var fundNamePattern = regexp.MustCompile(`(?i)(投資法人|リート|ファンド|上場投信|投信|` +
	`investment corporation|exchange traded|\bfunds?\b|\breit\b|(?:\b|\d)et[fn]\b)`)

// fundQuoteTypes are provider quote types of basket instruments
var fundQuoteTypes = map[string]bool{
	"ETF":        true,
	"MUTUALFUND": true,
	"FUND":       true,
}

// IsFund reports whether the instrument is a fund, trust or REIT.
// Fair value is not applicable to these.
func IsFund(quoteType, name string) bool {
	if fundQuoteTypes[strings.ToUpper(strings.TrimSpace(quoteType))] {
		return true
	}
	return fundNamePattern.MatchString(norm.NFKC.String(name))
}

// ExclusionReason returns the note shown for an excluded instrument, or ""
func ExclusionReason(quoteType, name string) string {
	if !IsFund(quoteType, name) {
		return ""
	}
	return "投資信託・REITのため理論株価の対象外"
}
