package s1_universe

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// 東証コード: 4 桁数字、または 2024 年以降の英数字混在 (例: 130A)
var codePattern = regexp.MustCompile(`[0-9A-Z]{4}`)

// NormalizeCode canonicalizes one free-text token into a ticker code.
// Full-width characters are folded by NFKC, letters uppercased and spaces
// and commas removed before the first 4-character alphanumeric run is taken.
// Returns "" when the token holds no code.
// ⭐ SSOT: ticker codes are normalized here and nowhere else
func NormalizeCode(token string) string {
	s := strings.ToUpper(norm.NFKC.String(token))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' || r == '、' {
			return -1
		}
		return r
	}, s)
	return codePattern.FindString(s)
}

// ParseCodes splits free text on newlines, whitespace and commas,
// normalizes every entry and deduplicates in first-seen order.
func ParseCodes(text string) []string {
	// NFKC first so that full-width separators (，　) split like ASCII ones
	text = norm.NFKC.String(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '、' || r == ';'
	})
	return ParseCodeList(fields)
}

// ParseCodeList normalizes pre-split entries and deduplicates in first-seen order
func ParseCodeList(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	codes := make([]string, 0, len(entries))

	for _, entry := range entries {
		code := NormalizeCode(entry)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes
}
