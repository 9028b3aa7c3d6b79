package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalizeText applies NFKC normalization and trims whitespace. NFKC folds
// full-width/half-width variants, so OCR text from Japanese packaging
// (ﾄﾏﾄ vs トマト, full-width digits) compares consistently against the
// catalog tables.
func normalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return strings.TrimSpace(normed)
}

// containsJapanese reports whether s has at least one hiragana, katakana,
// or CJK ideograph rune.
func containsJapanese(s string) bool {
	for _, r := range s {
		if isJapaneseRune(r) {
			return true
		}
	}
	return false
}

func isJapaneseRune(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x309F: // hiragana
		return true
	case r >= 0x30A0 && r <= 0x30FF: // katakana
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
		return true
	case r == 'ー' || r == '々':
		return true
	}
	return false
}

// foreignScriptRatio returns the fraction of runes in s that are neither
// ASCII nor Japanese script. Whitespace is ignored.
func foreignScriptRatio(s string) float64 {
	total := 0
	foreign := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r > unicode.MaxASCII && !isJapaneseRune(r) {
			foreign++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(foreign) / float64(total)
}
