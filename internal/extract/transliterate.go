package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// umlauts are expanded before diacritics are stripped so "müller" becomes
// "mueller" rather than "muller".
var umlauts = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue", "ẞ", "SS",
	"æ", "ae", "Æ", "Ae", "œ", "oe", "Œ", "Oe",
	"ø", "oe", "Ø", "Oe", "å", "aa", "Å", "Aa",
	"þ", "th", "Þ", "Th", "ð", "d", "Ð", "D",
	"ł", "l", "Ł", "L", "đ", "d", "Đ", "D",
)

// Transliterate maps umlauts and ligatures to ASCII digraphs and strips
// remaining combining marks (é -> e).
func Transliterate(s string) string {
	if isASCII(s) {
		return s
	}
	s = umlauts.Replace(s)
	t := xtransform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := xtransform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
