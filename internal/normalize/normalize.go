// Package normalize turns raw extracted tokens into the canonical vocabulary.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stoplist holds ultra-common words that never enter the vocabulary
var stoplist = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		the and for are but not you all can had her was one our out day get has him his
		how its may new now old see two who boy did man men put say she too use will with
		this that they have from been than what some time very when come here just like
		long make many over such take them well were good much also into more only other
		your which their there about would these could should where after before those
		https http www com html`) {
		stoplist[w] = true
	}
}

// IsStopword reports whether w is on the static stoplist
func IsStopword(w string) bool {
	return stoplist[w]
}

// Normalizer applies case folding, punctuation trimming, length bounds and the
// stoplist. It is not safe for concurrent use.
type Normalizer struct {
	Min, Max int
	lower    cases.Caser
}

// New creates a Normalizer for the inclusive length bounds [min, max]
func New(min, max int) *Normalizer {
	return &Normalizer{Min: min, Max: max, lower: cases.Lower(language.Und)}
}

func trimNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
}

// Token returns the canonical form of s and whether it belongs in the vocabulary
func (n *Normalizer) Token(s string) (string, bool) {
	t := strings.TrimFunc(n.lower.String(s), trimNoise)
	if t == "" {
		return "", false
	}
	if !n.InBounds(t) {
		return "", false
	}
	if !strings.ContainsFunc(t, unicode.IsLetter) {
		return "", false
	}
	if IsStopword(t) {
		return "", false
	}
	return t, true
}

// InBounds reports whether w has between Min and Max runes
func (n *Normalizer) InBounds(w string) bool {
	l := utf8.RuneCountInString(w)
	return l >= n.Min && l <= n.Max
}

// Vocabulary normalizes and deduplicates tokens, keeping first-seen order
func (n *Normalizer) Vocabulary(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, raw := range tokens {
		t, ok := n.Token(raw)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Filter keeps in-bounds, non-empty words and drops duplicates. Unlike
// Vocabulary it does not fold case or apply the stoplist.
func (n *Normalizer) Filter(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" || seen[w] || !n.InBounds(w) {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// Tokenize splits text on anything that is not a letter, digit or combining mark
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r))
	})
}
