// Package transform derives password candidates from the vocabulary with
// deterministic rules: leetspeak, affixes, separator permutations and
// in-context word groups.
package transform

import (
	"strconv"
	"strings"
)

// Leet modes, mirrored from config
const (
	LeetNone  = "none"
	LeetLight = "light"
	LeetFull  = "full"
)

type leetRule struct {
	from, to rune
}

// lightRules substitute vowels and s
var lightRules = []leetRule{
	{'a', '4'},
	{'e', '3'},
	{'i', '1'},
	{'o', '0'},
	{'s', '5'},
}

// fullRules add consonant substitutions
var fullRules = append(append([]leetRule{}, lightRules...),
	leetRule{'s', '$'},
	leetRule{'t', '7'},
)

func rulesFor(mode string) []leetRule {
	switch mode {
	case LeetLight:
		return lightRules
	case LeetFull:
		return fullRules
	}
	return nil
}

// Leet returns the substituted variants of word: one per applicable rule with
// every occurrence of that character replaced, then one with all rules applied
// at once (first replacement per character). The input word is not included.
func Leet(word, mode string) []string {
	rules := rulesFor(mode)
	if len(rules) == 0 {
		return nil
	}

	set := newOrderedSet()
	set.seen[word] = true

	all := make(map[rune]rune)
	for _, r := range rules {
		if !strings.ContainsRune(word, r.from) {
			continue
		}
		set.add(strings.ReplaceAll(word, string(r.from), string(r.to)))
		if _, ok := all[r.from]; !ok {
			all[r.from] = r.to
		}
	}
	if len(all) > 1 {
		set.add(strings.Map(func(c rune) rune {
			if to, ok := all[c]; ok {
				return to
			}
			return c
		}, word))
	}
	return set.items
}

var (
	affixSuffixes = []string{
		"s", "ing", "ed", "er", "est", "ly", "tion", "sion", "ness", "ment",
		"12", "123", "1234", "!", "01",
	}
	affixPrefixes = []string{"123", "my", "the"}
)

// Affix appends the common suffixes, single and doubled digits and years
// (four and two digit), and prepends the common prefixes and single digits.
func Affix(word string, years []int) []string {
	set := newOrderedSet()
	set.seen[word] = true
	for _, s := range affixSuffixes {
		set.add(word + s)
	}
	for d := 0; d <= 9; d++ {
		digit := strconv.Itoa(d)
		set.add(word+digit, digit+word, word+digit+digit)
	}
	for _, y := range years {
		full := strconv.Itoa(y)
		set.add(word+full, word+full[len(full)-2:])
	}
	for _, p := range affixPrefixes {
		set.add(p + word)
	}
	return set.items
}

// PermutationSeparators join permuted pairs
var PermutationSeparators = []string{"", ".", "_", "-"}

// Permute joins every ordered pair of distinct tokens from the first limit
// tokens with each separator.
func Permute(tokens []string, limit int) []string {
	if limit > 0 && len(tokens) > limit {
		tokens = tokens[:limit]
	}
	set := newOrderedSet()
	for i, a := range tokens {
		for j, b := range tokens {
			if i == j || a == b {
				continue
			}
			for _, sep := range PermutationSeparators {
				set.add(a + sep + b)
			}
		}
	}
	return set.items
}

// Groups slides a window of n over each page's token sequence and returns the
// space-joined phrases in first-seen order. n < 2 disables grouping.
func Groups(pages [][]string, n int) []string {
	if n < 2 {
		return nil
	}
	set := newOrderedSet()
	for _, page := range pages {
		for i := 0; i+n <= len(page); i++ {
			set.add(strings.Join(page[i:i+n], " "))
		}
	}
	return set.items
}
