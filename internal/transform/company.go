package transform

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// BusinessSuffixes are appended to the company stem
var BusinessSuffixes = []string{
	"inc", "corp", "llc", "ltd", "co", "group", "systems", "solutions", "services",
	"technologies", "software", "hardware", "networks", "security", "consulting",
	"partners", "associates", "enterprises", "ventures", "holdings", "international",
	"global", "worldwide", "america", "usa", "canada", "europe", "asia", "pacific",
}

// BusinessPrefixes are prepended to the company stem
var BusinessPrefixes = []string{
	"new", "advanced", "premium", "pro", "ultra", "mega", "super", "max", "plus",
	"elite", "gold", "silver", "platinum", "diamond", "titanium", "steel", "iron",
}

var companySeparators = []string{"", "-", "_"}

// YearRange returns the years from back years ago to ahead years from now
func YearRange(now time.Time, back, ahead int) []int {
	y := now.Year()
	years := make([]int, 0, back+ahead+1)
	for i := y - back; i <= y+ahead; i++ {
		years = append(years, i)
	}
	return years
}

// Years is the range used for company variations: five years back, one ahead
func Years(now time.Time) []int {
	return YearRange(now, 5, 1)
}

// CompanyStem lowercases a company name and keeps only letters and digits
// ("Trusted Sec, Inc." -> "trustedsecinc").
func CompanyStem(company string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(company) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CompanyVariations combines the company stem with business suffixes,
// prefixes and years using each separator. The stem itself comes first.
func CompanyVariations(company string, years []int) []string {
	stem := CompanyStem(company)
	if stem == "" {
		return nil
	}

	set := newOrderedSet()
	set.add(stem)
	for _, suffix := range BusinessSuffixes {
		for _, sep := range companySeparators {
			set.add(stem + sep + suffix)
		}
	}
	for _, prefix := range BusinessPrefixes {
		for _, sep := range companySeparators {
			set.add(prefix + sep + stem)
		}
	}
	for _, year := range years {
		for _, sep := range companySeparators {
			set.add(stem + sep + strconv.Itoa(year))
		}
	}
	return set.items
}

// orderedSet keeps first-insertion order
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(words ...string) {
	for _, w := range words {
		if w == "" || s.seen[w] {
			continue
		}
		s.seen[w] = true
		s.items = append(s.items, w)
	}
}
