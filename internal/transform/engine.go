package transform

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/purehate/wordUP/internal/config"
)

// DefaultTopK bounds the tokens used for permutation
const DefaultTopK = 40

// Engine builds the comprehensive set from the vocabulary
type Engine struct {
	MinLen, MaxLen int
	LeetMode       string
	Affixes        bool
	GroupSize      int
	TopK           int
	Company        string
	Now            func() time.Time
}

// NewEngine creates an engine from the run configuration
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		MinLen:    cfg.MinWordLength,
		MaxLen:    cfg.MaxWordLength,
		LeetMode:  cfg.LeetMode,
		Affixes:   cfg.Affixes,
		GroupSize: cfg.GroupSize,
		TopK:      DefaultTopK,
		Company:   cfg.CompanyName,
		Now:       time.Now,
	}
}

// Output holds the comprehensive set and the space-joined group phrases
type Output struct {
	Comprehensive []string
	Groups        []string
}

// Comprehensive merges the vocabulary with every enabled transformation.
// ranked is the vocabulary ordered by importance; pages are the per-page
// token sequences used for grouping. All outputs are length filtered.
func (e *Engine) Comprehensive(vocab []string, pages [][]string, ranked []string) Output {
	now := e.Now()
	set := newOrderedSet()
	keep := func(words ...string) {
		for _, w := range words {
			if e.inBounds(w) {
				set.add(w)
			}
		}
	}

	keep(vocab...)
	if e.Company != "" {
		keep(CompanyVariations(e.Company, Years(now))...)
	}

	affixYears := YearRange(now, 1, 1)
	for _, w := range vocab {
		keep(Leet(w, e.LeetMode)...)
		if e.Affixes {
			keep(Affix(w, affixYears)...)
		}
	}

	var groups []string
	if e.GroupSize >= 2 {
		keep(Permute(ranked, e.TopK)...)

		for _, g := range Groups(pages, e.GroupSize) {
			if e.inBounds(g) {
				groups = append(groups, g)
			}
			keep(strings.ReplaceAll(g, " ", ""))
		}
	}

	return Output{Comprehensive: set.items, Groups: groups}
}

func (e *Engine) inBounds(w string) bool {
	n := utf8.RuneCountInString(w)
	return n >= e.MinLen && n <= e.MaxLen
}
