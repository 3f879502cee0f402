// Package markov trains an order-k transition model on the vocabulary and
// samples new words from it.
package markov

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrDegenerate reports a model with no transitions
var ErrDegenerate = errors.New("markov model has no transitions")

const (
	startSymbol = "\x02"
	endSymbol   = "\x03"
	keySep      = "\x00"
)

// BudgetFactor is the default attempt budget per requested word
const BudgetFactor = 20

// dist is the next-symbol distribution of one context, kept in
// first-observation order so weighted sampling is reproducible.
type dist struct {
	symbols []string
	counts  []int
	index   map[string]int
	total   int
}

func (d *dist) add(sym string) {
	i, ok := d.index[sym]
	if !ok {
		i = len(d.symbols)
		d.index[sym] = i
		d.symbols = append(d.symbols, sym)
		d.counts = append(d.counts, 0)
	}
	d.counts[i]++
	d.total++
}

func (d *dist) sample(rng *rand.Rand) string {
	r := rng.Intn(d.total)
	for i, c := range d.counts {
		if r < c {
			return d.symbols[i]
		}
		r -= c
	}
	return endSymbol
}

// Model maps a context of exactly Order symbols to next-symbol counts.
// Contexts at the start of a sequence are padded with the start sentinel.
type Model struct {
	Order int
	trans map[string]*dist
}

func newModel(order int) *Model {
	if order < 1 {
		order = 1
	}
	return &Model{Order: order, trans: make(map[string]*dist)}
}

// Train builds a character-level model. The vocabulary is sorted first so the
// model does not depend on the order words were discovered in.
func Train(vocab []string, order int) *Model {
	words := append([]string(nil), vocab...)
	sort.Strings(words)

	m := newModel(order)
	for _, w := range words {
		if w == "" {
			continue
		}
		syms := make([]string, 0, len(w))
		for _, r := range w {
			syms = append(syms, string(r))
		}
		m.addSequence(syms)
	}
	return m
}

// TrainSequences builds a word-level model over token sequences (one per page).
// Sequences are sorted by content before training.
func TrainSequences(seqs [][]string, order int) *Model {
	sorted := make([][]string, 0, len(seqs))
	for _, s := range seqs {
		if len(s) > 0 {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return strings.Join(sorted[i], keySep) < strings.Join(sorted[j], keySep)
	})

	m := newModel(order)
	for _, s := range sorted {
		m.addSequence(s)
	}
	return m
}

func (m *Model) addSequence(syms []string) {
	ctx := m.startContext()
	for i := 0; i <= len(syms); i++ {
		s := endSymbol
		if i < len(syms) {
			s = syms[i]
		}
		key := strings.Join(ctx, keySep)
		d, ok := m.trans[key]
		if !ok {
			d = &dist{index: make(map[string]int)}
			m.trans[key] = d
		}
		d.add(s)
		ctx = append(ctx[1:], s)
	}
}

func (m *Model) startContext() []string {
	ctx := make([]string, m.Order)
	for i := range ctx {
		ctx[i] = startSymbol
	}
	return ctx
}

// Contexts returns the number of distinct contexts
func (m *Model) Contexts() int { return len(m.trans) }

// Counts returns the next-symbol counts observed after ctx. The end of a
// word is reported as "$end".
func (m *Model) Counts(ctx ...string) map[string]int {
	d, ok := m.trans[strings.Join(ctx, keySep)]
	if !ok {
		return nil
	}
	out := make(map[string]int, len(d.symbols))
	for i, s := range d.symbols {
		if s == endSymbol {
			s = "$end"
		}
		out[s] = d.counts[i]
	}
	return out
}

// Degenerate reports whether the model cannot generate anything
func (m *Model) Degenerate() bool { return len(m.trans) == 0 }

// Err returns ErrDegenerate for an empty model
func (m *Model) Err() error {
	if m.Degenerate() {
		return ErrDegenerate
	}
	return nil
}

// GenerateOptions bounds a generation run
type GenerateOptions struct {
	Target  int
	MinLen  int
	MaxLen  int
	Budget  int             // attempts; 0 means BudgetFactor x Target
	Exclude map[string]bool // words that never count (the vocabulary)
}

// Generate samples words until Target distinct new words are found or the
// attempt budget runs out, in which case the partial set is returned.
// Words are returned in generation order.
func (m *Model) Generate(rng *rand.Rand, opts GenerateOptions) []string {
	if opts.Target <= 0 || m.Degenerate() {
		return nil
	}
	budget := opts.Budget
	if budget <= 0 {
		budget = BudgetFactor * opts.Target
	}
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 50
	}

	seen := make(map[string]bool)
	var out []string
	for attempt := 0; attempt < budget && len(out) < opts.Target; attempt++ {
		w := m.sampleWord(rng, maxLen)
		n := utf8.RuneCountInString(w)
		if n < opts.MinLen || n > maxLen || n == 0 {
			continue
		}
		if opts.Exclude[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// sampleWord walks the chain from the start context until the end symbol or
// maxLen runes. Word-level symbols are concatenated.
func (m *Model) sampleWord(rng *rand.Rand, maxLen int) string {
	ctx := m.startContext()
	var b strings.Builder
	length := 0
	for steps := 0; steps < maxLen; steps++ {
		d, ok := m.trans[strings.Join(ctx, keySep)]
		if !ok || d.total == 0 {
			break
		}
		sym := d.sample(rng)
		if sym == endSymbol {
			break
		}
		b.WriteString(sym)
		length += utf8.RuneCountInString(sym)
		if length >= maxLen {
			break
		}
		ctx = append(ctx[1:], sym)
	}
	return b.String()
}
