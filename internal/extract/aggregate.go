package extract

import (
	"sort"
	"sync"

	"github.com/purehate/wordUP/internal/normalize"
	"github.com/purehate/wordUP/internal/stats"
)

// Aggregate is the run-wide accumulator written by concurrent fetch tasks.
// Each Merge is one exclusive region; readers run after all fetches joined.
type Aggregate struct {
	mu       sync.Mutex
	norm     *normalize.Normalizer
	table    *stats.Table
	pages    [][]string
	pageURLs []string
	vocab    map[string]bool
	emails   map[string]bool
	metadata map[string]bool
	raw      int
}

// NewAggregate creates an accumulator normalizing with n
func NewAggregate(n *normalize.Normalizer) *Aggregate {
	return &Aggregate{
		norm:     n,
		table:    stats.NewTable(),
		vocab:    make(map[string]bool),
		emails:   make(map[string]bool),
		metadata: make(map[string]bool),
	}
}

// Merge folds one page record into the aggregate. Visible text keeps its page
// order for grouping; attribute tokens count toward statistics and the
// metadata set.
func (a *Aggregate) Merge(rec Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.raw += len(rec.Text) + len(rec.Attributes)

	page := a.normalizeAll(rec.Text)
	attrs := a.normalizeAll(rec.Attributes)
	for _, t := range attrs {
		a.metadata[t] = true
	}

	counted := append(append(make([]string, 0, len(page)+len(attrs)), page...), attrs...)
	for _, t := range counted {
		a.vocab[t] = true
	}
	a.table.AddPage(counted)

	if len(page) > 0 {
		a.pages = append(a.pages, page)
		a.pageURLs = append(a.pageURLs, rec.URL)
	}
	for _, e := range rec.Emails {
		a.emails[e] = true
	}
}

func (a *Aggregate) normalizeAll(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if n, ok := a.norm.Token(t); ok {
			out = append(out, n)
		}
	}
	return out
}

// Vocabulary returns the canonical token set, sorted
func (a *Aggregate) Vocabulary() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return setToSorted(a.vocab)
}

// Pages returns the normalized token sequence of every page, ordered by URL
func (a *Aggregate) Pages() [][]string {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := make([]int, len(a.pages))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return a.pageURLs[idx[i]] < a.pageURLs[idx[j]] })

	out := make([][]string, len(idx))
	for i, k := range idx {
		out[i] = a.pages[k]
	}
	return out
}

// Emails returns the collected addresses, sorted
func (a *Aggregate) Emails() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return setToSorted(a.emails)
}

// Metadata returns the normalized attribute tokens, sorted
func (a *Aggregate) Metadata() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return setToSorted(a.metadata)
}

// Table returns the frequency table. Call only after all merges finished.
func (a *Aggregate) Table() *stats.Table {
	return a.table
}

// RawTokens returns the number of tokens seen before normalization
func (a *Aggregate) RawTokens() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.raw
}

func setToSorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
