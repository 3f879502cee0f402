// Package stats keeps token frequencies and a TF-IDF importance score.
package stats

import (
	"math"
	"sort"
)

// Entry is one ranked token
type Entry struct {
	Word  string  `json:"word"`
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	Score float64 `json:"score"`
}

// Table accumulates counts page by page. It is not safe for concurrent use;
// callers serialize AddPage.
type Table struct {
	counts map[string]int
	df     map[string]int
	order  []string // first-seen, for stable ties
	total  int
	pages  int
}

// NewTable creates an empty frequency table
func NewTable() *Table {
	return &Table{
		counts: make(map[string]int),
		df:     make(map[string]int),
	}
}

// AddPage adds one page's tokens: every occurrence increments the count and
// each distinct token increments its page frequency once.
func (t *Table) AddPage(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	t.pages++
	onPage := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if _, ok := t.counts[tok]; !ok {
			t.order = append(t.order, tok)
		}
		t.counts[tok]++
		t.total++
		if !onPage[tok] {
			onPage[tok] = true
			t.df[tok]++
		}
	}
}

// Count returns the occurrences of tok
func (t *Table) Count(tok string) int { return t.counts[tok] }

// Total returns the number of token occurrences seen
func (t *Table) Total() int { return t.total }

// Pages returns the number of non-empty pages added
func (t *Table) Pages() int { return t.pages }

// Unique returns the number of distinct tokens
func (t *Table) Unique() int { return len(t.counts) }

// Score is tf x idf with tf = count/total and the smoothed
// idf = ln((1+N)/(1+df)) + 1, N being the page count.
func (t *Table) Score(tok string) float64 {
	c := t.counts[tok]
	if c == 0 || t.total == 0 {
		return 0
	}
	tf := float64(c) / float64(t.total)
	idf := math.Log(float64(1+t.pages)/float64(1+t.df[tok])) + 1
	return tf * idf
}

func (t *Table) entry(tok string) Entry {
	return Entry{Word: tok, Count: t.counts[tok], Pages: t.df[tok], Score: t.Score(tok)}
}

func (t *Table) entries() []Entry {
	out := make([]Entry, len(t.order))
	for i, tok := range t.order {
		out[i] = t.entry(tok)
	}
	return out
}

// Top returns the n most frequent tokens, count desc then word asc.
// n <= 0 returns all.
func (t *Table) Top(n int) []Entry {
	all := t.entries()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Word < all[j].Word
	})
	return head(all, n)
}

// TopScored returns the n highest scoring tokens, score desc then word asc
func (t *Table) TopScored(n int) []Entry {
	all := t.entries()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Word < all[j].Word
	})
	return head(all, n)
}

// Ranked returns the words of TopScored(n) that keep returns true for
func (t *Table) Ranked(n int, keep func(string) bool) []string {
	var words []string
	for _, e := range t.TopScored(0) {
		if n > 0 && len(words) == n {
			break
		}
		if keep == nil || keep(e.Word) {
			words = append(words, e.Word)
		}
	}
	return words
}

func head(all []Entry, n int) []Entry {
	if n > 0 && len(all) > n {
		return all[:n]
	}
	return all
}

// Snapshot is the serializable state of a table
type Snapshot struct {
	Pages  int     `json:"pages"`
	Total  int     `json:"total_tokens"`
	Unique int     `json:"unique_tokens"`
	Top    []Entry `json:"top"`
}

// Snapshot returns the counters and the top n tokens by frequency
func (t *Table) Snapshot(n int) Snapshot {
	return Snapshot{
		Pages:  t.pages,
		Total:  t.total,
		Unique: len(t.counts),
		Top:    t.Top(n),
	}
}
