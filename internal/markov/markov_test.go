package markov

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

var vocab = []string{"acme", "trust", "security"}

func TestTrainContextCounts(t *testing.T) {
	m := Train(vocab, 2)
	got := m.Counts("a", "c")
	if !reflect.DeepEqual(got, map[string]int{"m": 1}) {
		t.Fatalf(`Counts("ac") = %v, want {m:1}`, got)
	}
	if got := m.Counts("m", "e"); got["$end"] != 1 {
		t.Fatalf(`Counts("me") = %v, want end of word`, got)
	}
	if got := m.Counts(startSymbol, startSymbol); got["a"] != 1 || got["t"] != 1 || got["s"] != 1 {
		t.Fatalf("start context = %v", got)
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	a := Train(vocab, 3)
	b := Train([]string{"security", "acme", "trust"}, 3)
	if a.Contexts() != b.Contexts() {
		t.Fatalf("contexts differ: %d vs %d", a.Contexts(), b.Contexts())
	}
	for key, d := range a.trans {
		other, ok := b.trans[key]
		if !ok || !reflect.DeepEqual(d.symbols, other.symbols) || !reflect.DeepEqual(d.counts, other.counts) {
			t.Fatalf("context %q differs", key)
		}
	}
}

func TestGenerateReproducibleWithSeed(t *testing.T) {
	m := Train(vocab, 2)
	opts := GenerateOptions{Target: 1, MinLen: 1, MaxLen: 50}
	first := m.Generate(rand.New(rand.NewSource(42)), opts)
	for i := 0; i < 5; i++ {
		again := m.Generate(rand.New(rand.NewSource(42)), opts)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: %v != %v", i, again, first)
		}
	}
}

func TestGenerateExcludesVocabulary(t *testing.T) {
	words := []string{"acme", "trust", "security", "secure", "remote", "access", "portal", "customer", "support", "account"}
	exclude := make(map[string]bool)
	for _, w := range words {
		exclude[w] = true
	}

	m := Train(words, 2)
	out := m.Generate(rand.New(rand.NewSource(7)), GenerateOptions{Target: 200, MinLen: 3, MaxLen: 12, Exclude: exclude})

	if len(out) > 200 {
		t.Fatalf("generated %d words, target 200", len(out))
	}
	seen := map[string]bool{}
	for _, w := range out {
		if exclude[w] {
			t.Errorf("generated vocabulary word %q", w)
		}
		if seen[w] {
			t.Errorf("duplicate %q", w)
		}
		seen[w] = true
		if n := utf8.RuneCountInString(w); n < 3 || n > 12 {
			t.Errorf("%q outside bounds", w)
		}
	}
}

func TestGenerateTerminatesOnDegenerateVocabulary(t *testing.T) {
	// the only reachable word is excluded, so every attempt is rejected
	m := Train([]string{"abc"}, 3)
	start := time.Now()
	out := m.Generate(rand.New(rand.NewSource(1)), GenerateOptions{
		Target:  1000,
		MinLen:  3,
		MaxLen:  50,
		Exclude: map[string]bool{"abc": true},
	})
	if len(out) != 0 {
		t.Fatalf("expected empty partial set, got %v", out)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("generation did not respect the attempt budget")
	}
}

func TestGeneratePartialSetOnBudget(t *testing.T) {
	m := Train([]string{"ab", "ac"}, 1)
	out := m.Generate(rand.New(rand.NewSource(3)), GenerateOptions{Target: 100, MinLen: 2, MaxLen: 2, Budget: 500})
	// only "ab" and "ac" can be generated
	if len(out) == 0 || len(out) >= 100 {
		t.Fatalf("expected a partial set, got %d words", len(out))
	}
}

func TestEmptyModel(t *testing.T) {
	m := Train(nil, 3)
	if !m.Degenerate() || m.Err() != ErrDegenerate {
		t.Fatal("empty vocabulary should give a degenerate model")
	}
	if out := m.Generate(rand.New(rand.NewSource(1)), GenerateOptions{Target: 10, MinLen: 1, MaxLen: 10}); out != nil {
		t.Fatalf("degenerate model generated %v", out)
	}
	if out := Train(vocab, 2).Generate(rand.New(rand.NewSource(1)), GenerateOptions{Target: 0}); out != nil {
		t.Fatalf("target 0 generated %v", out)
	}
}

func TestWordLevelModel(t *testing.T) {
	pages := [][]string{{"secure", "remote", "access"}, {"remote", "access", "portal"}}
	m := TrainSequences(pages, 1)
	if got := m.Counts("remote"); got["access"] != 2 {
		t.Fatalf(`Counts("remote") = %v`, got)
	}
	out := m.Generate(rand.New(rand.NewSource(9)), GenerateOptions{Target: 5, MinLen: 3, MaxLen: 40})
	for _, w := range out {
		if strings.Contains(w, " ") {
			t.Errorf("word-level output should be concatenated, got %q", w)
		}
	}
}
