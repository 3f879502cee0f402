package transform

import (
	"strings"
	"testing"
	"time"
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestLeetLightTrust(t *testing.T) {
	got := Leet("trust", LeetLight)
	if !contains(got, "tru5t") {
		t.Fatalf("light variants %v missing tru5t", got)
	}
	if contains(got, "7ru57") || contains(got, "7rus7") {
		t.Fatalf("light mode produced consonant substitution: %v", got)
	}
	if contains(got, "trust") {
		t.Fatalf("variants should not include the input: %v", got)
	}
}

func TestLeetFullTrust(t *testing.T) {
	got := Leet("trust", LeetFull)
	for _, want := range []string{"tru5t", "tru$t", "7rus7", "7ru57"} {
		if !contains(got, want) {
			t.Errorf("full variants %v missing %q", got, want)
		}
	}
}

func TestLeetTable(t *testing.T) {
	tests := []struct {
		word, mode string
		want       []string
	}{
		{"acme", LeetLight, []string{"4cme", "acm3", "4cm3"}},
		{"security", LeetLight, []string{"s3curity", "secur1ty", "5ecurity", "53cur1ty"}},
		{"portal", LeetLight, []string{"port4l", "p0rtal", "p0rt4l"}},
		{"trust", LeetNone, nil},
		{"xyz", LeetFull, nil},
	}
	for _, tt := range tests {
		got := Leet(tt.word, tt.mode)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("Leet(%q, %s) = %v, want %v", tt.word, tt.mode, got, tt.want)
		}
	}
}

func TestAffix(t *testing.T) {
	got := Affix("acme", []int{2024, 2025})
	for _, want := range []string{
		"acmes", "acmeing", "acmeness", "acmement", "acmetion", "acme123", "acme2024", "acme25",
		"myacme", "123acme", "acme0", "acme9", "7acme", "acme44",
	} {
		if !contains(got, want) {
			t.Errorf("Affix missing %q in %v", want, got)
		}
	}
	if contains(got, "acme") {
		t.Error("Affix should not repeat the input")
	}
}

func TestPermuteBounded(t *testing.T) {
	tokens := []string{"acme", "vpn", "portal", "extra"}
	got := Permute(tokens, 2)
	want := []string{"acmevpn", "acme.vpn", "acme_vpn", "acme-vpn", "vpnacme", "vpn.acme", "vpn_acme", "vpn-acme"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Permute = %v", got)
	}
}

func TestGroupsPerPage(t *testing.T) {
	pages := [][]string{
		{"secure", "remote", "access"},
		{"remote", "access", "portal"},
	}
	got := Groups(pages, 2)
	want := []string{"secure remote", "remote access", "access portal"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("Groups = %v", got)
	}
	// windows never span pages
	if contains(got, "access remote") {
		t.Fatal("group spanned two pages")
	}
	if Groups(pages, 0) != nil {
		t.Fatal("group size 0 should disable grouping")
	}
}

func TestCompanyVariations(t *testing.T) {
	got := CompanyVariations("Trusted Sec", []int{2024})
	if got[0] != "trustedsec" {
		t.Fatalf("stem first, got %q", got[0])
	}
	for _, want := range []string{"trustedsecinc", "trustedsec-corp", "trustedsec_llc", "newtrustedsec", "pro-trustedsec", "trustedsec2024", "trustedsec_2024"} {
		if !contains(got, want) {
			t.Errorf("missing %q", want)
		}
	}
	if CompanyVariations("  ", nil) != nil {
		t.Error("blank company should give no variations")
	}
}

func TestYears(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := Years(now)
	if len(got) != 7 || got[0] != 2021 || got[6] != 2027 {
		t.Fatalf("Years = %v", got)
	}
}

func TestEngineComprehensive(t *testing.T) {
	e := &Engine{
		MinLen: 3, MaxLen: 20,
		LeetMode:  LeetLight,
		Affixes:   true,
		GroupSize: 2,
		TopK:      DefaultTopK,
		Company:   "acme",
		Now:       func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
	vocab := []string{"acme", "trust", "security"}
	pages := [][]string{{"trust", "security"}}
	out := e.Comprehensive(vocab, pages, vocab)

	for _, want := range []string{"acme", "trust", "tru5t", "acme2026", "acmecorp", "trust_security", "trustsecurity"} {
		if !contains(out.Comprehensive, want) {
			t.Errorf("comprehensive set missing %q", want)
		}
	}
	seen := map[string]bool{}
	for _, w := range out.Comprehensive {
		if n := len([]rune(w)); n < 3 || n > 20 {
			t.Errorf("%q outside length bounds", w)
		}
		if seen[w] {
			t.Errorf("duplicate %q", w)
		}
		seen[w] = true
	}
	if len(out.Groups) != 1 || out.Groups[0] != "trust security" {
		t.Fatalf("groups = %v", out.Groups)
	}
}

func TestEngineGroupingDisabled(t *testing.T) {
	e := &Engine{MinLen: 3, MaxLen: 50, LeetMode: LeetNone, GroupSize: 0, Now: time.Now}
	out := e.Comprehensive([]string{"alpha", "beta"}, [][]string{{"alpha", "beta"}}, []string{"alpha", "beta"})
	if len(out.Comprehensive) != 2 || out.Groups != nil {
		t.Fatalf("expected vocabulary only, got %+v", out)
	}
}
