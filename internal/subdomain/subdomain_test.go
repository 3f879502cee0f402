package subdomain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type staticSource struct {
	name  string
	hosts []string
	err   error
	delay time.Duration
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Discover(ctx context.Context, domain string) ([]string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w: %v", s.name, ErrSourceUnavailable, ctx.Err())
		}
	}
	return s.hosts, s.err
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"VPN.Acme.com", "vpn.acme.com", true},
		{"*.dev.acme.com", "dev.acme.com", true},
		{"mail.acme.com.", "mail.acme.com", true},
		{"acme.com", "acme.com", true},
		{"notacme.com", "", false},
		{"acme.com.evil.net", "", false},
		{"bad host.acme.com", "", false},
		{"user@acme.com", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.in, "acme.com")
		if got != tt.want || ok != tt.ok {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAggregatorDedupesAcrossSources(t *testing.T) {
	agg := NewAggregator(time.Second,
		&staticSource{name: "crtsh", hosts: []string{"vpn.acme.com", "www.acme.com"}},
		&staticSource{name: "alienvault", hosts: []string{"VPN.ACME.COM", "mail.acme.com", "other.org"}},
	)

	res := agg.Discover(context.Background(), "acme.com")

	count := 0
	for _, c := range res.Hosts {
		if c.Host == "vpn.acme.com" {
			count++
			if c.Source != "crtsh" {
				t.Errorf("vpn.acme.com tagged %q, want first source crtsh", c.Source)
			}
		}
	}
	if count != 1 {
		t.Fatalf("vpn.acme.com appears %d times", count)
	}
	if got := strings.Join(res.Names(), ","); got != "mail.acme.com,vpn.acme.com,www.acme.com" {
		t.Fatalf("hosts = %s", got)
	}
	if res.Sources["crtsh"] != 2 || res.Sources["alienvault"] != 1 {
		t.Fatalf("source counts = %v", res.Sources)
	}
}

func TestAggregatorSourceFailureIsNotFatal(t *testing.T) {
	var reported int32
	agg := NewAggregator(time.Second,
		&staticSource{name: "broken", err: unavailable("broken", errors.New("connection refused"))},
		&staticSource{name: "ok", hosts: []string{"app.acme.com"}},
	)
	agg.OnSource = func(name string, count int, err error) { atomic.AddInt32(&reported, 1) }

	res := agg.Discover(context.Background(), "acme.com")
	if len(res.Hosts) != 1 {
		t.Fatalf("hosts = %v", res.Hosts)
	}
	if !errors.Is(res.Failures["broken"], ErrSourceUnavailable) {
		t.Fatalf("failure = %v", res.Failures["broken"])
	}
	if reported != 2 {
		t.Fatalf("OnSource called %d times, want 2", reported)
	}
}

func TestAggregatorTimeoutKeepsFinishedSources(t *testing.T) {
	agg := NewAggregator(100*time.Millisecond,
		&staticSource{name: "fast", hosts: []string{"www.acme.com"}},
		&staticSource{name: "slow", hosts: []string{"late.acme.com"}, delay: 5 * time.Second},
	)

	start := time.Now()
	res := agg.Discover(context.Background(), "acme.com")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("discovery took %s despite timeout", elapsed)
	}
	if got := strings.Join(res.Names(), ","); got != "www.acme.com" {
		t.Fatalf("hosts = %s", got)
	}
	if !errors.Is(res.Failures["slow"], ErrSourceUnavailable) {
		t.Fatalf("slow source failure = %v", res.Failures["slow"])
	}
}

func TestPassiveSourcesParse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("output") != "json" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `[{"name_value":"vpn.acme.com\n*.dev.acme.com","common_name":"acme.com"},{"name_value":"unrelated.org"}]`)
	})
	mux.HandleFunc("/api/v1/indicators/domain/acme.com/passive_dns", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"passive_dns":[{"hostname":"mail.acme.com"},{"hostname":"cdn.other.net"}]}`)
	})
	mux.HandleFunc("/hostsearch/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "shop.acme.com,1.2.3.4\nvpn.acme.com,1.2.3.5\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGetter(2*time.Second, "test")
	tests := []struct {
		src  *APISource
		want string
	}{
		{NewCrtSh(g), "vpn.acme.com,dev.acme.com,acme.com"},
		{NewAlienVault(g), "mail.acme.com"},
		{NewHackerTarget(g), "shop.acme.com,vpn.acme.com"},
	}
	for _, tt := range tests {
		tt.src.BaseURL = srv.URL
		hosts, err := tt.src.Discover(context.Background(), "acme.com")
		if err != nil {
			t.Fatalf("%s: %v", tt.src.Name(), err)
		}
		if got := strings.Join(hosts, ","); got != tt.want {
			t.Errorf("%s hosts = %s, want %s", tt.src.Name(), got, tt.want)
		}
	}
}

func TestPassiveSourceFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/hostsearch"):
			fmt.Fprint(w, "API count exceeded - Increase Quota with Membership")
		case strings.HasPrefix(r.URL.Path, "/api/"):
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			fmt.Fprint(w, "<html>not json</html>")
		}
	}))
	defer srv.Close()

	g := NewGetter(2*time.Second, "test")
	for _, src := range []*APISource{NewCrtSh(g), NewAlienVault(g), NewHackerTarget(g)} {
		src.BaseURL = srv.URL
		if _, err := src.Discover(context.Background(), "acme.com"); !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("%s: expected ErrSourceUnavailable, got %v", src.Name(), err)
		}
	}
}

func TestVariationsWithOrganisation(t *testing.T) {
	v := NewVariations("acme", func(ctx context.Context, domain string) (string, error) {
		return "Roadrunner Holdings", nil
	})
	v.Now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	hosts, err := v.Discover(context.Background(), "acme.com")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		"acme.acme.com":                    false,
		"acmecorp.acme.com":                false,
		"acme-2026.acme.com":               false,
		"new-acme.acme.com":                false,
		"roadrunnerholdings.acme.com":      false,
		"roadrunnerholdings-2021.acme.com": false,
	}
	for _, h := range hosts {
		if _, ok := want[h]; ok {
			want[h] = true
		}
	}
	for h, found := range want {
		if !found {
			t.Errorf("missing %s", h)
		}
	}
}

func TestVariationsOrgFailureIgnored(t *testing.T) {
	v := NewVariations("acme", func(ctx context.Context, domain string) (string, error) {
		return "", errors.New("whois timeout")
	})
	hosts, err := v.Discover(context.Background(), "acme.com")
	if err != nil || len(hosts) == 0 {
		t.Fatalf("hosts=%d err=%v", len(hosts), err)
	}
}

func TestOrganizationFromWhois(t *testing.T) {
	raw := "Domain Name: ACME.COM\r\nRegistrar: Example Registrar, Inc.\r\nRegistrant Organization: Acme Corporation\r\nRegistrant Country: US\r\n"
	if got := organizationFromWhois(raw); got != "Acme Corporation" {
		t.Fatalf("org = %q", got)
	}
	redacted := "Domain Name: ACME.COM\nRegistrant Organization: REDACTED FOR PRIVACY\n"
	if got := organizationFromWhois(redacted); got != "" {
		t.Fatalf("redacted org = %q", got)
	}
}
