package historic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/purehate/wordUP/internal/subdomain"
)

func TestCollectorDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cdx/search/cdx" || r.URL.Query().Get("url") != "*.acme.com/*" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[["original"],
			["http://www.acme.com/about"],
			["https://VPN.acme.com:8443/login"],
			["shop.acme.com/cart"],
			["http://evil.com/acme.com"],
			["https://www.acme.com/contact"]]`))
	}))
	defer srv.Close()

	c := NewCollector(subdomain.NewGetter(2*time.Second, "test"))
	c.BaseURL = srv.URL

	hosts, err := c.Discover(context.Background(), "acme.com")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got := strings.Join(hosts, ","); got != "shop.acme.com,vpn.acme.com,www.acme.com" {
		t.Fatalf("hosts = %s", got)
	}
}

func TestCollectorMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>blocked</html>"))
	}))
	defer srv.Close()

	c := NewCollector(subdomain.NewGetter(2*time.Second, "test"))
	c.BaseURL = srv.URL

	if _, err := c.Discover(context.Background(), "acme.com"); !errors.Is(err, subdomain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestCollectorEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewCollector(subdomain.NewGetter(2*time.Second, "test"))
	c.BaseURL = srv.URL

	hosts, err := c.Discover(context.Background(), "acme.com")
	if err != nil || len(hosts) != 0 {
		t.Fatalf("hosts=%v err=%v", hosts, err)
	}
}
