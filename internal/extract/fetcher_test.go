package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/purehate/wordUP/internal/normalize"
	"github.com/purehate/wordUP/internal/probe"
)

func newTestFetcher() *Fetcher {
	return &Fetcher{
		Client:    probe.NewClient(2*time.Second, true),
		Workers:   4,
		Timeout:   2 * time.Second,
		UserAgent: "test",
		Extractor: &Extractor{Emails: true},
	}
}

func TestFetchFollowsSameOriginRedirectOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>Loading gateway<script>window.location.href = "/portal";</script></body></html>`))
	})
	mux.HandleFunc("/portal", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body>Falcon intranet<script>location.replace("/deeper")</script></body></html>`))
	})
	mux.HandleFunc("/deeper", func(w http.ResponseWriter, r *http.Request) {
		t.Error("second hop must not be followed")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFetcher()
	records, hops, err := f.FetchHost(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if hops != 1 || len(records) != 2 {
		t.Fatalf("hops = %d records = %d", hops, len(records))
	}
	if !contains(lower(records[1].Text), "falcon") {
		t.Fatalf("redirect target not extracted: %v", records[1].Text)
	}
}

func TestFetchIgnoresCrossOriginRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<script>window.location = "https://elsewhere.example/"</script><p>landing</p>`))
	}))
	defer srv.Close()

	records, hops, err := newTestFetcher().FetchHost(context.Background(), srv.URL)
	if err != nil || hops != 0 || len(records) != 1 {
		t.Fatalf("records=%d hops=%d err=%v", len(records), hops, err)
	}
}

func TestFetchStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := newTestFetcher().FetchHost(context.Background(), srv.URL)
	if !errors.Is(err, probe.ErrHostUnreachable) {
		t.Fatalf("expected ErrHostUnreachable, got %v", err)
	}
}

func TestFetchBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("prelude "))
		w.Write([]byte(strings.Repeat(" ", MaxBodySize)))
		w.Write([]byte("afterthecap"))
	}))
	defer srv.Close()

	records, _, err := newTestFetcher().FetchHost(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	text := lower(records[0].Text)
	if !contains(text, "prelude") || contains(text, "afterthecap") {
		t.Fatalf("body cap not applied: %v", text)
	}
}

func TestFetchDecodesDeclaredCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<html><body>Herr M\xfcller und Caf\xe9</body></html>"))
	}))
	defer srv.Close()

	records, _, err := newTestFetcher().FetchHost(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	text := lower(records[0].Text)
	if !contains(text, "mueller") || !contains(text, "cafe") {
		t.Fatalf("charset not decoded: %v", text)
	}
}

func TestFetchAllSkipsFailures(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<p>Falcon Logistics</p><a href="mailto:ops@acme.com">ops</a>`))
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	binary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0, 1, 2, 3})
	}))
	defer binary.Close()

	var seen int
	f := newTestFetcher()
	f.Workers = 1
	f.OnHost = func(string, error) { seen++ }

	agg := NewAggregate(normalize.New(3, 20))
	st := f.FetchAll(context.Background(), []probe.LiveHost{
		{URL: ok.URL}, {URL: bad.URL}, {URL: binary.URL},
	}, agg)

	if st.Pages != 1 || st.Failed != 1 || st.Skipped != 1 || seen != 3 {
		t.Fatalf("stats = %+v seen = %d", st, seen)
	}
	if !contains(agg.Vocabulary(), "falcon") || len(agg.Emails()) != 1 {
		t.Fatalf("vocabulary %v emails %v", agg.Vocabulary(), agg.Emails())
	}
}
