package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/purehate/wordUP/internal/config"
	"github.com/purehate/wordUP/internal/debug"
	"github.com/purehate/wordUP/internal/pool"
	"github.com/purehate/wordUP/internal/probe"
	"github.com/purehate/wordUP/internal/ratelimit"
)

// MaxBodySize caps the bytes read from a single page
const MaxBodySize = 5 << 20

// MaxRedirectHops is the number of script redirects followed per host
const MaxRedirectHops = 1

var errIgnored = errors.New("ignored resource type")

// FetchStats counts fetch outcomes
type FetchStats struct {
	Pages     int `json:"pages"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Redirects int `json:"redirects"`
}

// Fetcher downloads one page per live host and extracts it
type Fetcher struct {
	Client    *http.Client
	Workers   int
	Timeout   time.Duration
	UserAgent string
	Limiter   *ratelimit.RateLimiter
	Extractor *Extractor

	// OnHost is called after each host is processed
	OnHost func(origin string, err error)
}

// NewFetcher creates a fetcher from the run configuration
func NewFetcher(cfg *config.Config, client *http.Client, limiter *ratelimit.RateLimiter) *Fetcher {
	return &Fetcher{
		Client:    client,
		Workers:   cfg.Workers,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Limiter:   limiter,
		Extractor: &Extractor{Emails: cfg.ExtractEmails, Metadata: cfg.ExtractMetadata},
	}
}

// FetchAll fetches every host on the worker pool and merges each record into
// agg as soon as it is extracted. Failures only reduce the counts.
func (f *Fetcher) FetchAll(ctx context.Context, hosts []probe.LiveHost, agg *Aggregate) FetchStats {
	var (
		mu sync.Mutex
		st FetchStats
	)

	pool.Run(ctx, len(hosts), f.Workers, func(ctx context.Context, i int) {
		origin := hosts[i].URL
		records, hops, err := f.FetchHost(ctx, origin)
		for _, rec := range records {
			agg.Merge(rec)
		}

		mu.Lock()
		st.Pages += len(records)
		st.Redirects += hops
		switch {
		case errors.Is(err, errIgnored):
			st.Skipped++
		case err != nil:
			st.Failed++
		}
		mu.Unlock()

		if err != nil {
			debug.Logf("fetch %s: %v", origin, err)
		}
		if f.OnHost != nil {
			f.OnHost(origin, err)
		}
	})
	return st
}

// FetchHost fetches the origin's root page and follows at most one
// same-origin script redirect. It returns the extracted records and the
// number of redirect hops taken. A failed hop keeps the first page.
func (f *Fetcher) FetchHost(ctx context.Context, origin string) ([]Record, int, error) {
	start, err := url.Parse(strings.TrimRight(origin, "/") + "/")
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w: %v", origin, ErrParse, err)
	}

	visited := map[string]bool{start.String(): true}
	var records []Record
	hops := 0
	next := start

	for {
		rec, body, final, isHTML, err := f.fetchPage(ctx, next)
		if err != nil {
			if len(records) > 0 {
				debug.Logf("redirect hop %s: %v", next, err)
				return records, hops, nil
			}
			return nil, hops, err
		}
		records = append(records, rec)
		visited[final.String()] = true

		if !isHTML || hops >= MaxRedirectHops {
			return records, hops, nil
		}
		target, ok := FindRedirect(final, body)
		if !ok || !SameOrigin(final, target) || visited[target.String()] {
			return records, hops, nil
		}
		visited[target.String()] = true
		next = target
		hops++
	}
}

func (f *Fetcher) fetchPage(ctx context.Context, u *url.URL) (Record, string, *url.URL, bool, error) {
	if ShouldIgnore(u) {
		return Record{}, "", nil, false, fmt.Errorf("%s: %w", u, errIgnored)
	}
	if err := f.Limiter.Wait(ctx, u.Host); err != nil {
		return Record{}, "", nil, false, fmt.Errorf("%s: %w: %v", u, probe.ErrHostUnreachable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Record{}, "", nil, false, err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.Client.Do(req)
	if err != nil {
		return Record{}, "", nil, false, fmt.Errorf("%s: %w: %v", u, probe.ErrHostUnreachable, err)
	}
	defer resp.Body.Close()
	f.Limiter.RecordResponse(u.Host, resp.StatusCode, resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Record{}, "", nil, false, fmt.Errorf("%s: %w: status %d", u, probe.ErrHostUnreachable, resp.StatusCode)
	}

	final := resp.Request.URL
	if ShouldIgnore(final) {
		return Record{}, "", nil, false, fmt.Errorf("%s: %w", final, errIgnored)
	}

	ctype := resp.Header.Get("Content-Type")
	reader, err := charset.NewReader(io.LimitReader(resp.Body, MaxBodySize), ctype)
	if err != nil {
		return Record{}, "", nil, false, fmt.Errorf("%s: %w: %v", final, ErrParse, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return Record{}, "", nil, false, fmt.Errorf("%s: %w: %v", final, probe.ErrHostUnreachable, err)
	}
	body := string(data)

	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	mediaType, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		return Record{}, "", nil, false, fmt.Errorf("%s: %w: content type %q", final, ErrParse, ctype)
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		rec, err := f.Extractor.HTML(final.String(), body)
		if err != nil {
			return Record{}, "", nil, false, err
		}
		return rec, body, final, true, nil
	case strings.HasPrefix(mediaType, "text/"):
		return f.Extractor.Text(final.String(), body), body, final, false, nil
	}
	return Record{}, "", nil, false, fmt.Errorf("%s: %w: %s", final, errIgnored, mediaType)
}
