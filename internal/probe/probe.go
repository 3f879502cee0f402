// Package probe finds which candidate hosts answer over HTTP(S).
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/purehate/wordUP/internal/config"
	"github.com/purehate/wordUP/internal/pool"
	"github.com/purehate/wordUP/internal/ratelimit"
	"github.com/purehate/wordUP/internal/subdomain"
)

// ErrHostUnreachable is wrapped by every failed probe or fetch
var ErrHostUnreachable = errors.New("host unreachable")

// MaxRedirects is the redirect limit for probes and fetches
const MaxRedirects = 5

// LiveHost is an origin that answered with a status below 400
type LiveHost struct {
	URL    string `json:"url"` // scheme://host[:port]
	Host   string `json:"host"`
	Status int    `json:"status"`
}

// NewClient returns the HTTP client shared by the prober and the fetcher
func NewClient(timeout time.Duration, insecure bool) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: insecure},
			TLSHandshakeTimeout: timeout,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", MaxRedirects)
			}
			return nil
		},
	}
}

// Prober checks candidates on a pool of exactly Workers goroutines
type Prober struct {
	Client    *http.Client
	Workers   int
	Timeout   time.Duration
	UserAgent string
	Limiter   *ratelimit.RateLimiter

	// OnResult is called after each host is checked
	OnResult func(host string, live bool)
}

// NewProber creates a prober from the run configuration
func NewProber(cfg *config.Config, client *http.Client, limiter *ratelimit.RateLimiter) *Prober {
	return &Prober{
		Client:    client,
		Workers:   cfg.Workers,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Limiter:   limiter,
	}
}

// Probe returns the live hosts sorted by URL. Unreachable hosts are dropped.
func (p *Prober) Probe(ctx context.Context, candidates []subdomain.Candidate) []LiveHost {
	var (
		mu   sync.Mutex
		live []LiveHost
	)

	pool.Run(ctx, len(candidates), p.Workers, func(ctx context.Context, i int) {
		host := candidates[i].Host
		lh, err := p.Check(ctx, host)
		if err == nil {
			mu.Lock()
			live = append(live, lh)
			mu.Unlock()
		}
		if p.OnResult != nil {
			p.OnResult(host, err == nil)
		}
	})

	sort.Slice(live, func(i, j int) bool { return live[i].URL < live[j].URL })
	return live
}

// Check tries HTTPS then HTTP. Each attempt has its own deadline of
// Timeout, so a stalled TLS handshake does not starve the HTTP attempt.
func (p *Prober) Check(ctx context.Context, host string) (LiveHost, error) {
	var lastErr error
	for _, scheme := range []string{"https", "http"} {
		origin := scheme + "://" + host
		status, err := p.attempt(ctx, host, origin)
		if err == nil && status < http.StatusBadRequest {
			return LiveHost{URL: origin, Host: host, Status: status}, nil
		}
		if err == nil {
			err = fmt.Errorf("status %d", status)
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return LiveHost{}, fmt.Errorf("%s: %w: %v", host, ErrHostUnreachable, lastErr)
}

func (p *Prober) attempt(ctx context.Context, host, origin string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return p.get(ctx, host, origin)
}

func (p *Prober) get(ctx context.Context, host, url string) (int, error) {
	if err := p.Limiter.Wait(ctx, host); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	p.Limiter.RecordResponse(host, resp.StatusCode, resp.Header)
	return resp.StatusCode, nil
}
