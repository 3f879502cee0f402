package subdomain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrSourceUnavailable is wrapped by every discovery source failure
var ErrSourceUnavailable = errors.New("source unavailable")

// maxSourceBody caps a single third-party response
const maxSourceBody = 16 << 20

// Source discovers candidate hostnames for a base domain.
// A failing source returns an error wrapping ErrSourceUnavailable.
type Source interface {
	Name() string
	Discover(ctx context.Context, domain string) ([]string, error)
}

// Candidate is an unverified hostname and the first source that reported it
type Candidate struct {
	Host   string `json:"host"`
	Source string `json:"source"`
}

// Normalize lowercases and trims a reported name and reports whether it is the
// base domain or a name under it.
func Normalize(name, domain string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "*.")
	s = strings.TrimSuffix(s, ".")
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))

	if s == "" || domain == "" {
		return "", false
	}
	if strings.ContainsAny(s, " \t\n\r/@*") {
		return "", false
	}
	if s != domain && !strings.HasSuffix(s, "."+domain) {
		return "", false
	}
	return s, true
}

// unavailable wraps err as a failure of the named source
func unavailable(name string, err error) error {
	return fmt.Errorf("%s: %w: %v", name, ErrSourceUnavailable, err)
}

// Getter performs the single GET each passive source is allowed
type Getter struct {
	Client    *http.Client
	UserAgent string
}

// NewGetter creates a Getter with a bounded client
func NewGetter(timeout time.Duration, userAgent string) *Getter {
	return &Getter{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		UserAgent: userAgent,
	}
}

// Get makes an HTTP GET request and returns the body. Non-200 responses are errors.
func (g *Getter) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBody))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
