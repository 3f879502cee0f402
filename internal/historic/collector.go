// Package historic discovers hosts from web-archive indexes.
package historic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/purehate/wordUP/internal/subdomain"
)

// WebArchiveURL is the default CDX endpoint host
const WebArchiveURL = "https://web.archive.org"

// cdxLimit bounds the number of archived URLs requested
const cdxLimit = 10000

// Collector queries the Wayback Machine CDX index for archived URLs under a
// domain and reduces them to hostnames.
type Collector struct {
	BaseURL string
	get     *subdomain.Getter
}

// NewCollector creates the web-archive discovery source
func NewCollector(g *subdomain.Getter) *Collector {
	return &Collector{BaseURL: WebArchiveURL, get: g}
}

func (c *Collector) Name() string { return "webarchive" }

// Discover performs one CDX query
func (c *Collector) Discover(ctx context.Context, domain string) ([]string, error) {
	q := url.Values{}
	q.Set("url", "*."+domain+"/*")
	q.Set("output", "json")
	q.Set("fl", "original")
	q.Set("collapse", "urlkey")
	q.Set("limit", fmt.Sprint(cdxLimit))

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/cdx/search/cdx?" + q.Encode()
	body, err := c.get.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", c.Name(), subdomain.ErrSourceUnavailable, err)
	}

	urls, err := parseCDX(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: malformed response: %v", c.Name(), subdomain.ErrSourceUnavailable, err)
	}
	return extractSubdomainsFromURLs(domain, urls), nil
}

// parseCDX reads the JSON row format. The first row is the field header.
// An empty body means no captures.
func parseCDX(body string) ([]string, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	var rows [][]string
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		return nil, err
	}

	var urls []string
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "original" {
			continue
		}
		if len(row) > 0 {
			urls = append(urls, row[0])
		}
	}
	return urls, nil
}

func extractSubdomainsFromURLs(domain string, urls []string) []string {
	seen := make(map[string]bool)
	for _, raw := range urls {
		u := raw
		if !strings.Contains(u, "://") {
			u = "http://" + u
		}
		parsed, err := url.Parse(u)
		if err != nil {
			continue
		}
		if host, ok := subdomain.Normalize(parsed.Hostname(), domain); ok {
			seen[host] = true
		}
	}

	result := make([]string, 0, len(seen))
	for s := range seen {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}
