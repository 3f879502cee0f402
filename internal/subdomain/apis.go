package subdomain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Default endpoints for the passive sources
const (
	CrtShURL        = "https://crt.sh"
	AlienVaultURL   = "https://otx.alienvault.com"
	HackerTargetURL = "https://api.hackertarget.com"
)

// APISource queries one third-party passive endpoint
type APISource struct {
	name    string
	BaseURL string
	get     *Getter
	query   func(base, domain string) string
	parse   func(body, domain string) ([]string, error)
}

func (s *APISource) Name() string { return s.name }

// Discover performs a single request and parses the response
func (s *APISource) Discover(ctx context.Context, domain string) ([]string, error) {
	body, err := s.get.Get(ctx, s.query(strings.TrimRight(s.BaseURL, "/"), domain))
	if err != nil {
		return nil, unavailable(s.name, err)
	}
	hosts, err := s.parse(body, domain)
	if err != nil {
		return nil, unavailable(s.name, fmt.Errorf("malformed response: %w", err))
	}
	return hosts, nil
}

// NewCrtSh queries certificate transparency logs
func NewCrtSh(g *Getter) *APISource {
	return &APISource{
		name:    "crtsh",
		BaseURL: CrtShURL,
		get:     g,
		query: func(base, domain string) string {
			return fmt.Sprintf("%s/?q=%s&output=json", base, url.QueryEscape("%."+domain))
		},
		parse: parseCrtSh,
	}
}

func parseCrtSh(body, domain string) ([]string, error) {
	var entries []struct {
		NameValue  string `json:"name_value"`
		CommonName string `json:"common_name"`
	}
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, err
	}

	var result []string
	for _, e := range entries {
		names := strings.Split(e.NameValue, "\n")
		names = append(names, e.CommonName)
		for _, name := range names {
			if host, ok := Normalize(name, domain); ok {
				result = append(result, host)
			}
		}
	}
	return result, nil
}

// NewAlienVault queries AlienVault OTX passive DNS
func NewAlienVault(g *Getter) *APISource {
	return &APISource{
		name:    "alienvault",
		BaseURL: AlienVaultURL,
		get:     g,
		query: func(base, domain string) string {
			return fmt.Sprintf("%s/api/v1/indicators/domain/%s/passive_dns", base, domain)
		},
		parse: parseAlienVault,
	}
}

func parseAlienVault(body, domain string) ([]string, error) {
	var response struct {
		PassiveDNS []struct {
			Hostname string `json:"hostname"`
		} `json:"passive_dns"`
	}
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		return nil, err
	}

	var result []string
	for _, entry := range response.PassiveDNS {
		if host, ok := Normalize(entry.Hostname, domain); ok {
			result = append(result, host)
		}
	}
	return result, nil
}

// NewHackerTarget queries the HackerTarget host search (CSV: host,ip)
func NewHackerTarget(g *Getter) *APISource {
	return &APISource{
		name:    "hackertarget",
		BaseURL: HackerTargetURL,
		get:     g,
		query: func(base, domain string) string {
			return fmt.Sprintf("%s/hostsearch/?q=%s", base, url.QueryEscape(domain))
		},
		parse: parseHackerTarget,
	}
}

func parseHackerTarget(body, domain string) ([]string, error) {
	trimmed := strings.TrimSpace(body)
	// quota and input errors come back as 200 with a plain message
	if strings.HasPrefix(trimmed, "error") || strings.Contains(trimmed, "API count exceeded") {
		return nil, fmt.Errorf("%s", firstLine(trimmed))
	}

	var result []string
	for _, line := range strings.Split(trimmed, "\n") {
		parts := strings.Split(line, ",")
		if host, ok := Normalize(parts[0], domain); ok {
			result = append(result, host)
		}
	}
	return result, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// PassiveSources returns the certificate transparency and passive DNS sources
func PassiveSources(g *Getter) []Source {
	return []Source{NewCrtSh(g), NewAlienVault(g), NewHackerTarget(g)}
}
