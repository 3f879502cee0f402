package tools

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// CommonSubdomains are the labels tried by the DNS brute-force source
var CommonSubdomains = []string{
	"www", "mail", "webmail", "vpn", "remote", "portal", "admin", "login", "app", "cloud", "dev",
	"api", "blog", "shop", "store", "support", "help", "docs", "wiki", "test", "staging", "prod",
	"production", "demo", "beta", "alpha", "cdn", "static", "assets", "media", "files", "download",
	"upload", "secure", "ssl", "ftp", "smtp", "pop", "imap", "ldap", "radius", "auth", "sso",
	"oauth", "jwt", "token", "session", "cache", "redis", "db", "database", "sql", "nosql",
	"mongo", "elastic", "kibana", "grafana", "prometheus", "monitoring", "logs", "metrics",
	"analytics", "stats", "report", "dashboard", "panel", "console", "control", "manage",
	"management", "root", "super", "master", "primary", "secondary", "backup",
	"replica", "node", "cluster", "load", "balancer", "proxy", "gateway", "router",
	"switch", "firewall", "security", "scan", "audit", "compliance", "policy", "rules",
	"config", "settings", "preferences", "profile", "account", "user", "customer", "client",
	"partner", "vendor", "supplier", "contractor", "employee", "staff", "team", "group",
	"department", "division", "unit", "branch", "office", "location", "site", "facility",
	"building", "floor", "room", "desk", "station", "terminal", "kiosk", "booth", "counter",
	"intranet", "extranet", "owa", "autodiscover", "careers", "jobs", "news", "events",
}

// trustedResolvers are reliable public DNS resolvers used for brute force
var trustedResolvers = []string{
	// Cloudflare
	"1.1.1.1", "1.0.0.1",
	// Google Public DNS
	"8.8.8.8", "8.8.4.4",
	// Quad9
	"9.9.9.9", "149.112.112.112",
	// OpenDNS
	"208.67.222.222", "208.67.220.220",
}

// WordlistDir returns the path to the wordUP wordlists directory
func WordlistDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "wordlists"
	}
	return filepath.Join(home, ".wordup", "wordlists")
}

// TrustedResolvers returns the default resolvers as host:port pairs
func TrustedResolvers() []string {
	return NormalizeResolvers(trustedResolvers)
}

// NormalizeResolvers appends :53 where no port is given and drops blanks
func NormalizeResolvers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" || strings.HasPrefix(r, "#") {
			continue
		}
		if _, _, err := net.SplitHostPort(r); err != nil {
			r = net.JoinHostPort(r, "53")
		}
		out = append(out, r)
	}
	return out
}

// SubdomainWordlistPaths returns paths to check for subdomain wordlists (in priority order)
func SubdomainWordlistPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(WordlistDir(), "subdomains.txt"),
		"wordlists/subdomains.txt",
		// Common SecLists locations
		"/usr/share/wordlists/seclists/Discovery/DNS/subdomains-top1million-5000.txt",
		"/opt/SecLists/Discovery/DNS/subdomains-top1million-5000.txt",
		"/usr/share/seclists/Discovery/DNS/subdomains-top1million-5000.txt",
		// Homebrew on macOS
		"/opt/homebrew/share/seclists/Discovery/DNS/subdomains-top1million-5000.txt",
		filepath.Join(home, "SecLists/Discovery/DNS/subdomains-top1million-5000.txt"),
	}
}

// FindWordlist finds the first available subdomain wordlist
func FindWordlist() string {
	for _, p := range SubdomainWordlistPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadWordlist reads one label per line, skipping blanks and comments.
// "auto" picks the first wordlist found by FindWordlist.
func LoadWordlist(path string) ([]string, error) {
	if path == "auto" {
		path = FindWordlist()
		if path == "" {
			return nil, fmt.Errorf("no subdomain wordlist found in %d known locations", len(SubdomainWordlistPaths()))
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wordlist %s: %w", path, err)
	}
	return labels, nil
}

// LoadResolvers reads a resolvers file in the same format as LoadWordlist
func LoadResolvers(path string) ([]string, error) {
	lines, err := LoadWordlist(path)
	if err != nil {
		return nil, err
	}
	return NormalizeResolvers(lines), nil
}
