package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// jsRedirectPatterns capture the target of common script-driven redirects
var jsRedirectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)window\.location(?:\.href)?\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)(?:window\.|document\.)?location\.(?:replace|assign)\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`(?i)document\.location(?:\.href)?\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)(?:^|[\s;{])location\.href\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)<meta[^>]+http-equiv\s*=\s*["']?refresh["']?[^>]*content\s*=\s*["']\s*\d*\s*;?\s*url\s*=\s*([^"'>\s]+)`),
}

// FindRedirect returns the first script or meta-refresh redirect target in
// body, resolved against base.
func FindRedirect(base *url.URL, body string) (*url.URL, bool) {
	for _, re := range jsRedirectPatterns {
		m := re.FindStringSubmatch(body)
		if len(m) < 2 {
			continue
		}
		target := strings.TrimSpace(m[1])
		if target == "" || strings.HasPrefix(strings.ToLower(target), "javascript:") {
			continue
		}
		ref, err := url.Parse(target)
		if err != nil {
			continue
		}
		return base.ResolveReference(ref), true
	}
	return nil, false
}

// SameOrigin reports whether b is on the same host and port as a. An upgrade
// from http to https on the same host counts as same origin.
func SameOrigin(a, b *url.URL) bool {
	if !strings.EqualFold(a.Hostname(), b.Hostname()) {
		return false
	}
	if a.Scheme == b.Scheme {
		return effectivePort(a) == effectivePort(b)
	}
	return a.Scheme == "http" && b.Scheme == "https" && a.Port() == "" && b.Port() == ""
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}

// ignoredExtensions are static or binary resources never worth tokenizing
var ignoredExtensions = []string{
	".zip", ".gz", ".bz2", ".tar", ".7z", ".png", ".gif", ".jpg", ".jpeg", ".webp",
	".css", ".js", ".ico", ".svg", ".woff", ".woff2", ".ttf", ".mp4", ".mp3", ".exe", ".dmg",
}

// ShouldIgnore reports whether the URL path ends in an ignored extension
func ShouldIgnore(u *url.URL) bool {
	path := strings.ToLower(u.Path)
	for _, ext := range ignoredExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
