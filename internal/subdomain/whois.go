package subdomain

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"golang.org/x/net/publicsuffix"
)

var registrantOrgRe = regexp.MustCompile(`(?im)^\s*Registrant\s+Org(?:anization)?:\s*(.+)$`)

// redacted registrant values that must not become a company stem
var redactedOrgs = []string{"redacted", "privacy", "not disclosed", "data protected", "whoisguard", "domains by proxy"}

// LookupOrganization queries WHOIS for the registrable domain and returns the
// registrant organisation, or "" when it is missing or redacted.
func LookupOrganization(timeout time.Duration) OrgLookup {
	return func(ctx context.Context, domain string) (string, error) {
		base, err := publicsuffix.EffectiveTLDPlusOne(domain)
		if err != nil {
			base = domain
		}

		client := whois.NewClient()
		client.SetTimeout(timeout)

		type reply struct {
			raw string
			err error
		}
		ch := make(chan reply, 1)
		go func() {
			raw, err := client.Whois(base)
			ch <- reply{raw, err}
		}()

		var raw string
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r := <-ch:
			if r.err != nil {
				return "", fmt.Errorf("whois %s: %w", base, r.err)
			}
			raw = r.raw
		}
		return organizationFromWhois(raw), nil
	}
}

// organizationFromWhois prefers the parsed registrant and falls back to a
// line match for registries the parser does not know.
func organizationFromWhois(raw string) string {
	org := ""
	if info, err := whoisparser.Parse(raw); err == nil && info.Registrant != nil {
		org = info.Registrant.Organization
	}
	if org == "" {
		if m := registrantOrgRe.FindStringSubmatch(strings.ReplaceAll(raw, "\r\n", "\n")); len(m) == 2 {
			org = m[1]
		}
	}

	org = strings.TrimSpace(org)
	lower := strings.ToLower(org)
	for _, r := range redactedOrgs {
		if strings.Contains(lower, r) {
			return ""
		}
	}
	return org
}
