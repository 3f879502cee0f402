package subdomain

import (
	"context"
	"time"

	"github.com/purehate/wordUP/internal/debug"
	"github.com/purehate/wordUP/internal/transform"
)

// OrgLookup returns the registrant organisation for a domain
type OrgLookup func(ctx context.Context, domain string) (string, error)

// Variations generates company-name hosts (acmecorp.acme.com, acme-2024.acme.com, ...)
type Variations struct {
	Company string
	Org     OrgLookup // optional second stem from WHOIS
	Now     func() time.Time
}

// NewVariations creates the company-variation source
func NewVariations(company string, org OrgLookup) *Variations {
	return &Variations{Company: company, Org: org, Now: time.Now}
}

func (v *Variations) Name() string { return "variations" }

// Discover never fails: a failed organisation lookup only drops the second stem
func (v *Variations) Discover(ctx context.Context, domain string) ([]string, error) {
	years := transform.Years(v.Now())
	stems := []string{v.Company}

	if v.Org != nil {
		org, err := v.Org(ctx, domain)
		if err != nil {
			debug.Logf("whois organisation lookup for %s: %v", domain, err)
		} else if org != "" && transform.CompanyStem(org) != transform.CompanyStem(v.Company) {
			stems = append(stems, org)
		}
	}

	var hosts []string
	for _, stem := range stems {
		for _, label := range transform.CompanyVariations(stem, years) {
			if host, ok := Normalize(label+"."+domain, domain); ok {
				hosts = append(hosts, host)
			}
		}
	}
	return hosts, nil
}
