package subdomain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miekg/dns"

	"github.com/purehate/wordUP/internal/pool"
)

// BruteForce resolves common labels under the base domain
type BruteForce struct {
	Labels    []string
	Resolvers []string // host:port
	Workers   int
	Timeout   time.Duration

	client *dns.Client
}

// NewBruteForce creates a DNS brute-force source. Duplicate labels are dropped.
func NewBruteForce(labels, resolvers []string, workers int, timeout time.Duration) *BruteForce {
	seen := make(map[string]bool, len(labels))
	var uniq []string
	for _, l := range labels {
		l = strings.Trim(strings.ToLower(strings.TrimSpace(l)), ".")
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		uniq = append(uniq, l)
	}
	return &BruteForce{
		Labels:    uniq,
		Resolvers: resolvers,
		Workers:   workers,
		Timeout:   timeout,
		client:    &dns.Client{Net: "udp", Timeout: timeout},
	}
}

func (b *BruteForce) Name() string { return "bruteforce" }

// Discover resolves every label once. Names answering with the same addresses
// as a random label (wildcard DNS) are dropped.
func (b *BruteForce) Discover(ctx context.Context, domain string) ([]string, error) {
	if len(b.Resolvers) == 0 {
		return nil, unavailable(b.Name(), errors.New("no resolvers configured"))
	}
	if len(b.Labels) == 0 {
		return nil, nil
	}

	wildcard := b.wildcardAnswers(ctx, domain)

	var (
		mu      sync.Mutex
		found   []string
		failed  int
		lastErr error
	)
	err := pool.Run(ctx, len(b.Labels), b.Workers, func(ctx context.Context, i int) {
		host := b.Labels[i] + "." + domain
		answers, err := b.resolve(ctx, host, b.Resolvers[i%len(b.Resolvers)])

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed++
			lastErr = err
			return
		}
		if len(answers) == 0 || isWildcard(answers, wildcard) {
			return
		}
		found = append(found, host)
	})
	if err != nil && len(found) == 0 {
		return nil, unavailable(b.Name(), err)
	}
	if failed == len(b.Labels) {
		return nil, unavailable(b.Name(), lastErr)
	}
	return found, nil
}

// resolve returns the A and CNAME answers for host. NXDOMAIN is an empty answer.
func (b *BruteForce) resolve(ctx context.Context, host, server string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	qctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	in, _, err := b.client.ExchangeContext(qctx, msg, server)
	if err != nil {
		return nil, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, nil
	}

	var answers []string
	for _, rr := range in.Answer {
		switch v := rr.(type) {
		case *dns.A:
			answers = append(answers, v.A.String())
		case *dns.CNAME:
			answers = append(answers, "cname:"+strings.TrimSuffix(v.Target, "."))
		}
	}
	return answers, nil
}

func (b *BruteForce) wildcardAnswers(ctx context.Context, domain string) map[string]bool {
	probe := "wordup-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "." + domain
	answers, err := b.resolve(ctx, probe, b.Resolvers[0])
	if err != nil || len(answers) == 0 {
		return nil
	}
	set := make(map[string]bool, len(answers))
	for _, a := range answers {
		set[a] = true
	}
	return set
}

func isWildcard(answers []string, wildcard map[string]bool) bool {
	if len(wildcard) == 0 {
		return false
	}
	for _, a := range answers {
		if !wildcard[a] {
			return false
		}
	}
	return true
}
