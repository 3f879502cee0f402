package subdomain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/purehate/wordUP/internal/debug"
)

// Result is the merged output of every discovery source
type Result struct {
	Domain   string           `json:"domain"`
	Hosts    []Candidate      `json:"hosts"`
	Sources  map[string]int   `json:"sources"`
	Failures map[string]error `json:"-"`
	Duration time.Duration    `json:"duration"`
}

// Names returns the discovered hostnames in order
func (r *Result) Names() []string {
	names := make([]string, len(r.Hosts))
	for i, c := range r.Hosts {
		names[i] = c.Host
	}
	return names
}

// Aggregator runs a fixed list of sources concurrently under one timeout
type Aggregator struct {
	Sources []Source
	Timeout time.Duration

	// OnSource is called once per source as it completes or is abandoned
	OnSource func(name string, count int, err error)
}

// NewAggregator creates an aggregator over sources
func NewAggregator(timeout time.Duration, sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources, Timeout: timeout}
}

type sourceReply struct {
	index int
	hosts []string
	err   error
	start time.Time
}

// Discover queries all sources once and merges whatever finished before the
// timeout. Source failures are recorded, never returned. When two sources
// report the same host, the one earlier in Sources is its tag.
func (a *Aggregator) Discover(ctx context.Context, domain string) *Result {
	start := time.Now()
	result := &Result{
		Domain:   domain,
		Sources:  make(map[string]int),
		Failures: make(map[string]error),
	}

	dctx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	replies := make(chan sourceReply, len(a.Sources))
	for i, src := range a.Sources {
		go func(i int, src Source) {
			t0 := time.Now()
			hosts, err := src.Discover(dctx, domain)
			replies <- sourceReply{index: i, hosts: hosts, err: err, start: t0}
		}(i, src)
	}

	got := make([]*sourceReply, len(a.Sources))
	pending := len(a.Sources)
collect:
	for pending > 0 {
		select {
		case r := <-replies:
			got[r.index] = &r
			pending--
			a.report(a.Sources[r.index].Name(), r.start, len(r.hosts), r.err)
		case <-dctx.Done():
			break collect
		}
	}

	seen := make(map[string]bool)
	for i, src := range a.Sources {
		name := src.Name()
		r := got[i]
		if r == nil {
			err := fmt.Errorf("%s: %w: %v", name, ErrSourceUnavailable, dctx.Err())
			result.Failures[name] = err
			a.report(name, start, 0, err)
			continue
		}
		if r.err != nil {
			result.Failures[name] = r.err
			continue
		}

		added := 0
		for _, h := range r.hosts {
			host, ok := Normalize(h, domain)
			if !ok || seen[host] {
				continue
			}
			seen[host] = true
			result.Hosts = append(result.Hosts, Candidate{Host: host, Source: name})
			added++
		}
		result.Sources[name] = added
	}

	sort.Slice(result.Hosts, func(i, j int) bool { return result.Hosts[i].Host < result.Hosts[j].Host })
	result.Duration = time.Since(start)
	return result
}

func (a *Aggregator) report(name string, start time.Time, count int, err error) {
	debug.LogStep(name, start, count, err)
	if a.OnSource != nil {
		a.OnSource(name, count, err)
	}
}
