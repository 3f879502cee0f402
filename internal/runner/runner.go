package runner

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/purehate/wordUP/internal/config"
	"github.com/purehate/wordUP/internal/debug"
	"github.com/purehate/wordUP/internal/extract"
	"github.com/purehate/wordUP/internal/historic"
	"github.com/purehate/wordUP/internal/markov"
	"github.com/purehate/wordUP/internal/normalize"
	"github.com/purehate/wordUP/internal/output"
	"github.com/purehate/wordUP/internal/probe"
	"github.com/purehate/wordUP/internal/ratelimit"
	"github.com/purehate/wordUP/internal/stats"
	"github.com/purehate/wordUP/internal/storage"
	"github.com/purehate/wordUP/internal/subdomain"
	"github.com/purehate/wordUP/internal/tools"
	"github.com/purehate/wordUP/internal/transform"
	"github.com/purehate/wordUP/internal/version"
)

// TopWords is the length of the ranked list in the summary
const TopWords = 20

// Runner drives one run from discovery to the written wordlists
type Runner struct {
	cfg *config.Config

	// Sources, Client and Limiter default from the configuration when nil
	Sources []subdomain.Source
	Client  *http.Client
	Limiter *ratelimit.RateLimiter

	Out io.Writer
	Now func() time.Time
}

// Result is everything a run produced
type Result struct {
	RunID         string                `json:"run_id"`
	Domain        string                `json:"domain"`
	Company       string                `json:"company"`
	Hosts         []subdomain.Candidate `json:"hosts"`
	Live          []probe.LiveHost      `json:"live"`
	Vocabulary    []string              `json:"-"`
	Comprehensive []string              `json:"-"`
	Generated     []string              `json:"-"`
	Final         []string              `json:"-"`
	Emails        []string              `json:"-"`
	Groups        []string              `json:"-"`
	Metadata      []string              `json:"-"`
	NewWords      []string              `json:"-"` // final words absent from earlier runs (SQLite only)
	Summary       Summary               `json:"summary"`
	OutputDir     string                `json:"output_dir,omitempty"`
}

// Summary is the statistics record written next to the wordlists
type Summary struct {
	RunID            string                     `json:"run_id"`
	Version          string                     `json:"version"`
	Domain           string                     `json:"domain"`
	Company          string                     `json:"company"`
	Started          time.Time                  `json:"started"`
	Duration         string                     `json:"duration"`
	HostsDiscovered  int                        `json:"hosts_discovered"`
	HostsLive        int                        `json:"hosts_live"`
	PagesFetched     int                        `json:"pages_fetched"`
	Fetch            extract.FetchStats         `json:"fetch"`
	TokensExtracted  int                        `json:"tokens_extracted"`
	VocabularySize   int                        `json:"vocabulary"`
	Comprehensive    int                        `json:"comprehensive"`
	MarkovTarget     int                        `json:"markov_target"`
	MarkovGenerated  int                        `json:"markov_generated"`
	MarkovDegenerate bool                       `json:"markov_degenerate,omitempty"`
	Final            int                        `json:"final"`
	Emails           int                        `json:"emails"`
	Groups           int                        `json:"groups"`
	NewWords         int                        `json:"new_words,omitempty"`
	Seed             int64                      `json:"seed"`
	Sources          map[string]int             `json:"sources"`
	Failures         map[string]string          `json:"failures,omitempty"`
	RateLimit        ratelimit.RateLimitSummary `json:"rate_limit"`
	Stats            stats.Snapshot             `json:"stats"`
	TopScored        []stats.Entry              `json:"top_scored"`
	Phases           map[string]string          `json:"phases"`
}

// New creates a runner for cfg
func New(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg, Out: os.Stdout, Now: time.Now}
}

// Run validates the configuration and runs every phase. Only an invalid
// configuration or a cancelled context fails the run; per-source and per-host
// failures are recorded in the summary.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.cfg
	cfg.ResolveTarget()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Debug {
		debug.Enable()
	}
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.Now == nil {
		r.Now = time.Now
	}

	start := r.Now()
	if r.Limiter == nil {
		r.Limiter = ratelimit.NewRateLimiter(cfg.RateLimit)
	}
	if r.Client == nil {
		r.Client = probe.NewClient(cfg.Timeout, cfg.InsecureTLS)
	}
	if r.Sources == nil {
		sources, err := r.defaultSources()
		if err != nil {
			return nil, err
		}
		r.Sources = sources
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = start.UnixNano()
	}

	res := &Result{Domain: cfg.Domain, Company: cfg.CompanyName}
	res.Summary = Summary{
		Version: version.Version,
		Domain:  cfg.Domain,
		Company: cfg.CompanyName,
		Started: start,
		Seed:    seed,
	}

	color.New(color.FgCyan).Fprintf(r.Out, "[*] Target: %s (company: %s)\n", cfg.Domain, cfg.CompanyName)
	progress := NewPhaseProgress(r.Out, false)

	// Phase 1: discovery
	phaseStart := startPhase(progress, PhaseDiscover)
	discovered := r.discover(ctx)
	res.Hosts = discovered.Hosts
	res.Summary.HostsDiscovered = len(discovered.Hosts)
	res.Summary.Sources = discovered.Sources
	res.Summary.Failures = make(map[string]string, len(discovered.Failures))
	for name, err := range discovered.Failures {
		res.Summary.Failures[name] = err.Error()
	}
	debug.Logf("candidates: %s", strings.Join(discovered.Names(), ", "))
	progress.SetCount(PhaseDiscover, "hosts", len(discovered.Hosts))
	progress.SetCount(PhaseDiscover, "failed sources", len(discovered.Failures))
	endPhase(progress, PhaseDiscover, phaseStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: probe
	phaseStart = startPhase(progress, PhaseProbe)
	prober := probe.NewProber(cfg, r.Client, r.Limiter)
	bar := progress.newBar(len(discovered.Hosts), "probing", cfg.NoProgress)
	prober.OnResult = func(string, bool) { addBar(bar) }
	res.Live = prober.Probe(ctx, discovered.Hosts)
	finishBar(bar)
	res.Summary.HostsLive = len(res.Live)
	progress.SetCount(PhaseProbe, "live", len(res.Live))
	endPhase(progress, PhaseProbe, phaseStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, lh := range res.Live {
		debug.Logf("live %s (%d)", lh.URL, lh.Status)
	}

	// Phase 3: fetch and extract
	phaseStart = startPhase(progress, PhaseFetch)
	normalizer := normalize.New(cfg.MinWordLength, cfg.MaxWordLength)
	agg := extract.NewAggregate(normalizer)
	fetcher := extract.NewFetcher(cfg, r.Client, r.Limiter)
	bar = progress.newBar(len(res.Live), "fetching", cfg.NoProgress)
	fetcher.OnHost = func(string, error) { addBar(bar) }
	res.Summary.Fetch = fetcher.FetchAll(ctx, res.Live, agg)
	finishBar(bar)
	res.Summary.PagesFetched = res.Summary.Fetch.Pages
	res.Summary.TokensExtracted = agg.RawTokens()
	progress.SetCount(PhaseFetch, "pages", res.Summary.Fetch.Pages)
	progress.SetCount(PhaseFetch, "failed", res.Summary.Fetch.Failed)
	progress.SetCount(PhaseFetch, "tokens", agg.RawTokens())
	endPhase(progress, PhaseFetch, phaseStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 4: vocabulary and statistics. Every fetch has joined, so the
	// aggregate is read without contention from here on.
	phaseStart = startPhase(progress, PhaseAnalyze)
	res.Vocabulary = agg.Vocabulary()
	res.Emails = agg.Emails()
	res.Metadata = agg.Metadata()
	pages := agg.Pages()
	table := agg.Table()
	res.Summary.VocabularySize = len(res.Vocabulary)
	res.Summary.Emails = len(res.Emails)
	res.Summary.Stats = table.Snapshot(TopWords)
	res.Summary.TopScored = table.TopScored(TopWords)
	progress.SetCount(PhaseAnalyze, "vocabulary", len(res.Vocabulary))
	progress.SetCount(PhaseAnalyze, "emails", len(res.Emails))
	endPhase(progress, PhaseAnalyze, phaseStart)

	// Phase 5: transformation rules
	phaseStart = startPhase(progress, PhaseTransform)
	engine := transform.NewEngine(cfg)
	engine.Now = r.Now
	ranked := table.Ranked(0, nil)
	transformed := engine.Comprehensive(res.Vocabulary, pages, ranked)
	res.Comprehensive = transformed.Comprehensive
	res.Groups = transformed.Groups
	res.Summary.Comprehensive = len(res.Comprehensive)
	res.Summary.Groups = len(res.Groups)
	progress.SetCount(PhaseTransform, "words", len(res.Comprehensive))
	progress.SetCount(PhaseTransform, "groups", len(res.Groups))
	endPhase(progress, PhaseTransform, phaseStart)

	// Phase 6: markov generation
	phaseStart = startPhase(progress, PhaseMarkov)
	res.Generated = r.generate(res, pages, seed)
	res.Summary.MarkovGenerated = len(res.Generated)
	res.Final = normalizer.Filter(append(append(make([]string, 0, len(res.Comprehensive)+len(res.Generated)), res.Comprehensive...), res.Generated...))
	res.Summary.Final = len(res.Final)
	progress.SetCount(PhaseMarkov, "generated", len(res.Generated))
	progress.SetCount(PhaseMarkov, "target", res.Summary.MarkovTarget)
	if res.Summary.MarkovDegenerate {
		progress.MarkSkipped(PhaseMarkov)
		debug.LogPhaseEnd(PhaseName[PhaseMarkov], phaseStart)
	} else {
		endPhase(progress, PhaseMarkov, phaseStart)
	}

	res.Summary.RateLimit = r.Limiter.GetSummary()

	// Phase 7: output
	phaseStart = startPhase(progress, PhaseOutput)
	res.Summary.Duration = formatDuration(r.Now().Sub(start))
	res.Summary.Phases = progress.Durations()
	mgr, err := r.save(ctx, res, start)
	if err != nil {
		progress.MarkFailed(PhaseOutput, err)
		return res, err
	}
	defer mgr.Close()
	progress.SetCount(PhaseOutput, "final", len(res.Final))
	if mgr.HasSQLite() {
		progress.SetCount(PhaseOutput, "new", len(res.NewWords))
	}
	endPhase(progress, PhaseOutput, phaseStart)
	mgr.PrintFiles(r.Out)

	progress.PrintSummary(r.Now().Sub(start), res.OutputDir)
	if debug.IsEnabled() {
		debug.Summary()
	}
	return res, nil
}

// startPhase marks phase running and returns its start time
func startPhase(progress *PhaseProgress, phase Phase) time.Time {
	progress.MarkRunning(phase)
	return debug.LogPhaseStart(PhaseName[phase])
}

func endPhase(progress *PhaseProgress, phase Phase, start time.Time) {
	progress.MarkCompleted(phase, time.Since(start))
	debug.LogPhaseEnd(PhaseName[phase], start)
}

// defaultSources builds the fixed discovery source list from the configuration
func (r *Runner) defaultSources() ([]subdomain.Source, error) {
	cfg := r.cfg
	getter := subdomain.NewGetter(cfg.DiscoveryTimeout, cfg.UserAgent)

	sources := subdomain.PassiveSources(getter)
	sources = append(sources, historic.NewCollector(getter))

	if !cfg.SkipBruteforce {
		labels := append([]string(nil), tools.CommonSubdomains...)
		if cfg.WordlistFile != "" {
			extra, err := tools.LoadWordlist(cfg.WordlistFile)
			if err != nil {
				return nil, fmt.Errorf("%w: wordlist: %v", config.ErrInvalid, err)
			}
			labels = append(labels, extra...)
		}
		resolvers := tools.TrustedResolvers()
		if len(cfg.Resolvers) > 0 {
			resolvers = tools.NormalizeResolvers(cfg.Resolvers)
		}
		sources = append(sources, subdomain.NewBruteForce(labels, resolvers, cfg.Workers, cfg.Timeout))
	}

	var org subdomain.OrgLookup
	if cfg.Whois {
		org = subdomain.LookupOrganization(cfg.Timeout)
	}
	variations := subdomain.NewVariations(cfg.CompanyName, org)
	variations.Now = r.Now
	sources = append(sources, variations)
	return sources, nil
}

func (r *Runner) discover(ctx context.Context) *subdomain.Result {
	names := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		names[i] = s.Name()
	}
	status := tools.NewSourceStatus(names)

	var spin *tools.Spinner
	if !r.cfg.NoProgress {
		spin = tools.NewSpinner(fmt.Sprintf("querying %d sources for %s", len(r.Sources), r.cfg.Domain))
		spin.Start()
	}

	var finished int32
	agg := subdomain.NewAggregator(r.cfg.DiscoveryTimeout, r.Sources...)
	agg.OnSource = func(name string, count int, err error) {
		status.Set(name, count, err)
		n := atomic.AddInt32(&finished, 1)
		if spin != nil {
			spin.Update(fmt.Sprintf("%d/%d sources finished for %s", n, len(r.Sources), r.cfg.Domain))
		}
	}
	res := agg.Discover(ctx, r.cfg.Domain)
	if spin != nil {
		if len(res.Hosts) > 0 {
			spin.Success(fmt.Sprintf("%d candidate hosts", len(res.Hosts)))
		} else {
			spin.Fail("no candidate hosts")
		}
	}
	status.Print(r.Out)
	return res
}

// generate trains the configured model and samples novel words. Words that
// are already in the comprehensive set never count toward the target.
func (r *Runner) generate(res *Result, pages [][]string, seed int64) []string {
	cfg := r.cfg
	target := cfg.MarkovTarget(len(res.Vocabulary))
	res.Summary.MarkovTarget = target

	var model *markov.Model
	if cfg.MarkovGranularity == config.GranularityWord {
		model = markov.TrainSequences(pages, cfg.MarkovOrder)
	} else {
		model = markov.Train(res.Vocabulary, cfg.MarkovOrder)
	}
	if err := model.Err(); err != nil {
		res.Summary.MarkovDegenerate = true
		color.New(color.FgYellow).Fprintf(r.Out, "[!] %v: no words generated\n", err)
		return nil
	}

	exclude := make(map[string]bool, len(res.Comprehensive))
	for _, w := range res.Comprehensive {
		exclude[w] = true
	}
	rng := rand.New(rand.NewSource(seed))
	return model.Generate(rng, markov.GenerateOptions{
		Target:  target,
		MinLen:  cfg.MinWordLength,
		MaxLen:  cfg.MaxWordLength,
		Exclude: exclude,
	})
}

// save writes the wordlists, the stats record and optionally the run database
func (r *Runner) save(ctx context.Context, res *Result, start time.Time) (*output.Manager, error) {
	cfg := r.cfg
	var (
		mgr *output.Manager
		err error
	)
	if cfg.EnableSQLite {
		mgr, err = output.NewManagerWithSQLite(cfg.OutputDir, cfg.CompanyName, start)
	} else {
		mgr, err = output.NewManager(cfg.OutputDir, cfg.CompanyName, start)
	}
	if err != nil {
		return nil, err
	}
	res.RunID = mgr.RunID()
	res.Summary.RunID = mgr.RunID()
	res.OutputDir = mgr.Dir()

	lists := map[string][]string{
		output.ListRaw:           res.Vocabulary,
		output.ListComprehensive: res.Comprehensive,
		output.ListFinal:         res.Final,
		output.ListEmails:        res.Emails,
		output.ListGroups:        res.Groups,
		output.ListMetadata:      res.Metadata,
	}
	for _, kind := range output.Lists {
		if _, err := mgr.SaveList(ctx, kind, lists[kind]); err != nil {
			mgr.Close()
			return nil, err
		}
	}
	db := mgr.SQLiteDB()
	recorded := false
	if db != nil {
		fresh, err := recordRun(ctx, db, res, lists, start)
		if err != nil {
			color.New(color.FgYellow).Fprintf(r.Out, "[!] SQLite write failed: %v\n", err)
		} else {
			recorded = true
			res.NewWords = fresh
			res.Summary.NewWords = len(fresh)
			if _, err := mgr.SaveList(ctx, output.ListNew, fresh); err != nil {
				mgr.Close()
				return nil, err
			}
		}
	}

	if _, err := mgr.SaveStats(ctx, res.Summary); err != nil {
		mgr.Close()
		return nil, err
	}
	if recorded {
		if err := db.CompleteRun(ctx, res.RunID, time.Since(start), res.Summary); err != nil {
			color.New(color.FgYellow).Fprintf(r.Out, "[!] SQLite write failed: %v\n", err)
		}
	}
	return mgr, nil
}

// recordRun stores the run, its hosts and wordlists, and returns the final
// words that no earlier run against the same domain produced
func recordRun(ctx context.Context, db *storage.SQLiteStorage, res *Result, lists map[string][]string, start time.Time) ([]string, error) {
	if err := db.CreateRun(ctx, res.RunID, res.Domain, res.Company, version.Version, start); err != nil {
		return nil, err
	}

	live := make(map[string]probe.LiveHost, len(res.Live))
	for _, lh := range res.Live {
		live[lh.Host] = lh
	}
	hosts := make([]storage.HostRecord, 0, len(res.Hosts))
	for _, c := range res.Hosts {
		h := storage.HostRecord{Host: c.Host, Source: c.Source}
		if lh, ok := live[c.Host]; ok {
			h.Live, h.URL, h.Status = true, lh.URL, lh.Status
		}
		hosts = append(hosts, h)
	}
	if err := db.SaveHosts(ctx, res.RunID, hosts); err != nil {
		return nil, err
	}

	kinds := make([]string, 0, len(lists))
	for k := range lists {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if kind == output.ListEmails {
			continue
		}
		if err := db.SaveWords(ctx, res.RunID, kind, lists[kind]); err != nil {
			return nil, err
		}
	}
	if err := db.SaveEmails(ctx, res.RunID, res.Emails); err != nil {
		return nil, err
	}
	return db.NewWords(ctx, res.RunID, output.ListFinal)
}

func addBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Add(1)
	}
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}
