package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/purehate/wordUP/internal/config"
	"github.com/purehate/wordUP/internal/runner"
	"github.com/purehate/wordUP/internal/tools"
	"github.com/purehate/wordUP/internal/version"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wordup <company or domain>",
		Short: "Targeted wordlist generation from an organisation's web footprint",
		Long: `wordUP - Wordlist Operations & Reconnaissance Data, Ultimate Profiling.

Discovers an organisation's hosts, harvests words from its live web pages and
expands them with transformation rules and a Markov model.

Examples:
  wordup acme.com
  wordup acme.com -w 50 -e -d --leet full
  wordup "Acme Corp" --seed 42 --count 5000 --sqlite`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runWordUp,
	}

	defaults := config.DefaultConfig()
	f := cmd.Flags()

	f.String("config", "", "YAML config file (flags override its values)")

	// Extraction and limits
	f.IntP("workers", "w", defaults.Workers, "Maximum number of concurrent requests")
	f.IntP("timeout", "t", int(defaults.Timeout/time.Second), "Request timeout in seconds")
	f.IntP("min-word-length", "m", defaults.MinWordLength, "Minimum word length")
	f.IntP("max-word-length", "x", defaults.MaxWordLength, "Maximum word length")
	f.BoolP("extract-emails", "e", false, "Enable email extraction")
	f.BoolP("extract-metadata", "d", false, "Enable metadata extraction")
	f.IntP("group-size", "g", defaults.GroupSize, "Word group size for n-grams (0 disables)")
	f.BoolP("verbose", "v", false, "Verbose output")

	// Generation
	f.Int("order", defaults.MarkovOrder, "Markov chain order")
	f.Int("count", 0, "Markov words to generate (0 = 50 x vocabulary)")
	f.Int64("seed", 0, "Random seed for reproducible generation (0 = time based)")
	f.String("leet", defaults.LeetMode, "Leetspeak mode: none, light, full")
	f.String("granularity", defaults.MarkovGranularity, "Markov granularity: char or word")
	f.Bool("affixes", defaults.Affixes, "Add common prefixes and suffixes")

	// Discovery
	f.Int("discovery-timeout", int(defaults.DiscoveryTimeout/time.Second), "Overall discovery timeout in seconds")
	f.String("resolvers", "", "DNS resolvers file or comma separated list")
	f.String("wordlist", "", "Extra subdomain labels for brute force (\"auto\" searches known locations)")
	f.Bool("no-brute", false, "Skip DNS brute force")
	f.Bool("whois", false, "Add the WHOIS registrant organisation as a company name")

	// HTTP
	f.Int("rate", 0, "Rate limit (requests per second, 0 = unlimited)")
	f.Bool("insecure", false, "Skip TLS certificate verification")
	f.String("user-agent", defaults.UserAgent, "HTTP User-Agent")

	// Output
	f.StringP("output", "o", defaults.OutputDir, "Directory the project folder is created in")
	f.Bool("sqlite", false, "Also store the run in a SQLite database")
	f.Bool("no-progress", false, "Disable spinners and progress bars")
	f.Bool("debug", false, "Show detailed timing logs")

	cmd.AddCommand(versionCmd)
	return cmd
}

// Execute runs the root command under ctx
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runWordUp(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	printBanner()

	r := runner.New(cfg)
	res, err := r.Run(cmd.Context())
	if err != nil {
		return err
	}

	printResults(res)
	return nil
}

// buildConfig loads the config file and applies every flag the user set.
// Flag types are fixed above, so the getters cannot fail.
func buildConfig(cmd *cobra.Command, target string) (*config.Config, error) {
	f := cmd.Flags()
	configFile, _ := f.GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	cfg.Target = target

	setInt := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}
	setString := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	setSeconds := func(name string, dst *time.Duration) {
		if f.Changed(name) {
			n, _ := f.GetInt(name)
			*dst = time.Duration(n) * time.Second
		}
	}

	setInt("workers", &cfg.Workers)
	setSeconds("timeout", &cfg.Timeout)
	setSeconds("discovery-timeout", &cfg.DiscoveryTimeout)
	setInt("min-word-length", &cfg.MinWordLength)
	setInt("max-word-length", &cfg.MaxWordLength)
	setBool("extract-emails", &cfg.ExtractEmails)
	setBool("extract-metadata", &cfg.ExtractMetadata)
	setInt("group-size", &cfg.GroupSize)
	setInt("order", &cfg.MarkovOrder)
	setInt("count", &cfg.MarkovCount)
	setString("leet", &cfg.LeetMode)
	setString("granularity", &cfg.MarkovGranularity)
	setBool("affixes", &cfg.Affixes)
	setString("wordlist", &cfg.WordlistFile)
	setBool("no-brute", &cfg.SkipBruteforce)
	setBool("whois", &cfg.Whois)
	setInt("rate", &cfg.RateLimit)
	setBool("insecure", &cfg.InsecureTLS)
	setString("user-agent", &cfg.UserAgent)
	setString("output", &cfg.OutputDir)
	setBool("sqlite", &cfg.EnableSQLite)
	setBool("no-progress", &cfg.NoProgress)
	if f.Changed("seed") {
		cfg.Seed, _ = f.GetInt64("seed")
	}
	cfg.LeetMode = strings.ToLower(cfg.LeetMode)
	cfg.MarkovGranularity = strings.ToLower(cfg.MarkovGranularity)

	verbose, _ := f.GetBool("verbose")
	debugFlag, _ := f.GetBool("debug")
	if verbose || debugFlag {
		cfg.Debug = true
	}

	if f.Changed("resolvers") {
		value, _ := f.GetString("resolvers")
		resolvers, err := parseResolvers(value)
		if err != nil {
			return nil, err
		}
		cfg.Resolvers = resolvers
	}
	return cfg, nil
}

// parseResolvers accepts a resolvers file or a comma separated list
func parseResolvers(value string) ([]string, error) {
	if _, err := os.Stat(value); err == nil {
		return tools.LoadResolvers(value)
	}
	resolvers := tools.NormalizeResolvers(strings.Split(value, ","))
	if len(resolvers) == 0 {
		return nil, fmt.Errorf("%w: resolvers: %q is neither a file nor a list", config.ErrInvalid, value)
	}
	return resolvers, nil
}

func printResults(res *runner.Result) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Println("[*] Top words")
	for i, e := range res.Summary.Stats.Top {
		if i == 10 {
			break
		}
		gray.Printf("    %2d. %-24s %d\n", i+1, e.Word, e.Count)
	}
	green.Printf("[+] %d vocabulary, %d comprehensive, %d generated, %d final words\n",
		len(res.Vocabulary), len(res.Comprehensive), len(res.Generated), len(res.Final))
	if len(res.Emails) > 0 {
		green.Printf("[+] %d email addresses\n", len(res.Emails))
	}
	gray.Printf("    run %s -> %s\n", res.RunID, res.OutputDir)
}

func printBanner() {
	red := color.New(color.FgRed, color.Bold)
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	red.Print(`
                      _ _   _ ____
 __      _____  _ __ __| | | | |  _ \
 \ \ /\ / / _ \| '__/ _' | | | | |_) |
  \ V  V / (_) | | | (_| | |_| |  __/
   \_/\_/ \___/|_|  \__,_|\___/|_|
`)
	fmt.Println()
	cyan.Print("  Wordlist Operations & Reconnaissance Data")
	gray.Printf("  v%s\n", version.Version)
	fmt.Println()
}
