package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Leet modes
const (
	LeetNone  = "none"
	LeetLight = "light"
	LeetFull  = "full"
)

// Markov granularities
const (
	GranularityChar = "char"
	GranularityWord = "word"
)

// Config holds all configuration options for a wordUP run
type Config struct {
	// Target configuration
	Target      string `yaml:"target"`
	Domain      string `yaml:"domain"`       // Derived from Target when empty
	CompanyName string `yaml:"company_name"` // Derived from Target when empty

	// Performance
	Workers          int           `yaml:"workers"`           // Worker pool size for probe/fetch
	Timeout          time.Duration `yaml:"timeout"`           // Per-request timeout
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"` // Bounds the whole discovery phase
	RateLimit        int           `yaml:"rate_limit"`        // Requests per second, 0 = unlimited

	// Word filtering
	MinWordLength int `yaml:"min_word_length"`
	MaxWordLength int `yaml:"max_word_length"`

	// Extraction
	ExtractEmails   bool `yaml:"extract_emails"`
	ExtractMetadata bool `yaml:"extract_metadata"`

	// Transformation
	GroupSize int    `yaml:"group_size"` // 0 disables grouping and permutation
	LeetMode  string `yaml:"leet_mode"`  // none, light, full
	Affixes   bool   `yaml:"affixes"`

	// Markov generation
	MarkovOrder       int    `yaml:"markov_order"`
	MarkovCount       int    `yaml:"markov_count"` // 0 = auto (MarkovMultiplier x vocabulary)
	MarkovGranularity string `yaml:"markov_granularity"`
	Seed              int64  `yaml:"seed"` // 0 = time based

	// Discovery
	Resolvers      []string `yaml:"resolvers"`
	WordlistFile   string   `yaml:"wordlist"`
	SkipBruteforce bool     `yaml:"skip_bruteforce"`
	Whois          bool     `yaml:"whois"`

	// HTTP
	InsecureTLS bool   `yaml:"insecure_tls"`
	UserAgent   string `yaml:"user_agent"`

	// Output
	OutputDir    string `yaml:"output_dir"`
	EnableSQLite bool   `yaml:"sqlite"`

	// Debug
	Debug      bool `yaml:"debug"`
	NoProgress bool `yaml:"no_progress"`
}

// MarkovMultiplier is the expansion factor used when MarkovCount is 0
const MarkovMultiplier = 50

// DefaultUserAgent is sent with every request unless overridden
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) wordUP"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Workers:           20,
		Timeout:           10 * time.Second,
		DiscoveryTimeout:  60 * time.Second,
		MinWordLength:     3,
		MaxWordLength:     50,
		GroupSize:         2,
		LeetMode:          LeetLight,
		Affixes:           true,
		MarkovOrder:       3,
		MarkovGranularity: GranularityChar,
		UserAgent:         DefaultUserAgent,
		OutputDir:         ".",
	}
}

// InvalidError describes a single rejected field
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalid, e.Field, e.Reason)
}

func (e *InvalidError) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...interface{}) error {
	return &InvalidError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate rejects out-of-range values. It must run before any network activity.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Target) == "" && c.Domain == "" {
		return invalid("target", "is required")
	}
	if c.Workers < 1 || c.Workers > 1000 {
		return invalid("workers", "must be between 1 and 1000, got %d", c.Workers)
	}
	if c.Timeout <= 0 {
		return invalid("timeout", "must be positive, got %s", c.Timeout)
	}
	if c.DiscoveryTimeout <= 0 {
		return invalid("discovery_timeout", "must be positive, got %s", c.DiscoveryTimeout)
	}
	if c.RateLimit < 0 {
		return invalid("rate_limit", "must not be negative, got %d", c.RateLimit)
	}
	if c.MinWordLength < 1 {
		return invalid("min_word_length", "must be at least 1, got %d", c.MinWordLength)
	}
	if c.MaxWordLength < c.MinWordLength {
		return invalid("max_word_length", "must be >= min_word_length (%d), got %d", c.MinWordLength, c.MaxWordLength)
	}
	if c.GroupSize < 0 || c.GroupSize == 1 || c.GroupSize > 5 {
		return invalid("group_size", "must be 0 or between 2 and 5, got %d", c.GroupSize)
	}
	if c.MarkovOrder < 1 || c.MarkovOrder > 8 {
		return invalid("markov_order", "must be between 1 and 8, got %d", c.MarkovOrder)
	}
	if c.MarkovCount < 0 {
		return invalid("markov_count", "must not be negative, got %d", c.MarkovCount)
	}
	switch c.MarkovGranularity {
	case GranularityChar, GranularityWord:
	default:
		return invalid("markov_granularity", "must be %q or %q, got %q", GranularityChar, GranularityWord, c.MarkovGranularity)
	}
	switch c.LeetMode {
	case LeetNone, LeetLight, LeetFull:
	default:
		return invalid("leet_mode", "must be none, light or full, got %q", c.LeetMode)
	}
	return nil
}

// ResolveTarget fills Domain and CompanyName from Target.
// A target containing a dot is a domain; the company name is the first label of
// its registrable domain. Anything else is a company name with a .com domain.
func (c *Config) ResolveTarget() {
	target := strings.ToLower(strings.TrimSpace(c.Target))
	target = strings.TrimPrefix(target, "https://")
	target = strings.TrimPrefix(target, "http://")
	if i := strings.IndexAny(target, "/:"); i >= 0 {
		target = target[:i]
	}
	target = strings.TrimSuffix(target, ".")

	if c.Domain == "" {
		if strings.Contains(target, ".") {
			c.Domain = target
		} else {
			c.Domain = strings.ReplaceAll(target, " ", "") + ".com"
		}
	}
	if c.CompanyName == "" {
		if strings.Contains(target, ".") {
			c.CompanyName = CompanyFromDomain(c.Domain)
		} else {
			c.CompanyName = target
		}
	}
}

// CompanyFromDomain returns the first label of the registrable domain
// ("www.acme.co.uk" -> "acme").
func CompanyFromDomain(domain string) string {
	base, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		base = domain
	}
	return strings.SplitN(base, ".", 2)[0]
}

// MarkovTarget returns the number of words the generator should produce
func (c *Config) MarkovTarget(vocabSize int) int {
	if c.MarkovCount > 0 {
		return c.MarkovCount
	}
	return vocabSize * MarkovMultiplier
}

// Load reads a YAML config file on top of the defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
