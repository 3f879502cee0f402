package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target = "acme.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"no target", func(c *Config) { c.Target = "" }, "target"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"huge workers", func(c *Config) { c.Workers = 5000 }, "workers"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"min above max", func(c *Config) { c.MinWordLength = 10; c.MaxWordLength = 5 }, "max_word_length"},
		{"min zero", func(c *Config) { c.MinWordLength = 0 }, "min_word_length"},
		{"group of one", func(c *Config) { c.GroupSize = 1 }, "group_size"},
		{"order zero", func(c *Config) { c.MarkovOrder = 0 }, "markov_order"},
		{"negative count", func(c *Config) { c.MarkovCount = -1 }, "markov_count"},
		{"bad leet", func(c *Config) { c.LeetMode = "extreme" }, "leet_mode"},
		{"bad granularity", func(c *Config) { c.MarkovGranularity = "byte" }, "markov_granularity"},
		{"negative rate", func(c *Config) { c.RateLimit = -3 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Target = "acme.com"
			tt.mod(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			var ie *InvalidError
			if !errors.As(err, &ie) || ie.Field != tt.field {
				t.Fatalf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		target, domain, company string
	}{
		{"acme.com", "acme.com", "acme"},
		{"https://www.acme.co.uk/about", "www.acme.co.uk", "acme"},
		{"Acme", "acme.com", "acme"},
		{"trusted sec", "trustedsec.com", "trusted sec"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Target = tt.target
		cfg.ResolveTarget()
		if cfg.Domain != tt.domain || cfg.CompanyName != tt.company {
			t.Errorf("ResolveTarget(%q) = (%q, %q), want (%q, %q)", tt.target, cfg.Domain, cfg.CompanyName, tt.domain, tt.company)
		}
	}
}

func TestMarkovTarget(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.MarkovTarget(10); got != 10*MarkovMultiplier {
		t.Errorf("auto target = %d", got)
	}
	cfg.MarkovCount = 7
	if got := cfg.MarkovTarget(10); got != 7 {
		t.Errorf("explicit target = %d", got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordup.yaml")
	body := "target: acme.com\nworkers: 5\ntimeout: 3s\nleet_mode: full\nresolvers:\n  - 9.9.9.9:53\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Target != "acme.com" || cfg.Workers != 5 || cfg.Timeout != 3*time.Second || cfg.LeetMode != LeetFull {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Resolvers) != 1 || cfg.Resolvers[0] != "9.9.9.9:53" {
		t.Fatalf("resolvers = %v", cfg.Resolvers)
	}
	// untouched fields keep defaults
	if cfg.MarkovOrder != 3 || cfg.MaxWordLength != 50 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
