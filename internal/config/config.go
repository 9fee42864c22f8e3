// Package config loads the run configuration from defaults, an optional TOML
// file, a .env file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds everything a batch run needs.
type Config struct {
	GitHubToken string `toml:"github_token"`
	APIBaseURL  string `toml:"api_base_url"`
	GraphQLURL  string `toml:"graphql_url"`
	// HostPrefix is the prefix every input URL must start with.
	HostPrefix string `toml:"host_prefix"`

	InputFile  string `toml:"input_file"`
	Sheet      string `toml:"sheet"`
	Column     string `toml:"column"`
	OutputFile string `toml:"output_file"`

	MaxAttempts   int           `toml:"max_attempts"`
	RateLimitWait time.Duration `toml:"rate_limit_wait"`
	RetryWait     time.Duration `toml:"retry_wait"`
	ExactCounts   bool          `toml:"exact_counts"`

	Summarizer Summarizer `toml:"summarizer"`
}

// Summarizer configures the hosted summarization model.
type Summarizer struct {
	Enabled       bool          `toml:"enabled"`
	Endpoint      string        `toml:"endpoint"`
	Token         string        `toml:"token"`
	MinLength     int           `toml:"min_length"`
	MaxLength     int           `toml:"max_length"`
	MaxInputRunes int           `toml:"max_input_runes"`
	Timeout       time.Duration `toml:"timeout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		APIBaseURL:    "https://api.github.com/",
		GraphQLURL:    "https://api.github.com/graphql",
		HostPrefix:    "https://github.com/",
		InputFile:     "urls.xlsx",
		Sheet:         "urls",
		Column:        "url",
		OutputFile:    "CSV/results.csv",
		MaxAttempts:   3,
		RateLimitWait: 60 * time.Second,
		RetryWait:     2 * time.Second,
		Summarizer: Summarizer{
			Enabled:       true,
			Endpoint:      "https://api-inference.huggingface.co/models/facebook/bart-large-cnn",
			MinLength:     100,
			MaxLength:     292,
			MaxInputRunes: 4000,
			Timeout:       2 * time.Minute,
		},
	}
}

// Load builds a Config. If path is non-empty the TOML file at path is
// decoded over the defaults. A .env file in the working directory is loaded
// when present; variables already set in the environment win over it.
//
// Recognised variables: GITHUB_TOKEN, HF_TOKEN, GITHUB_REPORT_API_URL,
// GITHUB_REPORT_GRAPHQL_URL, GITHUB_REPORT_INPUT, GITHUB_REPORT_OUTPUT,
// GITHUB_REPORT_SUMMARY_ENDPOINT.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if v, ok := os.LookupEnv("GITHUB_TOKEN"); ok {
		cfg.GitHubToken = v
	}
	if v, ok := os.LookupEnv("HF_TOKEN"); ok {
		cfg.Summarizer.Token = v
	}
	if v, ok := os.LookupEnv("GITHUB_REPORT_API_URL"); ok {
		cfg.APIBaseURL = v
	}
	if v, ok := os.LookupEnv("GITHUB_REPORT_GRAPHQL_URL"); ok {
		cfg.GraphQLURL = v
	}
	if v, ok := os.LookupEnv("GITHUB_REPORT_INPUT"); ok {
		cfg.InputFile = v
	}
	if v, ok := os.LookupEnv("GITHUB_REPORT_OUTPUT"); ok {
		cfg.OutputFile = v
	}
	if v, ok := os.LookupEnv("GITHUB_REPORT_SUMMARY_ENDPOINT"); ok {
		cfg.Summarizer.Endpoint = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalises the base URL and rejects values the run cannot use.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api_base_url must not be empty")
	}
	if !strings.HasSuffix(c.APIBaseURL, "/") {
		c.APIBaseURL += "/"
	}
	if c.HostPrefix == "" {
		return errors.New("host_prefix must not be empty")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RateLimitWait < 0 || c.RetryWait < 0 {
		return errors.New("retry waits must not be negative")
	}
	s := c.Summarizer
	if s.Enabled {
		if s.Endpoint == "" {
			return errors.New("summarizer endpoint must not be empty")
		}
		if s.MinLength < 0 || s.MaxLength < s.MinLength {
			return fmt.Errorf("summarizer length bounds invalid: min %d, max %d", s.MinLength, s.MaxLength)
		}
	}
	return nil
}
