// Package config loads process-wide configuration from the environment.
//
// All curation knobs are set once at job start; there is no runtime
// reconfiguration. A local .env file is honored when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every knob for one curator run.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	PostgresDSN string `env:"POSTGRES_DSN,required"`

	LLMAPIKey string `env:"LLM_API_KEY,required"`
	LLMModel  string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMRPS    int    `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`

	// Scopes processed per run, in order.
	Scopes []string `env:"SCOPES" envSeparator:"," envDefault:"KR,US"`

	// ReferenceTZ anchors "today" and the recency window.
	ReferenceTZ string `env:"REFERENCE_TZ" envDefault:"Asia/Seoul"`

	// Curation limits.
	KeywordLimit      int `env:"KEYWORD_LIMIT" envDefault:"3"`
	ResultLimit       int `env:"RESULT_LIMIT" envDefault:"15"`
	PoolTarget        int `env:"POOL_TARGET" envDefault:"100"`
	RefillBatchSize   int `env:"REFILL_BATCH_SIZE" envDefault:"25"`
	MaxRefillAttempts int `env:"MAX_REFILL_ATTEMPTS" envDefault:"10"`
	ZeroYieldLimit    int `env:"ZERO_YIELD_LIMIT" envDefault:"2"`

	// Quality gates.
	MaxAgeDays      int `env:"MAX_AGE_DAYS" envDefault:"4"`
	MinContentChars int `env:"MIN_CONTENT_CHARS" envDefault:"180"`
	MaxContentChars int `env:"MAX_CONTENT_CHARS" envDefault:"6000"`

	// Fetching.
	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT" envDefault:"8s"`
	ImageProbeTimeout time.Duration `env:"IMAGE_PROBE_TIMEOUT" envDefault:"4s"`
	WebFetchRPS       float64       `env:"WEB_FETCH_RPS" envDefault:"2"`
	MaxImageBytes     int64         `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
	NormalizeWorkers  int           `env:"NORMALIZE_WORKERS" envDefault:"8"`

	// Extra blocked domains on top of the built-in set.
	BlockedDomains []string `env:"BLOCKED_DOMAINS" envSeparator:","`

	MetricsPort int `env:"METRICS_PORT" envDefault:"9090"`
}

// Load reads configuration from the environment, honoring an optional .env.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ResultLimit > c.PoolTarget {
		return fmt.Errorf("RESULT_LIMIT (%d) must not exceed POOL_TARGET (%d)", c.ResultLimit, c.PoolTarget)
	}

	if c.MinContentChars > c.MaxContentChars {
		return fmt.Errorf("MIN_CONTENT_CHARS (%d) must not exceed MAX_CONTENT_CHARS (%d)", c.MinContentChars, c.MaxContentChars)
	}

	if _, err := time.LoadLocation(c.ReferenceTZ); err != nil {
		return fmt.Errorf("invalid REFERENCE_TZ %q: %w", c.ReferenceTZ, err)
	}

	return nil
}

// Location returns the reference timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReferenceTZ)
	if err != nil {
		return time.UTC
	}

	return loc
}

// BlockedDomainSet returns the configured extra blocked domains as a
// normalized lookup set.
func (c *Config) BlockedDomainSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.BlockedDomains))

	for _, d := range c.BlockedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}

		set[strings.TrimPrefix(d, "www.")] = struct{}{}
	}

	return set
}
