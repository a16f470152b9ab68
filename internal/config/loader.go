package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables that steer loading itself.
const (
	EnvPrefix  = "TALENTRADAR_"
	EnvConfig  = EnvPrefix + "CONFIG"
	EnvDotFile = EnvPrefix + "ENV_FILE"
)

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file (TALENTRADAR_ENV_FILE, default ".env"); never overrides real env
//  3. YAML file if TALENTRADAR_CONFIG is set
//  4. env (prefix TALENTRADAR_, "__" separates sections)
func Load(_ context.Context) (*Config, error) {
	base := New()

	dotenv := os.Getenv(EnvDotFile)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TALENTRADAR_GITHUB__TOKEN -> github.token, TALENTRADAR_HTTP__ADDR -> http.addr
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first structural problem in c.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.Addr == "":
		return fmt.Errorf("%w: http.addr must not be empty", ErrInvalidConfig)
	case c.HTTP.MaxListLimit <= 0:
		return fmt.Errorf("%w: http.max_list_limit must be positive", ErrInvalidConfig)
	case c.Queue.Size <= 0:
		return fmt.Errorf("%w: queue.size must be positive", ErrInvalidConfig)
	case c.Worker.Count <= 0:
		return fmt.Errorf("%w: worker.count must be positive", ErrInvalidConfig)
	case c.Dedupe.Size <= 0:
		return fmt.Errorf("%w: dedupe.size must be positive", ErrInvalidConfig)
	case c.Enrichment.FetchTimeout <= 0:
		return fmt.Errorf("%w: enrichment.fetch_timeout must be positive", ErrInvalidConfig)
	case c.Enrichment.Concurrency <= 0:
		return fmt.Errorf("%w: enrichment.concurrency must be positive", ErrInvalidConfig)
	}

	if err := c.Scoring.Weights.validate(); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store.backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	return nil
}

func (w Weights) validate() error {
	named := map[string]float64{
		"faang_experience":          w.FAANG,
		"frontier_labs_experience":  w.FrontierLabs,
		"top_tech_companies":        w.TopTech,
		"github_activity":           w.GitHub,
		"x_engagement":              w.XEngagement,
		"research_publications":     w.Research,
		"education_tier":            w.Education,
		"years_experience":          w.Years,
		"open_source_contributions": w.OpenSource,
		"leadership_roles":          w.Leadership,
	}
	for name, v := range named {
		if v < 0 {
			return fmt.Errorf("%w: scoring.weights.%s must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
