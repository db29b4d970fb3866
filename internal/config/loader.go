package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if APUNTIA_CONFIG is set
//  3. env (prefix APUNTIA_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("APUNTIA_CONFIG"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %w: %s", ErrLoadConfig, ErrConfigFileNotFound, path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: APUNTIA_ADDR, APUNTIA_STORE, ...
	// Keys map like APUNTIA_POSTGRES_DSN -> postgres_dsn, preserving
	// underscores to match the koanf tags on the struct.
	envProvider := env.Provider("APUNTIA_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "apuntia_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres store requires postgres_dsn", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.CacheEnabled && c.RedisAddr == "" {
		return fmt.Errorf("%w: cache requires redis_addr", ErrInvalidConfig)
	}
	if c.RatingMinVotes <= 0 {
		return fmt.Errorf("%w: rating_min_votes must be positive", ErrInvalidConfig)
	}
	if c.RatingFallbackPrior <= 0 || c.RatingFallbackPrior > 5 {
		return fmt.Errorf("%w: rating_fallback_prior must be in (0, 5]", ErrInvalidConfig)
	}
	return nil
}
