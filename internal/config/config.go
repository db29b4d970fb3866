// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults, Load(ctx) to layer
//   file and environment sources on top.
// - External errors are wrapped via this package's sentinel errors.
package config

// Store backend labels.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: memory or postgres.
	Store string `koanf:"store"`

	// PostgresDSN is the connection string used when Store is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// CacheEnabled turns on the Redis ranking cache.
	CacheEnabled bool `koanf:"cache_enabled"`

	// RedisAddr is the Redis host:port used when the cache is enabled.
	RedisAddr string `koanf:"redis_addr"`

	// CacheTTLSeconds bounds how long cached rankings stay fresh.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// RatingMinVotes is m, the virtual-vote smoothing constant for the
	// weighted rating score.
	RatingMinVotes float64 `koanf:"rating_min_votes"`

	// RatingFallbackPrior is C's fallback when no note in a scoring
	// window has any votes.
	RatingFallbackPrior float64 `koanf:"rating_fallback_prior"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		Store:               StoreMemory,
		PostgresDSN:         "",
		CacheEnabled:        false,
		RedisAddr:           "localhost:6379",
		CacheTTLSeconds:     60,
		RatingMinVotes:      5,
		RatingFallbackPrior: 3.5,
	}
}
