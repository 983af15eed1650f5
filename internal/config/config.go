// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BaselineRating is the starting rating of every item.
	BaselineRating float64 `koanf:"baseline_rating"`

	// SamplerMaxAttempts bounds redraws when a pair repeats.
	SamplerMaxAttempts int `koanf:"sampler_max_attempts"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// FallbackLimit is how many global items an empty scope returns.
	FallbackLimit int `koanf:"fallback_limit"`

	// UniverseFile replaces the embedded name catalogue when set.
	UniverseFile string `koanf:"universe_file"`

	// StorageDriver is one of memory, sqlite, postgres, redis.
	StorageDriver string `koanf:"storage_driver"`

	// StorageDSN is the database/sql data source for sqlite and postgres.
	// Empty selects storage.DefaultDSN for the driver.
	StorageDSN string `koanf:"storage_dsn"`

	RedisAddr string `koanf:"redis_addr"`
	RedisDB   int    `koanf:"redis_db"`

	// PersistQueueSize bounds the pending save jobs.
	PersistQueueSize int `koanf:"persist_queue_size"`

	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		BaselineRating:      1200,
		SamplerMaxAttempts:  5,
		MaxLeaderboardLimit: 100,
		FallbackLimit:       100,
		StorageDriver:       "memory",
		RedisAddr:           "localhost:6379",
		PersistQueueSize:    1024,
		DedupeSize:          50_000,
	}
}
