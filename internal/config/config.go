// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and SNIPED_ env vars.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"time"
)

// Self-identification fallback policies.
const (
	SelfFallbackProceed = "proceed"
	SelfFallbackFail    = "fail"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
	CacheNone   = "none"
)

// MaxHistoryLimit is the largest history window the match provider serves.
const MaxHistoryLimit = 100

const writeTimeoutMargin = 10 * time.Second

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RiotAPIKey authenticates requests to the game-data provider.
	RiotAPIKey string `koanf:"riot_api_key"`

	// RiotBaseURL overrides the per-region provider hosts (proxies, tests).
	RiotBaseURL string `koanf:"riot_base_url"`

	// HistoryLimit is how many recent matches are cross-referenced.
	HistoryLimit int `koanf:"history_limit"`

	// RequestTimeoutMS bounds a single provider call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// SearchTimeoutMS bounds one pipeline stage.
	SearchTimeoutMS int `koanf:"search_timeout_ms"`

	// FetchConcurrency caps parallel match-detail requests.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// RateLimitPerSecond and RateLimitPerTwoMinutes mirror the provider key limits.
	RateLimitPerSecond     int `koanf:"rate_limit_per_second"`
	RateLimitPerTwoMinutes int `koanf:"rate_limit_per_two_minutes"`

	// MaxRetries bounds retries after a rate-limited response.
	MaxRetries int `koanf:"max_retries"`

	// SelfFallback is the policy when the searching player is not found in
	// the lobby: proceed or fail.
	SelfFallback string `koanf:"self_fallback"`

	// FuzzyMaxDistance bounds the edit distance for fuzzy self-identification.
	FuzzyMaxDistance int `koanf:"fuzzy_max_distance"`

	// CacheBackend selects memory, redis, sqlite or none.
	CacheBackend    string `koanf:"cache_backend"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`
	CacheMaxEntries int    `koanf:"cache_max_entries"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	SQLitePath string `koanf:"sqlite_path"`

	// ChampionDataURL is the Data Dragon root used to refresh champion names.
	ChampionDataURL string `koanf:"champion_data_url"`

	// ChampionRefreshIntervalMinutes schedules champion refreshes; 0 disables.
	ChampionRefreshIntervalMinutes int `koanf:"champion_refresh_interval_minutes"`

	// CORSOrigins lists allowed browser origins; AllowAllOrigins overrides it.
	CORSOrigins     []string `koanf:"cors_origins"`
	AllowAllOrigins bool     `koanf:"allow_all_origins"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshIntervalSeconds is how often process and service gauges are sampled.
	MetricsRefreshIntervalSeconds int `koanf:"metrics_refresh_interval_seconds"`

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsLabels are constant labels added to every metric. From env they
	// are given as "key=value,key=value".
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                       "info",
		LogFormat:                      "text",
		Addr:                           ":9080",
		HistoryLimit:                   MaxHistoryLimit,
		RequestTimeoutMS:               10_000,
		SearchTimeoutMS:                120_000,
		FetchConcurrency:               8,
		RateLimitPerSecond:             15,
		RateLimitPerTwoMinutes:         90,
		MaxRetries:                     3,
		SelfFallback:                   SelfFallbackProceed,
		FuzzyMaxDistance:               2,
		CacheBackend:                   CacheMemory,
		CacheTTLSeconds:                600,
		CacheMaxEntries:                10_000,
		RedisAddr:                      "localhost:6379",
		SQLitePath:                     "sniped-cache.db",
		ChampionDataURL:                "https://ddragon.leagueoflegends.com",
		ChampionRefreshIntervalMinutes: 360,
		CORSOrigins:                    []string{"http://localhost:3000"},
		MetricsEnabled:                 true,
		MetricsRefreshIntervalSeconds:  10,
		MetricsNamespace:               "sniped",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// SearchTimeout returns SearchTimeoutMS as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ChampionRefreshInterval returns the champion refresh period.
func (c *Config) ChampionRefreshInterval() time.Duration {
	return time.Duration(c.ChampionRefreshIntervalMinutes) * time.Minute
}

// MetricsRefreshInterval returns MetricsRefreshIntervalSeconds as a duration.
func (c *Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshIntervalSeconds) * time.Second
}

// WriteTimeout bounds an HTTP response. A search runs two stages, each
// bounded by SearchTimeout, and the margin covers encoding the result.
func (c *Config) WriteTimeout() time.Duration {
	return 2*c.SearchTimeout() + writeTimeoutMargin
}
