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

// Environment names consulted by Load.
const (
	EnvPrefix     = "SNIPED_"
	EnvConfigPath = "SNIPED_CONFIG"
	envRiotAPIKey = "RIOT_API_KEY"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SNIPED_CONFIG is set
//  3. env (prefix SNIPED_)
//
// RIOT_API_KEY is honored when riot_api_key is otherwise unset.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, os.Getenv(EnvConfigPath))
}

// LoadFrom is Load with an explicit YAML file; an empty path skips the file.
func LoadFrom(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SNIPED_HISTORY_LIMIT -> history_limit. Underscores are kept to match
	// the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// comma separated origins from env
	if raw, ok := k.Get("cors_origins").(string); ok {
		_ = k.Set("cors_origins", splitList(raw))
	}
	if raw, ok := k.Get("metrics_labels").(string); ok {
		labels, err := splitLabels(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: metrics_labels: %w", ErrLoadConfig, err)
		}
		_ = k.Set("metrics_labels", labels)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.RiotAPIKey == "" {
		cfg.RiotAPIKey = os.Getenv(envRiotAPIKey)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.HistoryLimit < 1 || c.HistoryLimit > MaxHistoryLimit:
		return fmt.Errorf("%w: history_limit must be within 1..%d, got %d", ErrInvalidConfig, MaxHistoryLimit, c.HistoryLimit)
	case c.FetchConcurrency < 1:
		return fmt.Errorf("%w: fetch_concurrency must be positive", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	case c.FuzzyMaxDistance < 0:
		return fmt.Errorf("%w: fuzzy_max_distance must not be negative", ErrInvalidConfig)
	case c.SearchTimeoutMS < 1:
		return fmt.Errorf("%w: search_timeout_ms must be positive", ErrInvalidConfig)
	case c.MetricsRefreshIntervalSeconds < 1:
		return fmt.Errorf("%w: metrics_refresh_interval_seconds must be positive", ErrInvalidConfig)
	}

	switch c.SelfFallback {
	case SelfFallbackProceed, SelfFallbackFail:
	default:
		return fmt.Errorf("%w: self_fallback must be %q or %q, got %q",
			ErrInvalidConfig, SelfFallbackProceed, SelfFallbackFail, c.SelfFallback)
	}

	switch c.CacheBackend {
	case CacheMemory, CacheRedis, CacheSQLite, CacheNone:
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitLabels parses "key=value,key=value".
func splitLabels(raw string) (map[string]any, error) {
	out := make(map[string]any)
	for _, pair := range splitList(raw) {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
