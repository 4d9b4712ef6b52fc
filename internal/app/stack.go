package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/sniped/internal/adapters/cache"
	"github.com/okian/sniped/internal/adapters/champions"
	"github.com/okian/sniped/internal/adapters/riot"
	"github.com/okian/sniped/internal/config"
	"github.com/okian/sniped/pkg/logger"
)

// Stack is a Service wired to the adapters described by a Config. It owns
// the cache and the champion refresher.
type Stack struct {
	Service   *Service
	Riot      *riot.Client
	Champions *champions.Registry
	Cache     cache.Cache

	refresher *champions.Refresher
	log       logger.Logger
}

// NewStack builds the adapters and the Service from cfg. Extra options are
// applied to the Service after the configured ones.
func NewStack(ctx context.Context, cfg *config.Config, opts ...Option) (*Stack, error) {
	log := logger.Get()

	store, err := cache.Open(ctx, cfg.CacheBackend,
		cache.WithMaxEntries(cfg.CacheMaxEntries),
		cache.WithRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		cache.WithSQLitePath(cfg.SQLitePath),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.CacheBackend, err)
	}

	client, err := riot.NewClient(cfg.RiotAPIKey,
		riot.WithBaseURL(cfg.RiotBaseURL),
		riot.WithTimeout(cfg.RequestTimeout()),
		riot.WithRateLimits(cfg.RateLimitPerSecond, cfg.RateLimitPerTwoMinutes),
		riot.WithMaxRetries(cfg.MaxRetries),
		riot.WithConcurrency(cfg.FetchConcurrency),
		riot.WithCache(store, cfg.CacheTTL()),
		riot.WithLogger(log.Named("riot")),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	registry := champions.NewRegistry(
		champions.WithBaseURL(cfg.ChampionDataURL),
		champions.WithLogger(log.Named("champions")),
	)

	base := []Option{
		WithRiotClient(client),
		WithHistoryLimit(cfg.HistoryLimit),
		WithSelfFallback(cfg.SelfFallback),
		WithFuzzyMaxDistance(cfg.FuzzyMaxDistance),
		WithSearchTimeout(cfg.SearchTimeout()),
		WithChampions(registry),
		WithLogger(log.Named("search")),
	}
	svc, err := New(append(base, opts...)...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	st := &Stack{
		Service:   svc,
		Riot:      client,
		Champions: registry,
		Cache:     store,
		log:       log,
	}
	if interval := cfg.ChampionRefreshInterval(); interval > 0 {
		st.refresher, err = champions.NewRefresher(registry, interval, log.Named("champions"))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return st, nil
}

// Start launches background jobs.
func (s *Stack) Start() error {
	if s.refresher == nil {
		return nil
	}
	return s.refresher.Start()
}

// Close stops background jobs and releases the cache.
func (s *Stack) Close() error {
	var errs []error
	if s.refresher != nil {
		if err := s.refresher.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.Cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
