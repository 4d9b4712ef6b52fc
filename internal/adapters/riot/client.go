// Package riot is a rate-limited client for the Riot Games REST API
// (account-v1, spectator-v5, match-v5, status-v4).
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/sniped/internal/adapters/cache"
	"github.com/okian/sniped/internal/adapters/worker"
	"github.com/okian/sniped/pkg/logger"
	"github.com/okian/sniped/pkg/metrics"
)

// Defaults for a development key, kept below the published limits.
const (
	defaultRequestsPerSecond = 15
	defaultRequestsPer2Min   = 90
	defaultMaxRetries        = 3
	defaultRetryAfter        = time.Second
	defaultMaxRetryWait      = 10 * time.Second
	defaultConcurrency       = 8
	defaultTimeout           = 10 * time.Second
	defaultAccountTTL        = 10 * time.Minute
	defaultMatchTTL          = 24 * time.Hour
	maxBodyBytes             = 8 << 20
)

// Client is a rate-limited Riot API client.
type Client struct {
	apiKey       string
	httpClient   *http.Client
	baseURL      string
	limiter      *limiter
	maxRetries   int
	maxRetryWait time.Duration
	concurrency  int
	pool         *worker.Pool
	cache        cache.Cache
	accountTTL   time.Duration
	matchTTL     time.Duration
	log          logger.Logger
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		limiter:      newLimiter(defaultRequestsPerSecond, defaultRequestsPer2Min),
		maxRetries:   defaultMaxRetries,
		maxRetryWait: defaultMaxRetryWait,
		concurrency:  defaultConcurrency,
		cache:        cache.Nop{},
		accountTTL:   defaultAccountTTL,
		matchTTL:     defaultMatchTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("riot")
	}
	c.pool = worker.New(c.concurrency, worker.WithName("match_fetch"), worker.WithLogger(c.log))
	return c, nil
}

// host returns the API root for a routing value or platform id.
func (c *Client) host(route string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + route + ".api.riotgames.com"
}

// getCached serves url from the cache when possible and stores successful
// response bodies under key. An empty key bypasses the cache.
func (c *Client) getCached(ctx context.Context, key string, ttl time.Duration, endpoint, url string, out interface{}) error {
	if key != "" {
		if body, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
		} else if err != nil {
			c.log.Warn(ctx, "cache read failed", logger.String("key", key), logger.Error(err))
		}
	}

	body, err := c.get(ctx, endpoint, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, endpoint, err)
	}

	if key != "" {
		if err := c.cache.Set(ctx, key, body, ttl); err != nil {
			c.log.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return nil
}

// get performs a rate-limited GET, retrying 429 responses up to maxRetries
// times after the advertised Retry-After.
func (c *Client) get(ctx context.Context, endpoint, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		waited, err := c.limiter.Wait(ctx)
		if waited > 0 {
			metrics.RecordRateLimitWait(float64(waited.Milliseconds()))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Riot-Token", c.apiKey)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := float64(time.Since(start).Milliseconds())
		if err != nil {
			metrics.RecordUpstreamRequest(endpoint, "error", latency)
			return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), latency)

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, endpoint, readErr)
			}
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= c.maxRetries {
				return nil, fmt.Errorf("%w: %s after %d retries", ErrRateLimited, endpoint, attempt)
			}
			wait := c.retryAfter(resp.Header.Get("Retry-After"))
			c.log.Warn(ctx, "rate limited by upstream",
				logger.String("endpoint", endpoint),
				logger.Int("attempt", attempt+1),
				logger.Duration("retry_after", wait))
			metrics.RecordUpstreamRetry(endpoint)
			if err := sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s returned %d", ErrUnauthorized, endpoint, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: %s returned %d", ErrUnavailable, endpoint, resp.StatusCode)
		}
	}
}

// retryAfter parses a Retry-After value in seconds, bounded by maxRetryWait.
func (c *Client) retryAfter(v string) time.Duration {
	wait := defaultRetryAfter
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
		wait = time.Duration(secs) * time.Second
	}
	if wait > c.maxRetryWait {
		wait = c.maxRetryWait
	}
	return wait
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
