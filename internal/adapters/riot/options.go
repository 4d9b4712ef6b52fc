package riot

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/sniped/internal/adapters/cache"
	"github.com/okian/sniped/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sends every request to url instead of the regional hosts.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds a single HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimits sets the per-second and per-two-minute request budgets.
// Zero disables a window.
func WithRateLimits(perSecond, perTwoMinutes int) Option {
	return func(c *Client) {
		c.limiter = newLimiter(perSecond, perTwoMinutes)
	}
}

// WithMaxRetries bounds retries of rate-limited requests.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithMaxRetryWait caps the honored Retry-After delay.
func WithMaxRetryWait(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.maxRetryWait = d
		}
	}
}

// WithConcurrency caps parallel match-detail requests.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCache stores account lookups for ttl and match details for a day.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		if store != nil {
			c.cache = store
		}
		if ttl > 0 {
			c.accountTTL = ttl
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
