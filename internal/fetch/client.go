// Package fetch is the shared HTTP transport for the market data APIs:
// rate limited, retried and optionally cached.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wizzomafizzo/divscan/internal/logging"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 64 << 20

// Cache stores response bodies by URL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Retryable reports whether the request may succeed if repeated
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Options configures a Client
type Options struct {
	HTTPClient *http.Client
	Cache      Cache
	// Backoff returns the delay before retry attempt n (0-based).
	Backoff   func(attempt int) time.Duration
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
	// RatePerSec limits requests per second; burst equals the rate.
	RatePerSec int
	Retries    int
}

// Client performs GET requests
type Client struct {
	http      *http.Client
	cache     Cache
	limiter   *rate.Limiter
	backoff   func(attempt int) time.Duration
	userAgent string
	cacheTTL  time.Duration
	retries   int
}

// New creates a client from opts
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	backoff := opts.Backoff
	if backoff == nil {
		backoff = LinearBackoff
	}

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec)
	}

	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		http:      httpClient,
		cache:     opts.Cache,
		limiter:   limiter,
		backoff:   backoff,
		userAgent: opts.UserAgent,
		cacheTTL:  opts.CacheTTL,
		retries:   retries,
	}
}

// LinearBackoff waits 200ms plus 100ms per previous attempt
func LinearBackoff(attempt int) time.Duration {
	return time.Duration(200+100*attempt) * time.Millisecond
}

// Get returns the response body for url
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	log := logging.Get(ctx)

	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("cache read failed")
		} else if ok {
			log.Trace().Str("url", url).Msg("cache hit")
			return body, nil
		}
	}

	var last error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		body, err := c.do(ctx, url)
		if err == nil {
			c.store(ctx, url, body)
			return body, nil
		}
		last = err

		if !retryable(ctx, err) || attempt == c.retries {
			break
		}

		delay := c.backoff(attempt)
		log.Debug().Err(err).Str("url", url).Int("attempt", attempt+2).Dur("delay", delay).
			Msg("request retry scheduled")

		tmr := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			tmr.Stop()
			return nil, ctx.Err()
		case <-tmr.C:
		}
	}
	return nil, last
}

// GetJSON decodes the response body for url into v
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("GET %s: failed to read body: %w", url, err)
	}
	return body, nil
}

func (c *Client) store(ctx context.Context, url string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, url, body, c.cacheTTL); err != nil {
		logging.Get(ctx).Warn().Err(err).Str("url", url).Msg("cache write failed")
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
