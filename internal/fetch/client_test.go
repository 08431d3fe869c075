package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testutil "github.com/wizzomafizzo/divscan/internal/testing"
)

func noBackoff(int) time.Duration { return 0 }

type memoryCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	mu      sync.Mutex
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestGetSendsUserAgent(t *testing.T) {
	t.Parallel()

	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(Options{UserAgent: "divscan-test/1.0"})

	body, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "divscan-test/1.0", <-gotUA)
}

func TestGetJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"KO","price":68.12}`))
	}))
	defer srv.Close()

	var got struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	require.NoError(t, New(Options{}).GetJSON(context.Background(), srv.URL, &got))
	assert.Equal(t, "KO", got.Symbol)
	assert.InDelta(t, 68.12, got.Price, 0.0001)
}

func TestGetJSONDecodeError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>blocked</html>`))
	}))
	defer srv.Close()

	var got map[string]any
	err := New(Options{}).GetJSON(context.Background(), srv.URL, &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestGetRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, _ := testutil.NewTestContext(t)
	client := New(Options{Retries: 2, Backoff: noBackoff})

	body, err := client.Get(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Options{Retries: 3, Backoff: noBackoff}).Get(context.Background(), srv.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.False(t, statusErr.Retryable())
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetRetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(Options{Retries: 1, Backoff: noBackoff}).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetUsesCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	cache := newMemoryCache()
	client := New(Options{Cache: cache, CacheTTL: time.Hour})

	for i := 0; i < 3; i++ {
		body, err := client.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "fresh", string(body))
	}
	assert.Equal(t, int32(1), calls.Load(), "later calls are served from cache")
	assert.Equal(t, time.Hour, cache.ttls[srv.URL])
}

func TestGetDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cache := newMemoryCache()
	_, err := New(Options{Cache: cache}).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Empty(t, cache.entries)
}

func TestGetHonoursCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := New(Options{
		Retries: 5,
		Backoff: func(int) time.Duration {
			cancel()
			return time.Minute
		},
	})

	_, err := client.Get(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := New(Options{RatePerSec: 10})

	start := time.Now()
	for i := 0; i < 12; i++ {
		_, err := client.Get(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	// burst of 10, then two more tokens at 100ms each
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestLinearBackoff(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 200*time.Millisecond, LinearBackoff(0))
	assert.Equal(t, 400*time.Millisecond, LinearBackoff(2))
}
