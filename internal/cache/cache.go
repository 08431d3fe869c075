// Package cache stores fetched API responses in the divscan database.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Cache is a key/value store with per-entry expiry backed by the cache table
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a cache on an already migrated database
func New(db *sql.DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

// makeKey creates a data-type prefixed key so other data can share the table
func (*Cache) makeKey(key string) string {
	return "http:" + key
}

// Get returns the cached value for key. Expired entries are reported as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT value FROM cache WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)",
		c.makeKey(key), c.now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, true, nil
}

// Put stores value under key. A zero ttl never expires.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).Unix()
	}

	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, value, expires_at, created_at) VALUES (?, ?, ?, ?)",
		c.makeKey(key), value, expiresAt, c.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		"DELETE FROM cache WHERE expires_at IS NOT NULL AND expires_at <= ?", c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged entries: %w", err)
	}
	return n, nil
}

// Clear removes every cached response
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache WHERE key LIKE 'http:%'"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Count returns the number of live entries
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cache WHERE key LIKE 'http:%' AND (expires_at IS NULL OR expires_at > ?)",
		c.now().Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
