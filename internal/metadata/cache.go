// Package metadata caches responses from external metadata services so the
// last known answer stays available while the device is offline.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Entry is a cached value. Stale entries are still returned by Lookup.
type Entry struct {
	Value     []byte
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the entry is within its TTL at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Cache provides SQLite-backed caching for metadata API responses.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// NewCache creates a cache over the metadata_cache table of db.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

// Lookup returns the entry for key, fresh or stale.
func (c *Cache) Lookup(ctx context.Context, key string) (Entry, bool, error) {
	var (
		e     Entry
		value string
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT value, fetched_at, expires_at FROM metadata_cache WHERE key = ?", key,
	).Scan(&value, &e.FetchedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache lookup: %w", err)
	}
	e.Value = []byte(value)
	return e, true, nil
}

// Set stores value under key, fresh for ttl.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO metadata_cache (key, value, fetched_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   fetched_at = excluded.fetched_at,
		   expires_at = excluded.expires_at`,
		key, string(value), now, now.Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes a cached value. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM metadata_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Prune removes entries fetched more than maxAge ago and returns how many.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		"DELETE FROM metadata_cache WHERE fetched_at < ?", c.now().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return result.RowsAffected()
}
