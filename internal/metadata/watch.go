package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/stash/internal/season"
)

const (
	// DefaultWatchTTL is how long a fetched watch status is served without
	// asking the service again.
	DefaultWatchTTL = time.Minute

	keyPrefixWatch = "watch:"
)

// WatchService is a season.WatchStatusSource that caches the upstream source.
// A fresh entry short-circuits the source; when the source fails, the last
// known entry is served regardless of age.
type WatchService struct {
	source season.WatchStatusSource
	cache  *Cache
	ttl    time.Duration
	log    *slog.Logger
}

// NewWatchService wraps source with cache. A non-positive ttl uses DefaultWatchTTL.
func NewWatchService(source season.WatchStatusSource, cache *Cache, ttl time.Duration, log *slog.Logger) *WatchService {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultWatchTTL
	}
	return &WatchService{
		source: source,
		cache:  cache,
		ttl:    ttl,
		log:    log.With("component", "watch_cache"),
	}
}

func watchKey(mediaID string, seasonNumber int) string {
	return fmt.Sprintf("%s%s:%d", keyPrefixWatch, mediaID, seasonNumber)
}

// WatchStatus implements season.WatchStatusSource.
func (s *WatchService) WatchStatus(ctx context.Context, mediaID string, seasonNumber int) ([]season.WatchStatus, error) {
	key := watchKey(mediaID, seasonNumber)

	entry, cached, err := s.cache.Lookup(ctx, key)
	if err != nil {
		s.log.Warn("reading watch cache", "key", key, "error", err)
		cached = false
	}
	if cached && entry.Fresh(s.cache.now()) {
		if statuses, ok := s.decode(key, entry.Value); ok {
			s.log.Debug("cache hit", "key", key, "episodes", len(statuses))
			return statuses, nil
		}
	}

	statuses, fetchErr := s.source.WatchStatus(ctx, mediaID, seasonNumber)
	if fetchErr != nil {
		if cached {
			if stale, ok := s.decode(key, entry.Value); ok {
				s.log.Warn("watch service unavailable, serving cached status",
					"key", key, "fetched_at", entry.FetchedAt, "error", fetchErr)
				return stale, nil
			}
		}
		return nil, fetchErr
	}

	data, err := json.Marshal(statuses)
	if err != nil {
		s.log.Warn("encoding watch status for cache", "key", key, "error", err)
		return statuses, nil
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warn("writing watch cache", "key", key, "error", err)
	}
	return statuses, nil
}

func (s *WatchService) decode(key string, data []byte) ([]season.WatchStatus, bool) {
	var statuses []season.WatchStatus
	if err := json.Unmarshal(data, &statuses); err != nil {
		s.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return statuses, true
}
