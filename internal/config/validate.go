// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// Storage validation
	if c.Storage.DocumentsDir != "" && c.Storage.DocumentsDir == c.Storage.TempDir {
		errs = append(errs, "storage.temp_dir: must differ from storage.documents_dir")
	}

	// Downloads validation
	if c.Downloads.MaxConcurrent < 0 {
		errs = append(errs, fmt.Sprintf("downloads.max_concurrent: must not be negative, got %d", c.Downloads.MaxConcurrent))
	}
	errs = appendNegative(errs, "downloads.pending_retention", c.Downloads.PendingRetention)
	errs = appendNegative(errs, "downloads.foreground_persist_interval", c.Downloads.ForegroundPersistInterval)
	errs = appendNegative(errs, "downloads.background_persist_interval", c.Downloads.BackgroundPersistInterval)
	errs = appendNegative(errs, "downloads.request_timeout", c.Downloads.RequestTimeout)

	// Seasons validation
	errs = appendNegative(errs, "seasons.episode_start_delay", c.Seasons.EpisodeStartDelay)
	errs = appendNegative(errs, "seasons.reconcile_throttle", c.Seasons.ReconcileThrottle)
	errs = appendNegative(errs, "seasons.persist_debounce", c.Seasons.PersistDebounce)

	// Optional endpoints
	if c.Monitor.ProbeURL != "" {
		if err := checkURL(c.Monitor.ProbeURL); err != nil {
			errs = append(errs, fmt.Sprintf("monitor.probe_url: %v", err))
		}
	}
	if c.Watch.URL != "" {
		if err := checkURL(c.Watch.URL); err != nil {
			errs = append(errs, fmt.Sprintf("watch.url: %v", err))
		}
	}
	errs = appendNegative(errs, "watch.cache_ttl", c.Watch.CacheTTL)
	errs = appendNegative(errs, "watch.cache_max_age", c.Watch.CacheMaxAge)

	return errs
}

func appendNegative(errs []string, key string, d time.Duration) []string {
	if d < 0 {
		return append(errs, fmt.Sprintf("%s: must not be negative, got %s", key, d))
	}
	return errs
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
