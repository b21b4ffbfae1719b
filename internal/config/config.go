// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Storage       StorageConfig       `toml:"storage"`
	Downloads     DownloadsConfig     `toml:"downloads"`
	Seasons       SeasonsConfig       `toml:"seasons"`
	Notifications NotificationsConfig `toml:"notifications"`
	Monitor       MonitorConfig       `toml:"monitor"`
	Background    BackgroundConfig    `toml:"background"`
	Watch         WatchConfig         `toml:"watch"`
	Events        EventsConfig        `toml:"events"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type StorageConfig struct {
	DocumentsDir string `toml:"documents_dir"`
	TempDir      string `toml:"temp_dir"`
	Database     string `toml:"database"`
}

type DownloadsConfig struct {
	MaxConcurrent             int           `toml:"max_concurrent"`
	PendingRetention          time.Duration `toml:"pending_retention"`
	ForegroundPersistInterval time.Duration `toml:"foreground_persist_interval"`
	BackgroundPersistInterval time.Duration `toml:"background_persist_interval"`
	UserAgent                 string        `toml:"user_agent"`
	RequestTimeout            time.Duration `toml:"request_timeout"`
}

type SeasonsConfig struct {
	EpisodeStartDelay time.Duration `toml:"episode_start_delay"`
	ReconcileThrottle time.Duration `toml:"reconcile_throttle"`
	PersistDebounce   time.Duration `toml:"persist_debounce"`
}

type NotificationsConfig struct {
	Enabled *bool  `toml:"enabled"`
	Command string `toml:"command"`
}

// On reports whether local notifications are enabled (default true).
func (n NotificationsConfig) On() bool {
	return n.Enabled == nil || *n.Enabled
}

type MonitorConfig struct {
	ProbeURL      string        `toml:"probe_url"`
	ProbeInterval time.Duration `toml:"probe_interval"`
}

type BackgroundConfig struct {
	ResumeInterval time.Duration `toml:"resume_interval"`
}

type WatchConfig struct {
	URL         string        `toml:"url"`
	Token       string        `toml:"token"`
	CacheTTL    time.Duration `toml:"cache_ttl"`
	CacheMaxAge time.Duration `toml:"cache_max_age"`
}

type EventsConfig struct {
	Retention time.Duration `toml:"retention"`
}

// Load reads and parses the configuration file.
// Unresolved environment variables and validation failures are returned as *Error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	cfgErr := &Error{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8585
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Storage.DocumentsDir == "" {
		c.Storage.DocumentsDir = "./data/documents"
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = "./data/tmp"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "./data/events.db"
	}
	if c.Downloads.MaxConcurrent == 0 {
		c.Downloads.MaxConcurrent = 3
	}
	setDefault(&c.Downloads.PendingRetention, 7*24*time.Hour)
	setDefault(&c.Downloads.ForegroundPersistInterval, 2*time.Second)
	setDefault(&c.Downloads.BackgroundPersistInterval, 10*time.Second)
	setDefault(&c.Downloads.RequestTimeout, 30*time.Second)
	if c.Downloads.UserAgent == "" {
		c.Downloads.UserAgent = "stash/1.0"
	}
	setDefault(&c.Seasons.EpisodeStartDelay, 50*time.Millisecond)
	setDefault(&c.Seasons.ReconcileThrottle, 500*time.Millisecond)
	setDefault(&c.Seasons.PersistDebounce, 500*time.Millisecond)
	setDefault(&c.Monitor.ProbeInterval, 30*time.Second)
	setDefault(&c.Background.ResumeInterval, 15*time.Minute)
	setDefault(&c.Watch.CacheTTL, time.Minute)
	setDefault(&c.Watch.CacheMaxAge, 30*24*time.Hour)
	setDefault(&c.Events.Retention, 30*24*time.Hour)
}

func setDefault(d *time.Duration, v time.Duration) {
	if *d == 0 {
		*d = v
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR} with environment variable values.
// Variables without a value or default are left untouched and reported as missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, hasDefault, def := parts[1], parts[2] != "", parts[3]

		if value, ok := os.LookupEnv(name); ok && value != "" {
			return value
		}
		if hasDefault {
			return def
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})

	return result, missing
}

// Addr returns the API listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
