package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	v1 "github.com/vmunix/stash/internal/api/v1"
	"github.com/vmunix/stash/internal/background"
	"github.com/vmunix/stash/internal/config"
	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/handlers"
	"github.com/vmunix/stash/internal/metadata"
	"github.com/vmunix/stash/internal/migrations"
	"github.com/vmunix/stash/internal/monitor"
	"github.com/vmunix/stash/internal/season"
	"github.com/vmunix/stash/internal/server"
	"github.com/vmunix/stash/internal/storage"
)

const (
	shutdownTimeout   = 30 * time.Second
	pruneMetadataTask = "prune-metadata"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// app is the wired daemon.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	runner  *server.Runner
	session *download.HTTPSession
	manager *download.Manager
	seasons *season.Aggregator
	handler http.Handler
}

func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newNotifier(cfg config.NotificationsConfig, logger *slog.Logger) (download.Notifier, error) {
	if cfg.Command == "" {
		return handlers.NewLogNotifier(logger), nil
	}
	n, err := handlers.NewCommandNotifier(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}
	return n, nil
}

// newApp builds every component from cfg. Nothing runs until run is called.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := openDB(cfg.Storage.Database)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, db: db}
	if err := a.wire(); err != nil {
		if a.manager != nil {
			_ = a.manager.Close(context.Background())
		}
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg, logger := a.cfg, a.logger

	a.runner = server.NewRunner(a.db, server.Config{EventRetention: cfg.Events.Retention}, logger)
	bus := a.runner.Bus()

	// === Storage ===
	docs, err := storage.NewDocuments(cfg.Storage.DocumentsDir)
	if err != nil {
		return fmt.Errorf("documents: %w", err)
	}

	// === Downloads ===
	a.session, err = download.NewHTTPSession(cfg.Storage.TempDir, logger,
		download.WithUserAgent(cfg.Downloads.UserAgent),
		download.WithResponseHeaderTimeout(cfg.Downloads.RequestTimeout),
	)
	if err != nil {
		return fmt.Errorf("transfer session: %w", err)
	}

	a.manager = download.NewManager(a.session, docs, bus, download.Options{
		MaxConcurrent:             cfg.Downloads.MaxConcurrent,
		PendingRetention:          cfg.Downloads.PendingRetention,
		ForegroundPersistInterval: cfg.Downloads.ForegroundPersistInterval,
		BackgroundPersistInterval: cfg.Downloads.BackgroundPersistInterval,
	}, logger)

	coord := background.New(background.Options{Interval: cfg.Background.ResumeInterval}, logger)

	// === Seasons ===
	var watch season.WatchStatusSource
	if cfg.Watch.URL != "" {
		cache := metadata.NewCache(a.db)
		watch = metadata.NewWatchService(season.NewWatchClient(cfg.Watch.URL, cfg.Watch.Token), cache, cfg.Watch.CacheTTL, logger)
		coord.Register(pruneMetadataTask, func(ctx context.Context) error {
			n, err := cache.Prune(ctx, cfg.Watch.CacheMaxAge)
			if n > 0 {
				logger.Info("pruned metadata cache", "removed", n)
			}
			return err
		})
		if err := coord.Schedule(pruneMetadataTask, time.Minute); err != nil {
			return fmt.Errorf("schedule prune: %w", err)
		}
	}
	store := season.NewStore(docs, cfg.Seasons.PersistDebounce, logger)
	a.seasons = season.NewAggregator(store, a.manager, bus, watch, season.Options{
		EpisodeStartDelay: cfg.Seasons.EpisodeStartDelay,
		ReconcileThrottle: cfg.Seasons.ReconcileThrottle,
	}, logger)
	a.runner.Add(a.seasons)

	// === Notifications ===
	if cfg.Notifications.On() {
		notifier, err := newNotifier(cfg.Notifications, logger)
		if err != nil {
			return err
		}
		a.runner.Add(handlers.NewNotificationHandler(bus, notifier, logger))
	}

	// === Background work ===
	coord.Register(background.RefreshTask, a.manager.RefreshDownloads)
	if err := coord.Schedule(background.RefreshTask, cfg.Background.ResumeInterval); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	coord.SetSessionHandler(a.manager.HandleBackgroundSessionEvents)
	a.runner.Add(coord)

	// === Host state ===
	if cfg.Monitor.ProbeURL != "" {
		a.runner.Add(monitor.NewNetworkProber(cfg.Monitor.ProbeURL, cfg.Monitor.ProbeInterval, a.manager.SetNetworkAvailable, logger))
	}
	signals := monitor.NewSignals(a.manager, logger)
	signals.OnForeground = func(ctx context.Context) {
		if err := coord.DeliverSessionEvents(ctx); err != nil {
			logger.Error("delivering session events", "error", err)
		}
	}
	a.runner.Add(signals)

	// === HTTP ===
	api, err := v1.New(v1.ServerDeps{
		Downloads:  a.manager,
		Seasons:    a.seasons,
		EventLog:   a.runner.EventLog(),
		Bus:        a.runner.Bus(),
		Foreground: coord.DeliverSessionEvents,
	}, v1.Config{Version: version}, logger)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	a.handler = server.LogRequests(mux, logger)
	a.runner.Add(server.NewHTTPServer(cfg.Addr(), a.handler, logger))

	return nil
}

// run blocks until ctx is canceled or a component fails, then shuts down.
func (a *app) run(ctx context.Context) error {
	runErr := a.runner.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(runErr, a.close())
}

// close checkpoints every download and releases storage.
func (a *app) close() error {
	var errs []error
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.manager.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("downloads: %w", err))
	}
	a.session.Wait()

	// the manager has settled every transfer it will; flush what the groups saw
	if err := a.seasons.Close(); err != nil {
		errs = append(errs, fmt.Errorf("seasons: %w", err))
	}

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db: %w", err))
	}
	return errors.Join(errs...)
}

func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("server starting",
		"addr", cfg.Addr(),
		"documents", cfg.Storage.DocumentsDir,
		"database", cfg.Storage.Database,
		"notifications", cfg.Notifications.On(),
		"network_probe", cfg.Monitor.ProbeURL != "",
		"watch", cfg.Watch.URL != "",
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
