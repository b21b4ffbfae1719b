// Package server provides the event-driven server components.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/stash/internal/events"
)

// Component is a long-running part of the daemon.
type Component interface {
	// Start runs the component until ctx is canceled (blocking).
	Start(ctx context.Context) error

	// Name returns the component name for logging.
	Name() string
}

// Config for the event-driven server.
type Config struct {
	EventRetention time.Duration // events older than this are pruned
	PruneInterval  time.Duration
}

// Runner owns the event bus and manages the lifecycle of every component.
type Runner struct {
	db         *sql.DB
	config     Config
	logger     *slog.Logger
	eventLog   *events.EventLog
	bus        *events.Bus
	components []Component
}

// NewRunner creates a runner whose bus persists events to db.
func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = time.Hour
	}
	eventLog := events.NewEventLog(db)
	return &Runner{
		db:       db,
		config:   cfg,
		logger:   logger,
		eventLog: eventLog,
		bus:      events.NewBus(eventLog, logger.With("component", "bus")),
	}
}

// Bus returns the event bus shared by all components.
func (r *Runner) Bus() *events.Bus {
	return r.bus
}

// EventLog returns the persistent event log.
func (r *Runner) EventLog() *events.EventLog {
	return r.eventLog
}

// Add registers components to start with Run.
func (r *Runner) Add(c ...Component) {
	r.components = append(r.components, c...)
}

// Run starts all components and the event pruner.
// It blocks until the context is canceled or a component fails.
func (r *Runner) Run(ctx context.Context) error {
	defer r.bus.Close()

	// Use errgroup to manage component lifecycle
	g, ctx := errgroup.WithContext(ctx)

	for _, c := range r.components {
		g.Go(func() error {
			r.logger.Debug("component starting", "component", c.Name())
			err := c.Start(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("component stopped", "component", c.Name(), "error", err)
				return err
			}
			r.logger.Debug("component stopped", "component", c.Name())
			return nil
		})
	}

	if r.config.EventRetention > 0 {
		g.Go(func() error {
			r.prune(ctx)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (r *Runner) prune(ctx context.Context) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	for {
		n, err := r.eventLog.Prune(r.config.EventRetention)
		if err != nil {
			r.logger.Error("pruning event log", "error", err)
		} else if n > 0 {
			r.logger.Info("pruned event log", "removed", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// HTTPServer serves an http.Handler as a Component.
type HTTPServer struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewHTTPServer creates an HTTP component listening on addr.
func NewHTTPServer(addr string, handler http.Handler, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	// Request contexts end when shutdown starts so long-lived streams return.
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return &HTTPServer{
		srv:             srv,
		shutdownTimeout: 30 * time.Second,
		logger:          logger.With("component", "http"),
	}
}

// Name returns the component name.
func (h *HTTPServer) Name() string {
	return "http"
}

// Start listens until ctx is canceled, then shuts down gracefully.
func (h *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("listening", "addr", h.srv.Addr)
		if err := h.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful HTTP shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

// LogRequests logs method, path, status and duration of every request.
func LogRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
