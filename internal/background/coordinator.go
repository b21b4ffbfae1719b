// Package background grants the daemon periodic background work the way a
// host OS grants background refresh tasks, and relays "session events
// delivered" completions to the transfer layer.
package background

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrUnknownTask is returned when scheduling a task id that was never registered.
var ErrUnknownTask = errors.New("background task not registered")

const (
	// RefreshTask is the id of the periodic download refresh.
	RefreshTask = "refresh"

	defaultInterval = 15 * time.Minute
	defaultBudget   = 30 * time.Second
)

// TaskFunc is the work performed when a task's grant elapses. ctx expires
// when the grant's time budget runs out.
type TaskFunc func(ctx context.Context) error

// SessionHandler receives a completion func to call once every pending
// transfer-session event has been applied.
type SessionHandler func(done func())

// Options tunes a Coordinator. Zero values take the defaults.
type Options struct {
	Interval time.Duration // spacing between automatic reschedules
	Budget   time.Duration // time a single grant may run
}

// Coordinator runs registered tasks when their scheduled grant elapses.
// Every task is rescheduled Interval after it runs.
type Coordinator struct {
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	tasks   map[string]TaskFunc
	due     map[string]time.Time
	session SessionHandler
	wake    chan struct{}
}

// New creates a Coordinator.
func New(opts Options, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Budget <= 0 {
		opts.Budget = defaultBudget
	}
	return &Coordinator{
		opts:  opts,
		log:   log.With("component", "background"),
		tasks: make(map[string]TaskFunc),
		due:   make(map[string]time.Time),
		wake:  make(chan struct{}, 1),
	}
}

// Register installs fn as the handler for id. Registering an id again replaces its handler.
func (c *Coordinator) Register(id string, fn TaskFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[id] = fn
}

// Schedule asks for id to run no earlier than after from now. An earlier
// pending request for the same id is kept.
func (c *Coordinator) Schedule(id string, after time.Duration) error {
	c.mu.Lock()
	if _, ok := c.tasks[id]; !ok {
		c.mu.Unlock()
		return ErrUnknownTask
	}
	at := time.Now().Add(after)
	if cur, ok := c.due[id]; !ok || at.Before(cur) {
		c.due[id] = at
	}
	c.mu.Unlock()

	c.log.Debug("background task scheduled", "task", id, "after", after)
	c.signal()
	return nil
}

// Pending returns the ids of scheduled tasks ordered by due time.
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.due))
	for id := range c.due {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c.due[ids[i]].Before(c.due[ids[j]]) })
	return ids
}

func (c *Coordinator) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Name returns the component name for logging.
func (c *Coordinator) Name() string {
	return "background"
}

// Start runs due tasks until ctx is done (blocking).
func (c *Coordinator) Start(ctx context.Context) error {
	for {
		id, wait, ok := c.next()

		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		if ok {
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return ctx.Err()
		case <-c.wake:
			stopTimer(timer)
		case <-fire:
			c.run(ctx, id)
		}
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// next returns the earliest due task and how long until it is due.
func (c *Coordinator) next() (string, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		bestID string
		bestAt time.Time
	)
	for id, at := range c.due {
		if bestID == "" || at.Before(bestAt) {
			bestID, bestAt = id, at
		}
	}
	if bestID == "" {
		return "", 0, false
	}
	return bestID, max(time.Until(bestAt), 0), true
}

func (c *Coordinator) run(ctx context.Context, id string) {
	// Reschedule before running so a failing task still gets its next grant.
	c.mu.Lock()
	fn := c.tasks[id]
	c.due[id] = time.Now().Add(c.opts.Interval)
	c.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, c.opts.Budget)
	defer cancel()

	start := time.Now()
	if err := fn(runCtx); err != nil {
		c.log.Warn("background task failed", "task", id, "error", err)
		return
	}
	c.log.Info("background task completed", "task", id, "duration_ms", time.Since(start).Milliseconds())
}

// SetSessionHandler installs the transfer layer's session-events handler.
func (c *Coordinator) SetSessionHandler(h SessionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = h
}

// DeliverSessionEvents hands a completion func to the session handler and
// waits until it is called or ctx is done.
func (c *Coordinator) DeliverSessionEvents(ctx context.Context) error {
	c.mu.Lock()
	h := c.session
	c.mu.Unlock()
	if h == nil {
		return nil
	}

	done := make(chan struct{})
	var once sync.Once
	h(func() { once.Do(func() { close(done) }) })

	select {
	case <-done:
		c.log.Debug("background session events delivered")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
