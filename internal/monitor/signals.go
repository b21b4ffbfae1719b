package monitor

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// HostState receives power and app-state changes. *download.Manager satisfies it.
type HostState interface {
	SetLowPower(ctx context.Context, on bool) error
	SetBackground(ctx context.Context, background bool) error
}

// Signals maps SIGUSR1 to toggling low power mode and SIGUSR2 to toggling
// background mode.
type Signals struct {
	target HostState
	log    *slog.Logger

	// OnForeground, if set, runs after every switch back to the foreground.
	OnForeground func(ctx context.Context)

	mu         sync.Mutex
	lowPower   bool
	background bool
}

// NewSignals creates a Signals forwarding to target.
func NewSignals(target HostState, log *slog.Logger) *Signals {
	if log == nil {
		log = slog.Default()
	}
	return &Signals{target: target, log: log.With("component", "signals")}
}

// Name returns the component name for logging.
func (s *Signals) Name() string {
	return "signals"
}

// Start handles signals until ctx is done (blocking).
func (s *Signals) Start(ctx context.Context) error {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-ch:
			s.Handle(ctx, sig)
		}
	}
}

// Handle applies one signal.
func (s *Signals) Handle(ctx context.Context, sig os.Signal) {
	switch sig {
	case syscall.SIGUSR1:
		s.mu.Lock()
		s.lowPower = !s.lowPower
		on := s.lowPower
		s.mu.Unlock()

		s.log.Info("low power toggled", "signal", sig.String(), "low_power", on)
		if err := s.target.SetLowPower(ctx, on); err != nil {
			s.log.Error("applying low power", "error", err)
		}
	case syscall.SIGUSR2:
		s.mu.Lock()
		s.background = !s.background
		bg := s.background
		s.mu.Unlock()

		s.log.Info("background toggled", "signal", sig.String(), "background", bg)
		if err := s.target.SetBackground(ctx, bg); err != nil {
			s.log.Error("applying app state", "error", err)
			return
		}
		if !bg && s.OnForeground != nil {
			s.OnForeground(ctx)
		}
	default:
		s.log.Debug("ignoring signal", "signal", sig.String())
	}
}

// State returns the current low power and background flags.
func (s *Signals) State() (lowPower, background bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lowPower, s.background
}
