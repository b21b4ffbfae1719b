// Package monitor watches host conditions the download manager reacts to:
// network reachability, low power mode and foreground/background state.
package monitor

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const defaultProbeInterval = 30 * time.Second

// AvailabilityFunc is called when reachability flips.
type AvailabilityFunc func(ctx context.Context, available bool) error

// NetworkProber decides reachability by sending HEAD requests to a URL and
// reports only transitions. The network is assumed available at start.
type NetworkProber struct {
	url      string
	interval time.Duration
	client   *http.Client
	onChange AvailabilityFunc
	log      *slog.Logger

	mu        sync.Mutex
	available bool
}

// ProberOption configures a NetworkProber.
type ProberOption func(*NetworkProber)

// WithProbeClient sets the HTTP client used for probes.
func WithProbeClient(c *http.Client) ProberOption {
	return func(p *NetworkProber) {
		p.client = c
	}
}

// NewNetworkProber creates a prober for url.
func NewNetworkProber(url string, interval time.Duration, onChange AvailabilityFunc, log *slog.Logger, opts ...ProberOption) *NetworkProber {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	p := &NetworkProber{
		url:       url,
		interval:  interval,
		client:    &http.Client{Timeout: 5 * time.Second},
		onChange:  onChange,
		log:       log.With("component", "network"),
		available: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the component name for logging.
func (p *NetworkProber) Name() string {
	return "network"
}

// Available reports the last observed reachability.
func (p *NetworkProber) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// Probe reports whether the probe URL answered. Any HTTP response counts as reachable.
func (p *NetworkProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.log.Error("building probe request", "url", p.url, "error", err)
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("probe failed", "url", p.url, "error", err)
		return false
	}
	_ = resp.Body.Close()
	return true
}

// Check probes once and calls onChange if reachability flipped.
func (p *NetworkProber) Check(ctx context.Context) {
	now := p.Probe(ctx)
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	changed := now != p.available
	p.available = now
	p.mu.Unlock()
	if !changed {
		return
	}

	p.log.Info("network reachability changed", "available", now)
	if p.onChange == nil {
		return
	}
	if err := p.onChange(ctx, now); err != nil {
		p.log.Error("applying network change", "available", now, "error", err)
	}
}

// Start probes immediately and then every interval until ctx is done (blocking).
func (p *NetworkProber) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
