package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkProber_EdgeTriggered(t *testing.T) {
	var up atomic.Bool
	up.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if !up.Load() {
			// Hijack and drop the connection to look unreachable.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var (
		mu      sync.Mutex
		changes []bool
	)
	onChange := func(_ context.Context, available bool) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, available)
		return nil
	}
	p := NewNetworkProber(server.URL, 0, onChange, nil, WithProbeClient(server.Client()))
	ctx := context.Background()

	p.Check(ctx)
	p.Check(ctx)
	assert.Empty(t, changes)
	assert.True(t, p.Available())

	up.Store(false)
	p.Check(ctx)
	p.Check(ctx)
	assert.False(t, p.Available())

	up.Store(true)
	p.Check(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true}, changes)
}

func TestNetworkProber_ServerErrorStillReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewNetworkProber(server.URL, 0, nil, nil)
	assert.True(t, p.Probe(context.Background()))

	bad := NewNetworkProber("http://127.0.0.1:1", 0, nil, nil)
	assert.False(t, bad.Probe(context.Background()))
}

type fakeHost struct {
	mu         sync.Mutex
	lowPower   []bool
	background []bool
}

func (h *fakeHost) SetLowPower(_ context.Context, on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lowPower = append(h.lowPower, on)
	return nil
}

func (h *fakeHost) SetBackground(_ context.Context, bg bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.background = append(h.background, bg)
	return nil
}

func TestSignals_Toggle(t *testing.T) {
	host := &fakeHost{}
	s := NewSignals(host, nil)
	foregrounds := 0
	s.OnForeground = func(context.Context) { foregrounds++ }
	ctx := context.Background()

	s.Handle(ctx, syscall.SIGUSR1)
	s.Handle(ctx, syscall.SIGUSR1)
	s.Handle(ctx, syscall.SIGUSR2)
	lowPower, background := s.State()
	assert.False(t, lowPower)
	assert.True(t, background)

	s.Handle(ctx, syscall.SIGUSR2)
	s.Handle(ctx, syscall.SIGHUP)

	assert.Equal(t, []bool{true, false}, host.lowPower)
	assert.Equal(t, []bool{true, false}, host.background)
	assert.Equal(t, 1, foregrounds)
}
