package download

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vmunix/stash/internal/events"
	"github.com/vmunix/stash/internal/storage"
)

// fakeSession records every Start and hands out controllable tasks.
type fakeSession struct {
	mu       sync.Mutex
	delegate SessionDelegate
	starts   []fakeStart
	tasks    map[string]*fakeTask
	token    func(url string) []byte
	hold     bool
}

type fakeStart struct {
	URL        string
	ResumeData []byte
}

func newFakeSession() *fakeSession {
	return &fakeSession{tasks: make(map[string]*fakeTask)}
}

func (s *fakeSession) SetDelegate(d SessionDelegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = d
}

func (s *fakeSession) Start(url string, resumeData []byte) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, fakeStart{URL: url, ResumeData: resumeData})
	t := &fakeTask{url: url, session: s}
	if s.token != nil {
		t.cancelToken = s.token(url)
	}
	s.tasks[url] = t
	return t
}

func (s *fakeSession) Starts() []fakeStart {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fakeStart, len(s.starts))
	copy(out, s.starts)
	return out
}

func (s *fakeSession) Task(url string) *fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[url]
}

// HoldCancels makes later cancels wait for ConfirmCancel.
func (s *fakeSession) HoldCancels(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hold = on
}

func (s *fakeSession) holding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hold
}

func (s *fakeSession) Delegate() SessionDelegate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delegate
}

// fakeTask answers a cancel synchronously with cancelToken, unless the
// session is holding cancels.
type fakeTask struct {
	url     string
	session *fakeSession

	mu          sync.Mutex
	cancelToken []byte
	live        []byte
	canceled    bool
	confirm     func([]byte)
}

func (t *fakeTask) CancelWithResumeData(fn func([]byte)) {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		fn(nil)
		return
	}
	t.canceled = true
	token := t.cancelToken
	if t.session != nil && t.session.holding() {
		t.confirm = fn
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	fn(token)
}

// ConfirmCancel delivers a held cancel.
func (t *fakeTask) ConfirmCancel() {
	t.mu.Lock()
	fn, token := t.confirm, t.cancelToken
	t.confirm = nil
	t.mu.Unlock()
	if fn != nil {
		fn(token)
	}
}

func (t *fakeTask) ResumeData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func (t *fakeTask) SetLive(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = data
}

func (t *fakeTask) Canceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

func newTestDocs(t *testing.T) *storage.Documents {
	t.Helper()
	docs, err := storage.NewDocuments(filepath.Join(t.TempDir(), "documents"))
	require.NoError(t, err)
	return docs
}

func newTestManager(t *testing.T, session Session, docs *storage.Documents, bus *events.Bus, opts Options) *Manager {
	t.Helper()
	m := NewManager(session, docs, bus, opts, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Close(ctx)
	})
	return m
}

func syncManager(t *testing.T, m *Manager) {
	t.Helper()
	// completion hops between the two queues, so drain a few rounds
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Sync(context.Background()))
	}
}

func waitEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}
