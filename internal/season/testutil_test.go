package season

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/storage"
)

// fakeDownloader tracks download state per URL the way the manager reports it.
type fakeDownloader struct {
	mu        sync.Mutex
	states    map[string]download.State
	progress  map[string]float64
	completed []download.DownloadedFileInfo
	onStart   func(url string)
	starts    []string
	removed   []string
	paused    []string
	resumed   []string
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{
		states:   make(map[string]download.State),
		progress: make(map[string]float64),
	}
}

func (f *fakeDownloader) StartDownload(_ context.Context, url string, meta download.Meta) (*download.Download, error) {
	f.mu.Lock()
	hook := f.onStart
	f.mu.Unlock()
	if hook != nil {
		hook(url)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, url)
	if _, ok := f.states[url]; !ok {
		f.states[url] = download.StateInProgress
	}
	return &download.Download{URL: url, Meta: meta}, nil
}

func (f *fakeDownloader) PauseDownload(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.states[url]; !ok {
		return download.ErrNotActive
	}
	f.states[url] = download.StatePaused
	f.paused = append(f.paused, url)
	return nil
}

func (f *fakeDownloader) ResumeDownload(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.states[url]; !ok {
		return download.ErrNotActive
	}
	f.states[url] = download.StateInProgress
	f.resumed = append(f.resumed, url)
	return nil
}

func (f *fakeDownloader) RemoveDownload(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.states[url]; !ok {
		return download.ErrNotActive
	}
	delete(f.states, url)
	f.removed = append(f.removed, url)
	return nil
}

func (f *fakeDownloader) Get(_ context.Context, url string) (download.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[url]
	if !ok {
		return download.Snapshot{}, download.ErrNotActive
	}
	return download.Snapshot{URL: url, State: st, Progress: f.progress[url]}, nil
}

func (f *fakeDownloader) Completed(context.Context) ([]download.DownloadedFileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]download.DownloadedFileInfo(nil), f.completed...), nil
}

// complete records a finished download the way the manager's completed store would.
func (f *fakeDownloader) complete(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, url)
	f.completed = append(f.completed, download.DownloadedFileInfo{URL: url, LocalFileName: "done.mp4"})
}

func (f *fakeDownloader) setProgress(url string, p float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress[url] = p
}

func (f *fakeDownloader) set(url string, st download.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[url] = st
}

func (f *fakeDownloader) finish(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, url)
}

func (f *fakeDownloader) Starts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.starts...)
}

func (f *fakeDownloader) Removed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *fakeDownloader) Paused() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paused...)
}

func (f *fakeDownloader) Resumed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resumed...)
}

func newTestDocs(t *testing.T) *storage.Documents {
	t.Helper()
	docs, err := storage.NewDocuments(filepath.Join(t.TempDir(), "documents"))
	require.NoError(t, err)
	return docs
}

func testSeries() Series {
	return Series{MediaID: "tt0903747", Title: "Breaking Bad", PosterURL: "https://img.example.com/bb.jpg"}
}

func testSeason(n int) Season {
	s := Season{Number: 1}
	for i := 1; i <= n; i++ {
		s.Episodes = append(s.Episodes, EpisodeSource{
			Number: i,
			Title:  fmt.Sprintf("Episode %d", i),
			URL:    episodeURL(i),
		})
	}
	return s
}

func episodeURL(n int) string {
	return fmt.Sprintf("https://cdn.example.com/bb/s01e%02d.mp4", n)
}
