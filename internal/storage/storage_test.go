package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocuments_WriteReadRemove(t *testing.T) {
	docs, err := NewDocuments(filepath.Join(t.TempDir(), "docs"))
	require.NoError(t, err)

	require.NoError(t, docs.WriteFile("state.plist", []byte("one")))
	require.NoError(t, docs.WriteFile("state.plist", []byte("two")))

	data, err := docs.ReadFile("state.plist")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	assert.True(t, docs.Exists("state.plist"))

	// No temp files left behind
	entries, err := os.ReadDir(docs.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, docs.Remove("state.plist"))
	require.NoError(t, docs.Remove("state.plist"), "removing twice is not an error")
	_, err = docs.ReadFile("state.plist")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDocuments_RejectsTraversal(t *testing.T) {
	docs, err := NewDocuments(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../x", "a/b"} {
		assert.ErrorIs(t, docs.WriteFile(name, nil), ErrInvalidName, name)
	}
}

func TestDocuments_MoveIntoPlace(t *testing.T) {
	tmp := t.TempDir()
	docs, err := NewDocuments(filepath.Join(tmp, "docs"))
	require.NoError(t, err)

	src := filepath.Join(tmp, "transfer.part")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	dst, err := docs.MoveIntoPlace(src, "movie.mp4")
	require.NoError(t, err)
	assert.Equal(t, docs.URL("movie.mp4"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestDocuments_MoveIntoPlace_MissingSource(t *testing.T) {
	docs, err := NewDocuments(t.TempDir())
	require.NoError(t, err)

	_, err = docs.MoveIntoPlace(filepath.Join(t.TempDir(), "nope"), "x.mp4")
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Léon: The Professional", "Leon-The-Professional"},
		{"../../etc/passwd", "etc-passwd"},
		{"  ", "download"},
		{"S01E02 - Pilot", "S01E02-Pilot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".mp4", Extension("/media/ep1.MP4", ".bin"))
	assert.Equal(t, ".bin", Extension("/media/stream", ".bin"))
}

func TestQueue_RunsInOrder(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 20; i++ {
		i := i
		require.NoError(t, q.Go(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, q.Do(context.Background(), func() {}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 20)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueue_DoContextCanceled(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	block := make(chan struct{})
	require.NoError(t, q.Go(func() { <-block }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
}

func TestQueue_CloseDrains(t *testing.T) {
	q := NewQueue()
	ran := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Go(func() { ran++ }))
	}
	q.Close()
	assert.Equal(t, 5, ran)
	assert.ErrorIs(t, q.Go(func() {}), ErrQueueClosed)
	q.Close()
}

func TestQueue_GoFromQueuedFunctionNeverBlocks(t *testing.T) {
	work := NewQueue()
	defer work.Close()
	io := NewQueue()
	defer io.Close()

	const n = 5000
	var mu sync.Mutex
	ran := 0
	require.NoError(t, work.Go(func() {
		for i := 0; i < n; i++ {
			assert.NoError(t, io.Go(func() {
				assert.NoError(t, work.Go(func() {
					mu.Lock()
					ran++
					mu.Unlock()
				}))
			}))
		}
	}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ran == n
	}, 5*time.Second, 10*time.Millisecond)
}

type plistRecord struct {
	URL      string    `plist:"url"`
	Progress float64   `plist:"progress"`
	At       time.Time `plist:"at"`
}

func TestDocuments_Plist(t *testing.T) {
	docs, err := NewDocuments(t.TempDir())
	require.NoError(t, err)

	var empty []plistRecord
	found, err := docs.LoadPlist("records.plist", &empty)
	require.NoError(t, err)
	assert.False(t, found)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []plistRecord{{URL: "https://cdn.example.com/a.mp4", Progress: 0.5, At: at}}
	require.NoError(t, docs.SavePlist("records.plist", in))

	var out []plistRecord
	found, err = docs.LoadPlist("records.plist", &out)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, out, 1)
	assert.Equal(t, "https://cdn.example.com/a.mp4", out[0].URL)
	assert.InDelta(t, 0.5, out[0].Progress, 0.0001)
	assert.True(t, at.Equal(out[0].At))
}

func TestDocuments_PlistCorrupt(t *testing.T) {
	docs, err := NewDocuments(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, docs.WriteFile("records.plist", []byte("bplist00\x00\x01garbage")))

	var out []plistRecord
	_, err = docs.LoadPlist("records.plist", &out)
	assert.ErrorIs(t, err, ErrCorrupt)
}
