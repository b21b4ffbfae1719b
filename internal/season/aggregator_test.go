package season

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/events"
	"github.com/vmunix/stash/internal/storage"
)

var testOpts = Options{EpisodeStartDelay: time.Millisecond, ReconcileThrottle: 20 * time.Millisecond}

func newTestAggregator(t *testing.T, docs *storage.Documents, dl Downloader, bus *events.Bus) *Aggregator {
	t.Helper()
	store := NewStore(docs, 10*time.Millisecond, nil)
	a := NewAggregator(store, dl, bus, nil, testOpts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = a.Close()
	})
	return a
}

func publishProgress(t *testing.T, bus *events.Bus, url string, p float64) {
	t.Helper()
	require.NoError(t, bus.Publish(context.Background(), &events.DownloadProgressed{
		BaseEvent: events.NewBaseEvent(events.EventDownloadProgressed, events.EntityDownload, url),
		URL:       url,
		Progress:  p,
	}))
}

func publishCompleted(t *testing.T, bus *events.Bus, url string) {
	t.Helper()
	require.NoError(t, bus.Publish(context.Background(), &events.DownloadCompleted{
		BaseEvent:     events.NewBaseEvent(events.EventDownloadCompleted, events.EntityDownload, url),
		URL:           url,
		LocalFileName: "x.mp4",
	}))
}

func assertCountInvariant(t *testing.T, a *Aggregator) {
	t.Helper()
	for _, g := range a.Groups() {
		eps := a.Episodes(g.ID)
		downloaded := 0
		for _, ep := range eps {
			if ep.IsDownloaded {
				downloaded++
			}
		}
		assert.Equal(t, len(eps), g.TotalEpisodes, g.ID)
		assert.Equal(t, downloaded, g.DownloadedEpisodes, g.ID)
	}
}

func TestAggregator_DownloadSeason(t *testing.T) {
	bus := events.NewBus(nil, nil)
	created := bus.Subscribe(events.EventSeasonCreated, 10)
	dl := newFakeDownloader()
	a := newTestAggregator(t, newTestDocs(t), dl, bus)

	g, err := a.DownloadSeason(context.Background(), testSeries(), testSeason(3))
	require.NoError(t, err)
	assert.Equal(t, "tt0903747-S1", g.ID)
	assert.Equal(t, "Season 1", g.SeasonTitle)
	assert.Equal(t, 3, g.TotalEpisodes)
	assert.Equal(t, 0, g.DownloadedEpisodes)

	require.Eventually(t, func() bool { return len(dl.Starts()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{episodeURL(1), episodeURL(2), episodeURL(3)}, dl.Starts())

	eps := a.Episodes(g.ID)
	require.Len(t, eps, 3)
	assert.Equal(t, "tt0903747-S1-E2", eps[1].ID)
	assert.Equal(t, download.KindEpisode, eps[1].Meta.Kind)
	assert.Equal(t, 2, eps[1].Meta.Episode)
	assert.Equal(t, g.ID, eps[1].Meta.Extra["group_id"])

	select {
	case e := <-created:
		assert.Equal(t, 3, e.(*events.SeasonCreated).TotalEpisodes)
	case <-time.After(time.Second):
		t.Fatal("no season.created event")
	}

	// A second request reuses the group.
	again, err := a.DownloadSeason(context.Background(), testSeries(), testSeason(3))
	require.NoError(t, err)
	assert.Equal(t, g.ID, again.ID)
	assert.Len(t, a.Groups(), 1)
	select {
	case <-created:
		t.Fatal("season.created published twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAggregator_DownloadSeasonWithoutEpisodes(t *testing.T) {
	a := newTestAggregator(t, newTestDocs(t), newFakeDownloader(), nil)

	_, err := a.DownloadSeason(context.Background(), testSeries(), Season{Number: 2})
	assert.ErrorIs(t, err, ErrNoEpisodes)
	assert.Empty(t, a.Groups())
}

func TestAggregator_ReconcilesProgressAndCompletion(t *testing.T) {
	bus := events.NewBus(nil, nil)
	updated := bus.Subscribe(events.EventSeasonUpdated, 10)
	a := newTestAggregator(t, newTestDocs(t), newFakeDownloader(), bus)

	g, err := a.DownloadSeason(context.Background(), testSeries(), testSeason(3))
	require.NoError(t, err)

	publishProgress(t, bus, episodeURL(1), 0.3)
	publishProgress(t, bus, episodeURL(1), 0.6)
	publishCompleted(t, bus, episodeURL(2))

	require.Eventually(t, func() bool {
		got, ok := a.store.Group(g.ID)
		return ok && got.DownloadedEpisodes == 1
	}, time.Second, 5*time.Millisecond)

	eps := a.Episodes(g.ID)
	assert.InDelta(t, 0.6, eps[0].Progress, 1e-9)
	assert.True(t, eps[1].IsDownloaded)
	assert.Equal(t, 1.0, eps[1].Progress)
	assert.False(t, eps[2].IsDownloaded)
	assertCountInvariant(t, a)

	select {
	case e := <-updated:
		u := e.(*events.SeasonUpdated)
		assert.Equal(t, 1, u.DownloadedEpisodes)
		assert.InDelta(t, (0.6+1.0)/3, u.Progress, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("no season.updated event")
	}
}

func TestAggregator_FailedEpisodeLeavesOthersCounted(t *testing.T) {
	bus := events.NewBus(nil, nil)
	a := newTestAggregator(t, newTestDocs(t), newFakeDownloader(), bus)

	g, err := a.DownloadSeason(context.Background(), testSeries(), testSeason(3))
	require.NoError(t, err)

	publishProgress(t, bus, episodeURL(2), 0.4)
	require.NoError(t, bus.Publish(context.Background(), &events.DownloadFailed{
		BaseEvent: events.NewBaseEvent(events.EventDownloadFailed, events.EntityDownload, episodeURL(2)),
		URL:       episodeURL(2),
		Reason:    "connection reset",
		Retryable: true,
	}))
	publishCompleted(t, bus, episodeURL(1))
	publishCompleted(t, bus, episodeURL(3))

	require.Eventually(t, func() bool {
		got, _ := a.store.Group(g.ID)
		return got.DownloadedEpisodes == 2
	}, time.Second, 5*time.Millisecond)

	got, _ := a.store.Group(g.ID)
	assert.False(t, got.Complete())
	ep2, ok := a.store.Episode(EpisodeID(g.ID, 2))
	require.True(t, ok)
	assert.False(t, ep2.IsDownloaded)
	assert.InDelta(t, 0.4, ep2.Progress, 1e-9)
	assertCountInvariant(t, a)
}

func TestAggregator_CompletedEpisodeIgnoresLaterProgress(t *testing.T) {
	ep := Episode{IsDownloaded: true, Progress: 1}
	assert.False(t, applyObservation(&ep, observation{progress: 0.2}))
	assert.Equal(t, 1.0, ep.Progress)

	ep = Episode{Progress: 0.5}
	assert.True(t, applyObservation(&ep, observation{removed: true}))
	assert.Equal(t, 0.0, ep.Progress)
}

func TestAggregator_PauseResumeGroup(t *testing.T) {
	dl := newFakeDownloader()
	a := newTestAggregator(t, newTestDocs(t), dl, nil)
	ctx := context.Background()

	g, err := a.DownloadSeason(ctx, testSeries(), testSeason(3))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(dl.Starts()) == 3 }, time.Second, 5*time.Millisecond)

	// Episode 3 is still queued behind the concurrency ceiling.
	dl.set(episodeURL(3), download.StateQueued)

	require.NoError(t, a.PauseResumeGroup(ctx, g.ID))
	assert.ElementsMatch(t, []string{episodeURL(1), episodeURL(2)}, dl.Paused())
	snap, err := dl.Get(ctx, episodeURL(3))
	require.NoError(t, err)
	assert.Equal(t, download.StateQueued, snap.State)

	// Not everything is paused yet, so a second toggle pauses again rather than resuming.
	require.NoError(t, a.PauseResumeGroup(ctx, g.ID))
	assert.Empty(t, dl.Resumed())

	dl.set(episodeURL(3), download.StatePaused)
	require.NoError(t, a.PauseResumeGroup(ctx, g.ID))
	assert.ElementsMatch(t, []string{episodeURL(1), episodeURL(2), episodeURL(3)}, dl.Resumed())

	assert.ErrorIs(t, a.PauseResumeGroup(ctx, "missing-S1"), ErrGroupNotFound)
}

func TestAggregator_RemoveSeasonGroup(t *testing.T) {
	bus := events.NewBus(nil, nil)
	removed := bus.Subscribe(events.EventSeasonRemoved, 10)
	dl := newFakeDownloader()
	a := newTestAggregator(t, newTestDocs(t), dl, bus)
	ctx := context.Background()

	g, err := a.DownloadSeason(ctx, testSeries(), testSeason(3))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(dl.Starts()) == 3 }, time.Second, 5*time.Millisecond)

	for _, n := range []int{1, 2} {
		dl.finish(episodeURL(n))
		publishCompleted(t, bus, episodeURL(n))
	}
	require.Eventually(t, func() bool {
		got, _ := a.store.Group(g.ID)
		return got.DownloadedEpisodes == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, a.RemoveSeasonGroup(ctx, g.ID))
	assert.Equal(t, []string{episodeURL(3)}, dl.Removed())
	assert.Empty(t, a.Groups())
	assert.Empty(t, a.Episodes(g.ID))

	_, _, err = a.Group(g.ID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.ErrorIs(t, a.RemoveSeasonGroup(ctx, g.ID), ErrGroupNotFound)

	select {
	case e := <-removed:
		assert.Equal(t, g.ID, e.(*events.SeasonRemoved).GroupID)
	case <-time.After(time.Second):
		t.Fatal("no season.removed event")
	}
}

func TestAggregator_ToggleEpisodeDownload(t *testing.T) {
	dl := newFakeDownloader()
	a := newTestAggregator(t, newTestDocs(t), dl, nil)
	ctx := context.Background()

	g, err := a.DownloadSeason(ctx, testSeries(), testSeason(2))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(dl.Starts()) == 2 }, time.Second, 5*time.Millisecond)

	id := EpisodeID(g.ID, 1)
	_, err = a.store.Update(g.ID, func(_ *Group, eps []Episode) bool {
		eps[0].Progress = 0.7
		return true
	})
	require.NoError(t, err)

	ep, err := a.ToggleEpisodeDownload(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ep.Progress)
	assert.Equal(t, []string{episodeURL(1)}, dl.Removed())
	stored, _ := a.store.Episode(id)
	assert.Equal(t, 0.0, stored.Progress)

	_, err = a.ToggleEpisodeDownload(ctx, id)
	require.NoError(t, err)
	assert.Len(t, dl.Starts(), 3)
	_, err = dl.Get(ctx, episodeURL(1))
	assert.NoError(t, err)

	_, err = a.ToggleEpisodeDownload(ctx, "nope")
	assert.ErrorIs(t, err, ErrEpisodeNotFound)
}

func TestAggregator_ToggleGroupExpansion(t *testing.T) {
	a := newTestAggregator(t, newTestDocs(t), newFakeDownloader(), nil)

	g, err := a.DownloadSeason(context.Background(), testSeries(), testSeason(1))
	require.NoError(t, err)
	assert.False(t, g.IsExpanded)

	g, err = a.ToggleGroupExpansion(g.ID)
	require.NoError(t, err)
	assert.True(t, g.IsExpanded)
	g, err = a.ToggleGroupExpansion(g.ID)
	require.NoError(t, err)
	assert.False(t, g.IsExpanded)

	_, err = a.ToggleGroupExpansion("missing-S9")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestAggregator_GroupsSurviveRestart(t *testing.T) {
	docs := newTestDocs(t)
	dl := newFakeDownloader()

	store := NewStore(docs, time.Hour, nil)
	a := NewAggregator(store, dl, nil, nil, testOpts, nil)
	g, err := a.DownloadSeason(context.Background(), testSeries(), testSeason(2))
	require.NoError(t, err)
	_, err = a.ToggleGroupExpansion(g.ID)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	restored := NewStore(docs, time.Hour, nil)
	got, ok := restored.Group(g.ID)
	require.True(t, ok)
	assert.True(t, got.IsExpanded)
	assert.Equal(t, "Breaking Bad", got.SeriesTitle)
	assert.Len(t, restored.Episodes(g.ID), 2)
}

func TestAggregator_FindGroups(t *testing.T) {
	a := newTestAggregator(t, newTestDocs(t), newFakeDownloader(), nil)
	ctx := context.Background()

	_, err := a.DownloadSeason(ctx, testSeries(), testSeason(1))
	require.NoError(t, err)
	_, err = a.DownloadSeason(ctx, Series{MediaID: "tt2861424", Title: "Rick and Morty"}, testSeason(1))
	require.NoError(t, err)

	found := a.FindGroups("breakng bad")
	require.Len(t, found, 1)
	assert.Equal(t, "Breaking Bad", found[0].SeriesTitle)

	assert.Empty(t, a.FindGroups("the wire"))
}

func TestAggregator_RestartCatchesUpWithDownloads(t *testing.T) {
	docs := newTestDocs(t)
	dl := newFakeDownloader()
	ctx := context.Background()

	first := NewAggregator(NewStore(docs, 10*time.Millisecond, nil), dl, nil, nil, testOpts, nil)
	g, err := first.DownloadSeason(ctx, testSeries(), testSeason(3))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(dl.Starts()) == 3 }, time.Second, 5*time.Millisecond)

	// shutdown order: downloads settle, then the groups flush
	dl.complete(episodeURL(1))
	dl.setProgress(episodeURL(2), 0.4)
	require.NoError(t, first.Close())

	bus := events.NewBus(nil, nil)
	defer bus.Close()
	updated := bus.Subscribe(events.EventSeasonUpdated, 10)
	a := newTestAggregator(t, docs, dl, bus)

	select {
	case e := <-updated:
		assert.Equal(t, g.ID, e.(*events.SeasonUpdated).GroupID)
	case <-time.After(2 * time.Second):
		t.Fatal("no season update after restart")
	}

	eps := a.Episodes(g.ID)
	require.Len(t, eps, 3)
	assert.True(t, eps[0].IsDownloaded)
	assert.InDelta(t, 1, eps[0].Progress, 1e-9)
	assert.False(t, eps[1].IsDownloaded)
	assert.InDelta(t, 0.4, eps[1].Progress, 1e-9)
	assert.Zero(t, eps[2].Progress)

	got, _, err := a.Group(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.DownloadedEpisodes)
	assertCountInvariant(t, a)

	// the finished episode is not fetched again
	_, err = a.DownloadSeason(ctx, testSeries(), testSeason(3))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(dl.Starts()) == 5 }, time.Second, 5*time.Millisecond)
	assert.NotContains(t, dl.Starts()[3:], episodeURL(1))
}

func TestAggregator_RemoveDuringEpisodeStartLeavesNoDownload(t *testing.T) {
	dl := newFakeDownloader()
	a := newTestAggregator(t, newTestDocs(t), dl, nil)
	ctx := context.Background()
	groupID := GroupID(testSeries().MediaID, 1)

	removed := make(chan struct{})
	var once sync.Once
	dl.onStart = func(string) {
		once.Do(func() {
			assert.NoError(t, a.RemoveSeasonGroup(ctx, groupID))
			close(removed)
		})
	}

	_, err := a.DownloadSeason(ctx, testSeries(), testSeason(2))
	require.NoError(t, err)
	select {
	case <-removed:
	case <-time.After(2 * time.Second):
		t.Fatal("group was not removed")
	}

	require.Eventually(t, func() bool {
		return len(dl.Removed()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{episodeURL(1)}, dl.Removed())
	_, err = dl.Get(ctx, episodeURL(1))
	assert.ErrorIs(t, err, download.ErrNotActive)
	assert.Equal(t, []string{episodeURL(1)}, dl.Starts(), "second episode never started")
}
