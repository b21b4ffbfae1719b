package season

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/events"
)

// ErrWatchUnavailable is returned by SyncWatchStatus when no watch-status source is configured.
var ErrWatchUnavailable = errors.New("watch status source not configured")

// Downloader is the part of the download manager the aggregator drives.
type Downloader interface {
	StartDownload(ctx context.Context, url string, meta download.Meta) (*download.Download, error)
	PauseDownload(ctx context.Context, url string) error
	ResumeDownload(ctx context.Context, url string) error
	RemoveDownload(ctx context.Context, url string) error
	Get(ctx context.Context, url string) (download.Snapshot, error)
	Completed(ctx context.Context) ([]download.DownloadedFileInfo, error)
}

// Options tunes an Aggregator. Zero values take the defaults.
type Options struct {
	EpisodeStartDelay time.Duration
	ReconcileThrottle time.Duration
}

func (o *Options) applyDefaults() {
	if o.EpisodeStartDelay <= 0 {
		o.EpisodeStartDelay = 50 * time.Millisecond
	}
	if o.ReconcileThrottle <= 0 {
		o.ReconcileThrottle = 500 * time.Millisecond
	}
}

// observation is the latest download state seen for one URL since the last reconcile.
type observation struct {
	progress  float64
	completed bool
	removed   bool
}

// Aggregator turns "download this season" into per-episode downloads and keeps
// each group's counters in step with the download manager's events.
type Aggregator struct {
	store *Store
	dl    Downloader
	watch WatchStatusSource
	bus   *events.Bus
	opts  Options
	log   *slog.Logger

	progressed <-chan events.Event
	completed  <-chan events.Event
	removed    <-chan events.Event

	mu       sync.Mutex
	observed map[string]observation
	throttle *time.Timer

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAggregator creates an Aggregator. watch and bus may be nil.
func NewAggregator(store *Store, dl Downloader, bus *events.Bus, watch WatchStatusSource, opts Options, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	opts.applyDefaults()

	a := &Aggregator{
		store:    store,
		dl:       dl,
		watch:    watch,
		bus:      bus,
		opts:     opts,
		log:      log.With("component", "season"),
		observed: make(map[string]observation),
		stop:     make(chan struct{}),
	}
	if bus != nil {
		a.progressed = bus.Subscribe(events.EventDownloadProgressed, 256)
		a.completed = bus.Subscribe(events.EventDownloadCompleted, 64)
		a.removed = bus.Subscribe(events.EventDownloadRemoved, 64)
	}
	return a
}

// Name returns the component name for logging.
func (a *Aggregator) Name() string {
	return "season"
}

// Start reconciles episodes with the download manager, then consumes download
// events until ctx is done (blocking).
func (a *Aggregator) Start(ctx context.Context) error {
	if err := a.ReconcileDownloads(ctx); err != nil {
		a.log.Error("reconciling episodes with downloads", "error", err)
	}
	if a.bus == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case e, ok := <-a.progressed:
			if !ok {
				return nil
			}
			p := e.(*events.DownloadProgressed)
			a.observe(p.URL, func(o *observation) {
				o.removed = false
				if p.Progress > o.progress {
					o.progress = p.Progress
				}
			})
		case e, ok := <-a.completed:
			if !ok {
				return nil
			}
			c := e.(*events.DownloadCompleted)
			a.observe(c.URL, func(o *observation) {
				o.completed = true
				o.progress = 1
			})
		case e, ok := <-a.removed:
			if !ok {
				return nil
			}
			r := e.(*events.DownloadRemoved)
			a.observe(r.URL, func(o *observation) {
				o.removed = true
				o.progress = 0
			})
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stop:
			return nil
		}
	}
}

// observe records an event and arms the reconcile throttle. Events arriving
// while the throttle is armed only update the observation; the reconcile that
// fires sees the latest value.
func (a *Aggregator) observe(url string, fn func(o *observation)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o := a.observed[url]
	fn(&o)
	a.observed[url] = o
	if a.throttle == nil {
		a.throttle = time.AfterFunc(a.opts.ReconcileThrottle, a.reconcile)
	}
}

type episodeDelta struct {
	episodeID string
	obs       observation
}

// reconcile applies observed download state to episodes and recounts groups.
func (a *Aggregator) reconcile() {
	a.mu.Lock()
	batch := a.observed
	a.observed = make(map[string]observation)
	a.throttle = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	byGroup := make(map[string][]episodeDelta)
	for url, obs := range batch {
		ep, ok := a.store.EpisodeByURL(url)
		if !ok {
			continue
		}
		byGroup[ep.GroupID] = append(byGroup[ep.GroupID], episodeDelta{episodeID: ep.ID, obs: obs})
	}

	for groupID, deltas := range byGroup {
		changed := false
		g, err := a.store.Update(groupID, func(_ *Group, eps []Episode) bool {
			for i := range eps {
				for _, d := range deltas {
					if eps[i].ID == d.episodeID && applyObservation(&eps[i], d.obs) {
						changed = true
					}
				}
			}
			return changed
		})
		if err != nil || !changed {
			continue
		}

		a.log.Debug("season group reconciled", "group_id", groupID, "downloaded", g.DownloadedEpisodes, "total", g.TotalEpisodes)
		a.publishUpdated(g)
	}
}

// ReconcileDownloads brings episodes in line with the download manager.
// Episodes with a completed record become downloaded; episodes with an active
// download take its progress. It catches up on completions whose events were
// never applied, e.g. ones that landed during shutdown.
func (a *Aggregator) ReconcileDownloads(ctx context.Context) error {
	done, err := a.dl.Completed(ctx)
	if err != nil {
		return fmt.Errorf("list completed downloads: %w", err)
	}
	completed := make(map[string]bool, len(done))
	for _, f := range done {
		completed[f.URL] = true
	}

	for _, grp := range a.store.Groups() {
		updates := make(map[string]observation)
		for _, ep := range a.store.Episodes(grp.ID) {
			if ep.IsDownloaded {
				continue
			}
			if completed[ep.URL] {
				updates[ep.ID] = observation{completed: true, progress: 1}
				continue
			}
			if snap, err := a.dl.Get(ctx, ep.URL); err == nil {
				updates[ep.ID] = observation{progress: snap.Progress}
			}
		}
		if len(updates) == 0 {
			continue
		}

		changed := false
		g, err := a.store.Update(grp.ID, func(_ *Group, eps []Episode) bool {
			for i := range eps {
				if obs, ok := updates[eps[i].ID]; ok && applyObservation(&eps[i], obs) {
					changed = true
				}
			}
			return changed
		})
		if err != nil || !changed {
			continue
		}
		a.log.Info("season group caught up with downloads", "group_id", grp.ID, "downloaded", g.DownloadedEpisodes, "total", g.TotalEpisodes)
		a.publishUpdated(g)
	}
	return nil
}

func (a *Aggregator) publishUpdated(g Group) {
	a.publish(&events.SeasonUpdated{
		BaseEvent:          events.NewBaseEvent(events.EventSeasonUpdated, events.EntitySeason, g.ID),
		GroupID:            g.ID,
		DownloadedEpisodes: g.DownloadedEpisodes,
		TotalEpisodes:      g.TotalEpisodes,
		Progress:           groupProgress(a.store.Episodes(g.ID)),
	})
}

func applyObservation(ep *Episode, obs observation) bool {
	switch {
	case ep.IsDownloaded:
		return false
	case obs.completed:
		ep.IsDownloaded = true
		ep.Progress = 1
		return true
	case ep.Progress != obs.progress:
		ep.Progress = obs.progress
		return true
	default:
		return false
	}
}

// DownloadSeason creates the group for season (or reuses the existing one) and
// starts every episode that is not downloaded yet, one at a time with a short
// delay between starts. It returns without waiting for the starts.
func (a *Aggregator) DownloadSeason(ctx context.Context, series Series, season Season) (Group, error) {
	if len(season.Episodes) == 0 {
		return Group{}, ErrNoEpisodes
	}

	groupID := GroupID(series.MediaID, season.Number)
	seasonTitle := season.Title
	if seasonTitle == "" {
		seasonTitle = fmt.Sprintf("Season %d", season.Number)
	}

	g := Group{
		ID:          groupID,
		MediaID:     series.MediaID,
		SeriesTitle: series.Title,
		SeasonTitle: seasonTitle,
		Season:      season.Number,
		PosterURL:   series.PosterURL,
		CreatedAt:   time.Now(),
	}
	eps := make([]Episode, 0, len(season.Episodes))
	for _, src := range season.Episodes {
		eps = append(eps, Episode{
			ID:      EpisodeID(groupID, src.Number),
			GroupID: groupID,
			Number:  src.Number,
			URL:     src.URL,
			Title:   src.Title,
			Meta: download.Meta{
				MediaID:     series.MediaID,
				Kind:        download.KindEpisode,
				Title:       src.Title,
				SeriesTitle: series.Title,
				Season:      season.Number,
				Episode:     src.Number,
				PosterURL:   series.PosterURL,
				Extra:       map[string]string{"group_id": groupID},
			},
		})
	}

	g, created := a.store.Insert(g, eps)
	if created {
		a.log.Info("season group created", "group_id", groupID, "episodes", g.TotalEpisodes)
		a.publish(&events.SeasonCreated{
			BaseEvent:     events.NewBaseEvent(events.EventSeasonCreated, events.EntitySeason, groupID),
			GroupID:       groupID,
			SeriesTitle:   g.SeriesTitle,
			Season:        g.Season,
			TotalEpisodes: g.TotalEpisodes,
		})
	}

	var pending []Episode
	for _, ep := range a.store.Episodes(groupID) {
		if !ep.IsDownloaded {
			pending = append(pending, ep)
		}
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.startEpisodes(pending)
	}()
	return g, nil
}

func (a *Aggregator) startEpisodes(eps []Episode) {
	for i, ep := range eps {
		if i > 0 {
			select {
			case <-time.After(a.opts.EpisodeStartDelay):
			case <-a.stop:
				return
			}
		}
		if _, ok := a.store.Episode(ep.ID); !ok {
			continue // group removed meanwhile
		}
		if _, err := a.dl.StartDownload(context.Background(), ep.URL, ep.Meta); err != nil {
			if errors.Is(err, download.ErrClosed) {
				return
			}
			a.log.Error("starting episode download", "episode_id", ep.ID, "url", ep.URL, "error", err)
			continue
		}
		if _, ok := a.store.Episode(ep.ID); !ok {
			// removed while starting; drop the orphaned download
			err := a.dl.RemoveDownload(context.Background(), ep.URL)
			if err != nil && !errors.Is(err, download.ErrNotActive) {
				a.log.Error("removing orphaned episode download", "episode_id", ep.ID, "error", err)
			}
		}
	}
}

// ToggleGroupExpansion flips the group's expanded flag.
func (a *Aggregator) ToggleGroupExpansion(groupID string) (Group, error) {
	g, err := a.store.Update(groupID, func(g *Group, _ []Episode) bool {
		g.IsExpanded = !g.IsExpanded
		return true
	})
	if err != nil {
		a.log.Error("toggle expansion", "group_id", groupID, "error", err)
		return Group{}, err
	}
	return g, nil
}

// PauseResumeGroup resumes every active episode download when all of them are
// paused, and otherwise pauses the running ones. Queued downloads are left alone.
func (a *Aggregator) PauseResumeGroup(ctx context.Context, groupID string) error {
	if _, ok := a.store.Group(groupID); !ok {
		err := fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
		a.log.Error("pause/resume group", "group_id", groupID, "error", err)
		return err
	}

	var active []download.Snapshot
	for _, ep := range a.store.Episodes(groupID) {
		if ep.IsDownloaded {
			continue
		}
		snap, err := a.dl.Get(ctx, ep.URL)
		if err != nil {
			continue
		}
		active = append(active, snap)
	}
	if len(active) == 0 {
		return nil
	}

	allPaused := true
	for _, s := range active {
		if s.State != download.StatePaused {
			allPaused = false
			break
		}
	}

	var errs []error
	for _, s := range active {
		switch {
		case allPaused:
			errs = append(errs, a.dl.ResumeDownload(ctx, s.URL))
		case s.State == download.StateInProgress:
			errs = append(errs, a.dl.PauseDownload(ctx, s.URL))
		}
	}
	a.log.Info("season group toggled", "group_id", groupID, "resumed", allPaused, "downloads", len(active))
	return errors.Join(errs...)
}

// RemoveSeasonGroup removes every episode download of the group, then the
// group and its episodes. Completed files are kept.
func (a *Aggregator) RemoveSeasonGroup(ctx context.Context, groupID string) error {
	eps, err := a.store.Delete(groupID)
	if err != nil {
		a.log.Error("remove season group", "group_id", groupID, "error", err)
		return err
	}

	a.mu.Lock()
	for _, ep := range eps {
		delete(a.observed, ep.URL)
	}
	a.mu.Unlock()

	for _, ep := range eps {
		if err := a.dl.RemoveDownload(ctx, ep.URL); err != nil && !errors.Is(err, download.ErrNotActive) {
			a.log.Error("removing episode download", "episode_id", ep.ID, "error", err)
		}
	}

	a.log.Info("season group removed", "group_id", groupID, "episodes", len(eps))
	a.publish(&events.SeasonRemoved{
		BaseEvent: events.NewBaseEvent(events.EventSeasonRemoved, events.EntitySeason, groupID),
		GroupID:   groupID,
	})
	return nil
}

// ToggleEpisodeDownload cancels the episode's active download, or starts one
// when none is active. Downloaded episodes are left as they are.
func (a *Aggregator) ToggleEpisodeDownload(ctx context.Context, episodeID string) (Episode, error) {
	ep, ok := a.store.Episode(episodeID)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrEpisodeNotFound, episodeID)
		a.log.Error("toggle episode", "episode_id", episodeID, "error", err)
		return Episode{}, err
	}
	if ep.IsDownloaded {
		return ep, nil
	}

	if _, err := a.dl.Get(ctx, ep.URL); err == nil {
		if err := a.dl.RemoveDownload(ctx, ep.URL); err != nil && !errors.Is(err, download.ErrNotActive) {
			return ep, fmt.Errorf("remove episode download: %w", err)
		}
		_, err := a.store.Update(ep.GroupID, func(_ *Group, eps []Episode) bool {
			for i := range eps {
				if eps[i].ID == ep.ID {
					eps[i].Progress = 0
				}
			}
			return true
		})
		if err != nil {
			return ep, err
		}
		ep.Progress = 0
		return ep, nil
	}

	if _, err := a.dl.StartDownload(ctx, ep.URL, ep.Meta); err != nil {
		return ep, fmt.Errorf("start episode download: %w", err)
	}
	return ep, nil
}

// SyncWatchStatus copies watch state from the watch-status source onto the group's episodes.
func (a *Aggregator) SyncWatchStatus(ctx context.Context, groupID string) (Group, error) {
	if a.watch == nil {
		return Group{}, ErrWatchUnavailable
	}
	g, ok := a.store.Group(groupID)
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}

	statuses, err := a.watch.WatchStatus(ctx, g.MediaID, g.Season)
	if err != nil {
		return Group{}, fmt.Errorf("fetch watch status: %w", err)
	}
	byEpisode := make(map[int]WatchStatus, len(statuses))
	for _, st := range statuses {
		byEpisode[st.Episode] = st
	}

	return a.store.Update(groupID, func(_ *Group, eps []Episode) bool {
		changed := false
		for i := range eps {
			st, ok := byEpisode[eps[i].Number]
			if !ok {
				continue
			}
			eps[i].Watched = st.Watched
			eps[i].WatchProgress = min(max(st.Progress, 0), 1)
			eps[i].LastWatchedAt = st.LastWatchedAt
			changed = true
		}
		return changed
	})
}

// Groups returns every group, oldest first.
func (a *Aggregator) Groups() []Group {
	return a.store.Groups()
}

// Group returns a group and its episodes.
func (a *Aggregator) Group(groupID string) (Group, []Episode, error) {
	g, ok := a.store.Group(groupID)
	if !ok {
		return Group{}, nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return g, a.store.Episodes(groupID), nil
}

// Episodes returns the episodes of a group ordered by number.
func (a *Aggregator) Episodes(groupID string) []Episode {
	return a.store.Episodes(groupID)
}

// FindGroups returns groups whose titles match query, best match first.
func (a *Aggregator) FindGroups(query string) []Group {
	return matchGroups(query, a.store.Groups())
}

// Close stops episode starts, applies any observed state, and flushes the store.
func (a *Aggregator) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.stop)
		a.wg.Wait()

		a.mu.Lock()
		if a.throttle != nil {
			a.throttle.Stop()
		}
		a.mu.Unlock()
		a.reconcile()

		err = a.store.Close()
	})
	return err
}

func (a *Aggregator) publish(e events.Event) {
	if a.bus == nil {
		return
	}
	if err := a.bus.Publish(context.Background(), e); err != nil {
		a.log.Error("publishing event", "type", e.EventType(), "error", err)
	}
}
