package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/stash/internal/events"
	"github.com/vmunix/stash/internal/storage"
)

// Options tunes a Manager. Zero values take the defaults.
type Options struct {
	// MaxConcurrent is a soft ceiling: exceeding it only logs a warning.
	MaxConcurrent             int
	PendingRetention          time.Duration
	ForegroundPersistInterval time.Duration
	BackgroundPersistInterval time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 3
	}
	if o.PendingRetention <= 0 {
		o.PendingRetention = 7 * 24 * time.Hour
	}
	if o.ForegroundPersistInterval <= 0 {
		o.ForegroundPersistInterval = 2 * time.Second
	}
	if o.BackgroundPersistInterval <= 0 {
		o.BackgroundPersistInterval = 10 * time.Second
	}
}

// ResumeDataDiscarder is implemented by sessions that can release the partial
// file behind a resume token that will never be used.
type ResumeDataDiscarder interface {
	Discard(resumeData []byte)
}

// Manager owns the transfer session and every active Download.
//
// The active map, checkpoint timers and policy flags are touched only on the
// work queue. Store file I/O runs on a separate I/O queue so slow disks never
// hold up the work queue. Observable changes are published on the event bus.
type Manager struct {
	opts      Options
	session   Session
	docs      *storage.Documents
	pending   *PendingStore
	completed *CompletedStore
	bus       *events.Bus
	log       *slog.Logger

	work *storage.Queue
	io   *storage.Queue

	// work queue only
	active      map[string]*Download
	checkpoints map[string]*checkpoint
	background  bool
	lowPower    bool
	offline     bool
	closing     bool
	// downloads paused by the power or network policy rather than by the user
	held map[string]bool

	pauses    sync.WaitGroup
	closeOnce sync.Once
}

// checkpoint throttles pending-record writes for one download.
type checkpoint struct {
	timer   *time.Timer
	seq     int
	written time.Time
}

// NewManager wires a Manager to session, recovers every pending download that
// is younger than the retention window, and purges the rest.
// The bus may be nil.
func NewManager(session Session, docs *storage.Documents, bus *events.Bus, opts Options, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	opts.applyDefaults()

	m := &Manager{
		opts:        opts,
		session:     session,
		docs:        docs,
		pending:     NewPendingStore(docs, log),
		completed:   NewCompletedStore(docs, log),
		bus:         bus,
		log:         log.With("component", "download_manager"),
		work:        storage.NewQueue(),
		io:          storage.NewQueue(),
		active:      make(map[string]*Download),
		checkpoints: make(map[string]*checkpoint),
		held:        make(map[string]bool),
	}
	session.SetDelegate(sessionDelegate{m})
	m.recover()
	return m
}

// do runs fn on the work queue and waits for it.
func (m *Manager) do(ctx context.Context, fn func()) error {
	err := m.work.Do(ctx, fn)
	if errors.Is(err, storage.ErrQueueClosed) {
		return ErrClosed
	}
	return err
}

func (m *Manager) recover() {
	var records []PendingDownloadInfo
	_ = m.io.Do(context.Background(), func() {
		records = m.pending.All()
	})

	now := time.Now()
	cutoff := now.Add(-m.opts.PendingRetention)

	_ = m.work.Do(context.Background(), func() {
		resumed := 0
		for _, rec := range records {
			if _, ok := m.active[rec.URL]; ok {
				continue
			}
			if rec.CreatedAt.Before(cutoff) {
				continue
			}
			d := m.register(rec.URL, rec.Meta)
			if !rec.CreatedAt.IsZero() {
				d.CreatedAt = rec.CreatedAt
			}
			d.seed(rec.Progress, rec.ResumeData)
			d.enqueue()
			d.Resume()
			resumed++

			m.log.Info("recovered download", "url", rec.URL, "progress", rec.Progress, "has_resume_data", rec.ResumeData != nil)
			m.publish(&events.DownloadStarted{
				BaseEvent: events.NewBaseEvent(events.EventDownloadStarted, events.EntityDownload, rec.URL),
				URL:       rec.URL,
				MediaID:   rec.Meta.MediaID,
				Title:     rec.Meta.Title,
				Recovered: true,
			})
		}
		if resumed > 0 {
			m.log.Info("startup recovery finished", "resumed", resumed)
		}
	})

	_ = m.io.Go(func() {
		n, err := m.pending.PurgeOlderThan(m.opts.PendingRetention, now)
		if err != nil {
			m.log.Error("purging stale pending downloads", "error", err)
			return
		}
		if n > 0 {
			m.log.Info("purged stale pending downloads", "count", n)
		}
	})
}

func (m *Manager) register(rawURL string, meta Meta) *Download {
	d := newDownload(rawURL, meta, m.session, m.log)
	d.onPaused = m.onPaused
	m.active[rawURL] = d
	return d
}

// StartDownload begins downloading rawURL. If a download for rawURL is already
// active, that instance is returned unchanged.
func (m *Manager) StartDownload(ctx context.Context, rawURL string, meta Meta) (*Download, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	var d *Download
	var startErr error
	err := m.do(ctx, func() {
		if m.closing {
			startErr = ErrClosed
			return
		}
		if existing, ok := m.active[rawURL]; ok {
			d = existing
			return
		}

		if running := m.countInProgress(); running >= m.opts.MaxConcurrent {
			m.log.Warn("concurrent download limit exceeded", "running", running, "limit", m.opts.MaxConcurrent)
		}

		d = m.register(rawURL, meta)
		now := time.Now()
		m.persistRecord(PendingDownloadInfo{
			URL:       rawURL,
			Meta:      meta,
			CreatedAt: d.CreatedAt,
			UpdatedAt: now,
			State:     PendingStarted,
		})
		d.enqueue()
		d.Resume()

		m.log.Info("download started", "url", rawURL, "title", meta.Title)
		m.publish(&events.DownloadStarted{
			BaseEvent: events.NewBaseEvent(events.EventDownloadStarted, events.EntityDownload, rawURL),
			URL:       rawURL,
			MediaID:   meta.MediaID,
			Title:     meta.Title,
		})
	})
	if err != nil {
		return nil, err
	}
	if startErr != nil {
		return nil, startErr
	}
	return d, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}

// PauseDownload pauses the active download for rawURL. The state flips to
// paused once the transfer hands back its resume data.
func (m *Manager) PauseDownload(ctx context.Context, rawURL string) error {
	var opErr error
	err := m.do(ctx, func() {
		d, ok := m.active[rawURL]
		if !ok {
			opErr = ErrNotActive
			return
		}
		delete(m.held, rawURL)
		m.pause(d)
	})
	if err != nil {
		return err
	}
	return opErr
}

// ResumeDownload restarts a paused download. Without resume data the transfer
// starts over and progress is reset.
func (m *Manager) ResumeDownload(ctx context.Context, rawURL string) error {
	var opErr error
	err := m.do(ctx, func() {
		d, ok := m.active[rawURL]
		if !ok {
			opErr = ErrNotActive
			return
		}
		if d.State().CanResume() && !d.hasResumeData() {
			d.ResetProgress()
		}
		m.resume(d)
	})
	if err != nil {
		return err
	}
	return opErr
}

// RemoveDownload stops the transfer, forgets the download and deletes its
// pending record.
func (m *Manager) RemoveDownload(ctx context.Context, rawURL string) error {
	var opErr error
	err := m.do(ctx, func() {
		d, ok := m.active[rawURL]
		if !ok {
			opErr = ErrNotActive
			return
		}
		m.pause(d)
		m.forget(rawURL)
		m.deleteRecord(rawURL)

		m.log.Info("download removed", "url", rawURL)
		m.publish(&events.DownloadRemoved{
			BaseEvent: events.NewBaseEvent(events.EventDownloadRemoved, events.EntityDownload, rawURL),
			URL:       rawURL,
		})
	})
	if err != nil {
		return err
	}
	return opErr
}

// CompleteDownload deregisters rawURL and deletes its pending record. The
// finished-transfer path calls it after the file and its DownloadedFileInfo are durable.
func (m *Manager) CompleteDownload(ctx context.Context, rawURL string) error {
	var opErr error
	err := m.do(ctx, func() {
		d, ok := m.active[rawURL]
		if !ok {
			opErr = ErrNotActive
			return
		}
		m.complete(d)
	})
	if err != nil {
		return err
	}
	return opErr
}

func (m *Manager) complete(d *Download) {
	if m.active[d.URL] != d {
		return
	}
	m.forget(d.URL)
	m.deleteRecord(d.URL)
}

// PauseAllDownloads pauses every in-progress download.
func (m *Manager) PauseAllDownloads(ctx context.Context) error {
	return m.do(ctx, func() {
		clear(m.held)
		for _, d := range m.sorted() {
			m.pause(d)
		}
	})
}

// ResumeAllDownloads resumes every queued or paused download.
func (m *Manager) ResumeAllDownloads(ctx context.Context) error {
	return m.do(ctx, m.resumeAll)
}

// RefreshDownloads is the background refresh entry point. While low power mode
// is on or the network is down it does nothing. Otherwise it resumes downloads
// still held by a lifted power or network pause, plus queued ones that never
// started. Downloads the user paused and failed transfers stay paused.
func (m *Manager) RefreshDownloads(ctx context.Context) error {
	return m.do(ctx, func() {
		if m.lowPower || m.offline {
			m.log.Debug("background refresh skipped", "low_power", m.lowPower, "offline", m.offline)
			return
		}
		resumed := 0
		for _, d := range m.sorted() {
			if !m.held[d.URL] && d.State() != StateQueued {
				continue
			}
			if d.State().CanResume() {
				m.resume(d)
				resumed++
			}
		}
		if resumed > 0 {
			m.log.Info("background refresh resumed downloads", "count", resumed)
		}
	})
}

// holdAll pauses every running download on behalf of the power or network policy.
func (m *Manager) holdAll() {
	for _, d := range m.sorted() {
		if d.State() == StateInProgress {
			m.held[d.URL] = true
		}
		m.pause(d)
	}
}

func (m *Manager) resumeAll() {
	for _, d := range m.sorted() {
		m.resume(d)
	}
}

// pause requests a pause and tracks it until the confirmation has been handled.
func (m *Manager) pause(d *Download) {
	m.cancelCheckpoint(d.URL)
	m.pauses.Add(1)
	if !d.Pause() {
		m.pauses.Done()
	}
}

func (m *Manager) resume(d *Download) {
	if !d.State().CanResume() {
		return
	}
	hadData := d.hasResumeData()
	delete(m.held, d.URL)
	d.Resume()
	m.persist(d, m.runningTag())

	m.log.Info("download resumed", "url", d.URL, "has_resume_data", hadData)
	m.publish(&events.DownloadResumed{
		BaseEvent:     events.NewBaseEvent(events.EventDownloadResumed, events.EntityDownload, d.URL),
		URL:           d.URL,
		HasResumeData: hadData,
	})
}

// onPaused runs on a session goroutine, or inline when the transfer was already gone.
func (m *Manager) onPaused(d *Download, resumeData []byte) {
	err := m.work.Go(func() {
		defer m.pauses.Done()
		if m.active[d.URL] != d {
			if resumeData != nil {
				m.discard(resumeData)
			}
			return
		}
		m.persist(d, PendingPaused)
		m.log.Info("download paused", "url", d.URL, "progress", d.Progress(), "has_resume_data", resumeData != nil)
		m.publish(&events.DownloadPaused{
			BaseEvent:     events.NewBaseEvent(events.EventDownloadPaused, events.EntityDownload, d.URL),
			URL:           d.URL,
			Progress:      d.Progress(),
			HasResumeData: resumeData != nil,
		})
	})
	if err != nil {
		m.pauses.Done()
	}
}

func (m *Manager) discard(resumeData []byte) {
	if ds, ok := m.session.(ResumeDataDiscarder); ok {
		ds.Discard(resumeData)
	}
}

func (m *Manager) forget(rawURL string) {
	m.cancelCheckpoint(rawURL)
	delete(m.checkpoints, rawURL)
	delete(m.held, rawURL)
	delete(m.active, rawURL)
}

func (m *Manager) countInProgress() int {
	n := 0
	for _, d := range m.active {
		if d.State() == StateInProgress {
			n++
		}
	}
	return n
}

func (m *Manager) sorted() []*Download {
	out := make([]*Download, 0, len(m.active))
	for _, d := range m.active {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].URL < out[j].URL
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SetLowPower pauses everything when low power mode starts and resumes when
// it ends, unless the network is also down.
func (m *Manager) SetLowPower(ctx context.Context, on bool) error {
	return m.do(ctx, func() {
		if m.lowPower == on {
			return
		}
		m.lowPower = on
		m.log.Info("low power mode changed", "low_power", on)
		m.publish(&events.PowerChanged{
			BaseEvent: events.NewBaseEvent(events.EventPowerChanged, events.EntitySystem, "power"),
			LowPower:  on,
		})
		if on {
			m.holdAll()
		} else if !m.offline {
			m.resumeAll()
		}
	})
}

// SetNetworkAvailable pauses everything when connectivity is lost and resumes
// when it returns, unless low power mode is on.
func (m *Manager) SetNetworkAvailable(ctx context.Context, available bool) error {
	return m.do(ctx, func() {
		if m.offline == !available {
			return
		}
		m.offline = !available
		m.log.Info("network availability changed", "available", available)
		m.publish(&events.NetworkChanged{
			BaseEvent: events.NewBaseEvent(events.EventNetworkChanged, events.EntitySystem, "network"),
			Available: available,
		})
		if !available {
			m.holdAll()
		} else if !m.lowPower {
			m.resumeAll()
		}
	})
}

// SetBackground switches the checkpoint cadence and re-tags the pending
// records of running downloads. Transfers keep running in the background.
func (m *Manager) SetBackground(ctx context.Context, background bool) error {
	return m.do(ctx, func() {
		if m.background == background {
			return
		}
		m.background = background
		for _, d := range m.sorted() {
			if d.State() != StateInProgress {
				continue
			}
			m.cancelCheckpoint(d.URL)
			m.persist(d, m.runningTag())
		}
		m.log.Info("app state changed", "background", background)
		m.publish(&events.AppStateChanged{
			BaseEvent:  events.NewBaseEvent(events.EventAppStateChanged, events.EntitySystem, "app"),
			Background: background,
		})
	})
}

// HandleBackgroundSessionEvents calls done once every session event queued so
// far has been applied and written.
func (m *Manager) HandleBackgroundSessionEvents(done func()) {
	err := m.work.Go(func() {
		if err := m.io.Go(done); err != nil {
			done()
		}
	})
	if err != nil {
		done()
	}
}

// Get returns a snapshot of the active download for rawURL.
func (m *Manager) Get(ctx context.Context, rawURL string) (Snapshot, error) {
	var snap Snapshot
	var found bool
	err := m.do(ctx, func() {
		if d, ok := m.active[rawURL]; ok {
			snap, found = d.Snapshot(), true
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	if !found {
		return Snapshot{}, ErrNotActive
	}
	return snap, nil
}

// Lookup returns the live instance for rawURL.
func (m *Manager) Lookup(ctx context.Context, rawURL string) (*Download, bool) {
	var d *Download
	_ = m.do(ctx, func() {
		d = m.active[rawURL]
	})
	return d, d != nil
}

// Active returns snapshots of all active downloads, oldest first.
func (m *Manager) Active(ctx context.Context) ([]Snapshot, error) {
	var out []Snapshot
	err := m.do(ctx, func() {
		for _, d := range m.sorted() {
			out = append(out, d.Snapshot())
		}
	})
	return out, err
}

// Pending returns the persisted pending records.
func (m *Manager) Pending(ctx context.Context) ([]PendingDownloadInfo, error) {
	var out []PendingDownloadInfo
	err := m.io.Do(ctx, func() {
		out = m.pending.All()
	})
	if errors.Is(err, storage.ErrQueueClosed) {
		return nil, ErrClosed
	}
	return out, err
}

// Completed returns the finished downloads.
func (m *Manager) Completed(ctx context.Context) ([]DownloadedFileInfo, error) {
	var out []DownloadedFileInfo
	err := m.io.Do(ctx, func() {
		out = m.completed.All()
	})
	if errors.Is(err, storage.ErrQueueClosed) {
		return nil, ErrClosed
	}
	return out, err
}

// DeleteCompleted removes the completed record for rawURL and its local file.
func (m *Manager) DeleteCompleted(ctx context.Context, rawURL string) error {
	var opErr error
	err := m.io.Do(ctx, func() {
		info, found, err := m.completed.Remove(rawURL)
		if err != nil {
			opErr = err
			return
		}
		if !found {
			opErr = ErrNotFound
			return
		}
		if err := m.docs.Remove(info.LocalFileName); err != nil {
			m.log.Warn("removing completed file", "file", info.LocalFileName, "error", err)
		}
	})
	if errors.Is(err, storage.ErrQueueClosed) {
		return ErrClosed
	}
	if err != nil {
		return err
	}
	return opErr
}

// Sync waits until work queued before the call has been applied and written.
func (m *Manager) Sync(ctx context.Context) error {
	if err := m.do(ctx, func() {}); err != nil {
		return err
	}
	err := m.io.Do(ctx, func() {})
	if errors.Is(err, storage.ErrQueueClosed) {
		return ErrClosed
	}
	return err
}

// Close pauses every running transfer so its resume data is persisted, then
// drains both queues. Downloads stay pending and are recovered on the next start.
func (m *Manager) Close(ctx context.Context) error {
	var closeErr error
	m.closeOnce.Do(func() {
		err := m.work.Do(ctx, func() {
			m.closing = true
			for _, d := range m.sorted() {
				m.pause(d)
			}
		})
		if err != nil {
			closeErr = fmt.Errorf("pause downloads: %w", err)
		}

		waited := make(chan struct{})
		go func() {
			m.pauses.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-ctx.Done():
			m.log.Warn("shutdown before all pauses confirmed", "error", ctx.Err())
		}

		m.work.Close()
		m.io.Close()
	})
	return closeErr
}

// Progress and checkpoints

func (m *Manager) runningTag() PendingState {
	if m.background {
		return PendingBackground
	}
	return PendingDownloading
}

func (m *Manager) interval() time.Duration {
	if m.background {
		return m.opts.BackgroundPersistInterval
	}
	return m.opts.ForegroundPersistInterval
}

func (m *Manager) handleProgress(rawURL string, written, expected int64) {
	d, ok := m.active[rawURL]
	if !ok || d.State() != StateInProgress {
		return
	}
	if expected <= 0 {
		return
	}
	d.SetProgress(float64(written) / float64(expected))

	m.publish(&events.DownloadProgressed{
		BaseEvent: events.NewBaseEvent(events.EventDownloadProgressed, events.EntityDownload, rawURL),
		URL:       rawURL,
		Progress:  d.Progress(),
		Written:   written,
		Expected:  expected,
	})
	m.scheduleCheckpoint(d)
}

// scheduleCheckpoint writes the pending record at most once per interval. A
// write due later is left to a timer that reads the latest state when it fires.
func (m *Manager) scheduleCheckpoint(d *Download) {
	cp, ok := m.checkpoints[d.URL]
	if !ok {
		cp = &checkpoint{}
		m.checkpoints[d.URL] = cp
	}
	if cp.timer != nil {
		return
	}

	interval := m.interval()
	elapsed := time.Since(cp.written)
	if elapsed >= interval {
		m.persist(d, m.runningTag())
		return
	}

	cp.seq++
	seq := cp.seq
	cp.timer = time.AfterFunc(interval-elapsed, func() {
		_ = m.work.Go(func() {
			if cp.seq != seq || m.active[d.URL] != d {
				return
			}
			cp.timer = nil
			if d.State() == StateInProgress {
				m.persist(d, m.runningTag())
			}
		})
	})
}

func (m *Manager) cancelCheckpoint(rawURL string) {
	cp, ok := m.checkpoints[rawURL]
	if !ok {
		return
	}
	cp.seq++
	if cp.timer != nil {
		cp.timer.Stop()
		cp.timer = nil
	}
}

// persist writes the current state of d as its pending record.
func (m *Manager) persist(d *Download, state PendingState) {
	if cp, ok := m.checkpoints[d.URL]; ok {
		cp.written = time.Now()
	} else {
		m.checkpoints[d.URL] = &checkpoint{written: time.Now()}
	}
	m.persistRecord(PendingDownloadInfo{
		URL:        d.URL,
		Meta:       d.Meta,
		ResumeData: d.checkpointData(),
		Progress:   d.Progress(),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  time.Now(),
		State:      state,
	})
}

func (m *Manager) persistRecord(rec PendingDownloadInfo) {
	_ = m.io.Go(func() {
		if err := m.pending.Upsert(rec); err != nil {
			m.log.Error("saving pending download", "url", rec.URL, "error", err)
		}
	})
}

func (m *Manager) deleteRecord(rawURL string) {
	_ = m.io.Go(func() {
		if err := m.pending.Delete(rawURL); err != nil {
			m.log.Error("deleting pending download", "url", rawURL, "error", err)
		}
	})
}

// Transfer outcomes

func (m *Manager) handleFailure(rawURL string, cause error, resumeData []byte) {
	d, ok := m.active[rawURL]
	if !ok {
		if resumeData != nil {
			m.discard(resumeData)
		}
		return
	}
	m.cancelCheckpoint(rawURL)
	delete(m.held, rawURL)
	d.fail(resumeData)
	m.persist(d, PendingPaused)

	m.log.Warn("download failed", "url", rawURL, "error", cause, "has_resume_data", resumeData != nil)
	m.publish(&events.DownloadFailed{
		BaseEvent: events.NewBaseEvent(events.EventDownloadFailed, events.EntityDownload, rawURL),
		URL:       rawURL,
		Title:     d.Meta.Title,
		Reason:    cause.Error(),
		Retryable: true,
	})
}

func (m *Manager) handleFinished(rawURL, location string) {
	d, ok := m.active[rawURL]
	if !ok {
		if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
			m.log.Warn("removing orphaned transfer file", "path", location, "error", err)
		}
		return
	}
	m.cancelCheckpoint(rawURL)
	d.finish()

	name := uuid.NewString() + storage.Extension(urlPath(rawURL), ".mp4")
	meta := d.Meta

	err := m.io.Go(func() {
		info := DownloadedFileInfo{
			URL:           rawURL,
			LocalFileName: name,
			CompletedAt:   time.Now(),
			Meta:          meta,
		}
		_, err := m.docs.MoveIntoPlace(location, name)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrMoveFailed, err)
		} else if err = m.completed.Append(info); err != nil {
			_ = m.docs.Remove(name)
		}
		werr := m.work.Go(func() {
			if err != nil {
				m.finishFailed(d, err)
				return
			}
			m.finishSucceeded(d, info)
		})
		if werr == nil {
			return
		}
		// work queue already closed: settle the pending record here
		if err == nil {
			if derr := m.pending.Delete(rawURL); derr != nil {
				m.log.Error("deleting pending download", "url", rawURL, "error", derr)
			}
		}
		m.log.Warn("download finished during shutdown", "url", rawURL, "stored", err == nil)
	})
	if err != nil {
		m.log.Error("finishing download after shutdown", "url", rawURL, "error", err)
	}
}

func (m *Manager) finishSucceeded(d *Download, info DownloadedFileInfo) {
	m.complete(d)
	m.log.Info("download completed", "url", d.URL, "file", info.LocalFileName)
	m.publish(&events.DownloadCompleted{
		BaseEvent:     events.NewBaseEvent(events.EventDownloadCompleted, events.EntityDownload, d.URL),
		URL:           d.URL,
		MediaID:       d.Meta.MediaID,
		Title:         d.Meta.Title,
		LocalFileName: info.LocalFileName,
	})
}

// finishFailed leaves the pending record in place so the item stays visible.
func (m *Manager) finishFailed(d *Download, err error) {
	if m.active[d.URL] == d {
		d.fail(nil)
	}
	m.log.Error("storing finished download", "url", d.URL, "error", err)
	m.publish(&events.DownloadFailed{
		BaseEvent: events.NewBaseEvent(events.EventDownloadFailed, events.EntityDownload, d.URL),
		URL:       d.URL,
		Title:     d.Meta.Title,
		Reason:    err.Error(),
		Retryable: true,
	})
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

func (m *Manager) publish(e events.Event) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(context.Background(), e); err != nil {
		m.log.Error("publishing event", "type", e.EventType(), "error", err)
	}
}

// sessionDelegate hops session callbacks onto the work queue.
type sessionDelegate struct {
	m *Manager
}

func (s sessionDelegate) DidWriteData(rawURL string, written, expected int64) {
	_ = s.m.work.Go(func() { s.m.handleProgress(rawURL, written, expected) })
}

func (s sessionDelegate) DidFinish(rawURL, location string) {
	_ = s.m.work.Go(func() { s.m.handleFinished(rawURL, location) })
}

func (s sessionDelegate) DidFail(rawURL string, err error, resumeData []byte) {
	_ = s.m.work.Go(func() { s.m.handleFailure(rawURL, err, resumeData) })
}
