// Package download manages resumable HTTP transfers of media files, their
// persisted pending state, and the record of finished downloads.
package download

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// MediaKind classifies the item a download belongs to.
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindEpisode MediaKind = "episode"
	KindChannel MediaKind = "channel"
)

// Meta is the caller-supplied description of what is being downloaded.
// It is persisted verbatim with pending and completed records.
type Meta struct {
	MediaID     string            `plist:"mediaId" json:"media_id"`
	Kind        MediaKind         `plist:"kind" json:"kind"`
	Title       string            `plist:"title" json:"title"`
	SeriesTitle string            `plist:"seriesTitle,omitempty" json:"series_title,omitempty"`
	Season      int               `plist:"season,omitempty" json:"season,omitempty"`
	Episode     int               `plist:"episode,omitempty" json:"episode,omitempty"`
	PosterURL   string            `plist:"posterUrl,omitempty" json:"poster_url,omitempty"`
	Extra       map[string]string `plist:"extra,omitempty" json:"extra,omitempty"`
}

// Download is one transfer owned by a Manager.
// The Manager is the only caller of the lifecycle methods.
type Download struct {
	URL       string
	Meta      Meta
	CreatedAt time.Time

	mu         sync.Mutex
	state      State
	progress   float64
	resumeData []byte
	task       Task
	session    Session
	onPaused   func(d *Download, resumeData []byte)
	log        *slog.Logger
}

// Snapshot is a point-in-time copy of a Download for observers.
type Snapshot struct {
	URL           string    `json:"url"`
	Meta          Meta      `json:"meta"`
	State         State     `json:"state"`
	Progress      float64   `json:"progress"`
	HasResumeData bool      `json:"has_resume_data"`
	CreatedAt     time.Time `json:"created_at"`
}

func newDownload(url string, meta Meta, session Session, log *slog.Logger) *Download {
	return &Download{
		URL:       url,
		Meta:      meta,
		CreatedAt: time.Now(),
		state:     StateNotStarted,
		session:   session,
		log:       log,
	}
}

// State returns the current lifecycle state.
func (d *Download) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Progress returns the completed fraction in [0, 1].
func (d *Download) Progress() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progress
}

// ResumeData returns a copy of the stored resume token, or nil.
func (d *Download) ResumeData() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.resumeData == nil {
		return nil
	}
	out := make([]byte, len(d.resumeData))
	copy(out, d.resumeData)
	return out
}

// Snapshot returns a copy of the observable state.
func (d *Download) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		URL:           d.URL,
		Meta:          d.Meta,
		State:         d.state,
		Progress:      d.progress,
		HasResumeData: d.resumeData != nil,
		CreatedAt:     d.CreatedAt,
	}
}

// checkpointData returns the freshest resume token available: the live task's
// snapshot while transferring, otherwise the stored token.
func (d *Download) checkpointData() []byte {
	d.mu.Lock()
	task, data := d.task, d.resumeData
	d.mu.Unlock()
	if task != nil {
		if live := task.ResumeData(); live != nil {
			return live
		}
	}
	return data
}

// seed restores persisted progress and resume token before the first Resume.
func (d *Download) seed(progress float64, resumeData []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.progress = clamp(progress)
	d.resumeData = resumeData
}

func (d *Download) transition(to State) error {
	if !d.state.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.state, to)
	}
	d.state = to
	return nil
}

// enqueue moves a fresh download into the queued state.
func (d *Download) enqueue() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateNotStarted {
		_ = d.transition(StateQueued)
	}
}

// Pause asks the active transfer to stop and hand back resume data. The state
// becomes paused once the transfer confirms. Without an active transfer it does
// nothing and returns false.
func (d *Download) Pause() bool {
	d.mu.Lock()
	task := d.task
	if d.state != StateInProgress || task == nil {
		d.mu.Unlock()
		return false
	}
	d.task = nil
	d.mu.Unlock()

	task.CancelWithResumeData(func(resumeData []byte) {
		d.mu.Lock()
		d.resumeData = resumeData
		_ = d.transition(StatePaused)
		onPaused := d.onPaused
		d.mu.Unlock()

		if resumeData == nil {
			d.log.Warn("paused without resume data, next resume restarts from zero", "url", d.URL)
		}
		if onPaused != nil {
			onPaused(d, resumeData)
		}
	})
	return true
}

// Resume starts the transfer from the stored resume token, or from scratch when
// there is none. The state becomes in-progress immediately.
func (d *Download) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.state.CanResume() {
		return
	}
	resumeData := d.resumeData
	d.resumeData = nil
	_ = d.transition(StateInProgress)
	d.task = d.session.Start(d.URL, resumeData)
}

// SetProgress records a new completed fraction, clamped to [0, 1].
// Progress never goes backwards; see ResetProgress.
func (d *Download) SetProgress(p float64) {
	p = clamp(p)
	d.mu.Lock()
	defer d.mu.Unlock()
	if p > d.progress {
		d.progress = p
	}
}

func (d *Download) hasResumeData() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resumeData != nil
}

// ResetProgress sets progress back to zero. Used when a retry has no resume data.
func (d *Download) ResetProgress() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.progress = 0
}

// fail reconciles an optimistic in-progress state after a transfer error.
func (d *Download) fail(resumeData []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.task = nil
	if resumeData != nil {
		d.resumeData = resumeData
	}
	if d.state == StateInProgress {
		_ = d.transition(StatePaused)
	}
}

// finish detaches the task after a successful transfer.
func (d *Download) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.task = nil
	d.progress = 1
}

func clamp(p float64) float64 {
	switch {
	case p != p: // NaN
		return 0
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
