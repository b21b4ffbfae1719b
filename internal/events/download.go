// internal/events/download.go
package events

// Entity types
const (
	EntityDownload = "download"
	EntitySeason   = "season"
	EntityEpisode  = "episode"
	EntitySystem   = "system"
)

// Event type constants
const (
	EventDownloadStarted    = "download.started"
	EventDownloadProgressed = "download.progressed"
	EventDownloadPaused     = "download.paused"
	EventDownloadResumed    = "download.resumed"
	EventDownloadCompleted  = "download.completed"
	EventDownloadFailed     = "download.failed"
	EventDownloadRemoved    = "download.removed"
	EventSeasonCreated      = "season.created"
	EventSeasonUpdated      = "season.updated"
	EventSeasonRemoved      = "season.removed"
	EventPowerChanged       = "system.power.changed"
	EventNetworkChanged     = "system.network.changed"
	EventAppStateChanged    = "system.appstate.changed"
)

// DownloadStarted is emitted when a download is registered, either by a
// caller or by startup recovery.
type DownloadStarted struct {
	BaseEvent
	URL       string `json:"url"`
	MediaID   string `json:"media_id"`
	Title     string `json:"title"`
	Recovered bool   `json:"recovered,omitempty"` // rebuilt from a pending record
}

// DownloadProgressed is emitted on every progress tick. Not persisted.
type DownloadProgressed struct {
	BaseEvent
	URL      string  `json:"url"`
	Progress float64 `json:"progress"` // 0.0 - 1.0
	Written  int64   `json:"written_bytes"`
	Expected int64   `json:"expected_bytes"` // 0 when unknown
}

// Ephemeral implements Ephemeral.
func (DownloadProgressed) Ephemeral() bool { return true }

// DownloadPaused is emitted when a transfer confirms it has stopped.
type DownloadPaused struct {
	BaseEvent
	URL           string  `json:"url"`
	Progress      float64 `json:"progress"`
	HasResumeData bool    `json:"has_resume_data"`
}

// DownloadResumed is emitted when a paused or recovered download restarts.
type DownloadResumed struct {
	BaseEvent
	URL           string `json:"url"`
	HasResumeData bool   `json:"has_resume_data"`
}

// DownloadCompleted is emitted when a file has been moved into the documents directory.
type DownloadCompleted struct {
	BaseEvent
	URL           string `json:"url"`
	MediaID       string `json:"media_id"`
	Title         string `json:"title"`
	LocalFileName string `json:"local_file_name"`
}

// DownloadFailed is emitted when a transfer or the final file move fails.
type DownloadFailed struct {
	BaseEvent
	URL       string `json:"url"`
	Title     string `json:"title"`
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// DownloadRemoved is emitted when a user removes an active download.
type DownloadRemoved struct {
	BaseEvent
	URL string `json:"url"`
}
