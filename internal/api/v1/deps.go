package v1

import (
	"context"
	"errors"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/events"
	"github.com/vmunix/stash/internal/season"
)

//go:generate mockgen -destination=mocks/services.go -package=mocks github.com/vmunix/stash/internal/api/v1 DownloadService,SeasonService

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// DownloadService is the download manager as seen by the API.
type DownloadService interface {
	StartDownload(ctx context.Context, url string, meta download.Meta) (*download.Download, error)
	PauseDownload(ctx context.Context, url string) error
	ResumeDownload(ctx context.Context, url string) error
	RemoveDownload(ctx context.Context, url string) error
	PauseAllDownloads(ctx context.Context) error
	ResumeAllDownloads(ctx context.Context) error
	Active(ctx context.Context) ([]download.Snapshot, error)
	Pending(ctx context.Context) ([]download.PendingDownloadInfo, error)
	Completed(ctx context.Context) ([]download.DownloadedFileInfo, error)
	DeleteCompleted(ctx context.Context, url string) error
	SetLowPower(ctx context.Context, on bool) error
	SetBackground(ctx context.Context, background bool) error
}

// SeasonService is the season aggregator as seen by the API.
type SeasonService interface {
	DownloadSeason(ctx context.Context, series season.Series, s season.Season) (season.Group, error)
	Groups() []season.Group
	FindGroups(query string) []season.Group
	Group(groupID string) (season.Group, []season.Episode, error)
	ToggleGroupExpansion(groupID string) (season.Group, error)
	PauseResumeGroup(ctx context.Context, groupID string) error
	RemoveSeasonGroup(ctx context.Context, groupID string) error
	ToggleEpisodeDownload(ctx context.Context, episodeID string) (season.Episode, error)
	SyncWatchStatus(ctx context.Context, groupID string) (season.Group, error)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Downloads DownloadService

	// Optional dependencies (nil if not configured)
	Seasons  SeasonService
	EventLog *events.EventLog
	Bus      *events.Bus
	// Foreground runs after the app state returns to foreground, e.g. to
	// deliver transfer-session events that arrived in the background.
	Foreground func(ctx context.Context) error
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Downloads == nil {
		return errors.New("download service is required")
	}
	return nil
}
