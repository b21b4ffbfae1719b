// internal/api/v1/types.go
package v1

import (
	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/events"
	"github.com/vmunix/stash/internal/season"
)

// statusResponse is the response for GET /status.
type statusResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Active    int    `json:"active"`
	Paused    int    `json:"paused"`
	Completed int    `json:"completed"`
	Seasons   int    `json:"seasons"`
}

// listDownloadsResponse is the response for GET /downloads.
type listDownloadsResponse struct {
	Active  []download.Snapshot            `json:"active"`
	Pending []download.PendingDownloadInfo `json:"pending"`
}

// startDownloadRequest is the request body for POST /downloads.
type startDownloadRequest struct {
	URL  string        `json:"url"`
	Meta download.Meta `json:"meta"`
}

// urlRequest is the request body for operations on one download.
type urlRequest struct {
	URL string `json:"url"`
}

// listCompletedResponse is the response for GET /completed.
type listCompletedResponse struct {
	Items []download.DownloadedFileInfo `json:"items"`
	Total int                           `json:"total"`
}

// downloadSeasonRequest is the request body for POST /seasons.
type downloadSeasonRequest struct {
	Series season.Series `json:"series"`
	Season season.Season `json:"season"`
}

// listSeasonsResponse is the response for GET /seasons.
type listSeasonsResponse struct {
	Items []season.Group `json:"items"`
	Total int            `json:"total"`
}

// seasonResponse is a group with its episodes.
type seasonResponse struct {
	season.Group
	Episodes []season.Episode `json:"episodes"`
}

// powerRequest is the request body for POST /system/power.
type powerRequest struct {
	LowPower bool `json:"low_power"`
}

// appStateRequest is the request body for POST /system/app-state.
type appStateRequest struct {
	Background bool `json:"background"`
}

// EventResponse is the API representation of a logged event.
type EventResponse struct {
	ID         int64  `json:"id"`
	EventType  string `json:"event_type"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	OccurredAt string `json:"occurred_at"`
	// Data is the decoded event payload, absent for unknown event types.
	Data events.Event `json:"data,omitempty"`
}

// listEventsResponse is the response for GET /events.
type listEventsResponse struct {
	Items  []EventResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
