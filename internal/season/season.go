// Package season groups the episode downloads of one series season into a
// single aggregate with its own persisted state.
package season

import (
	"errors"
	"fmt"
	"time"

	"github.com/vmunix/stash/internal/download"
)

// Sentinel errors for the season package.
var (
	ErrGroupNotFound   = errors.New("season group not found")
	ErrEpisodeNotFound = errors.New("episode not found")
	ErrNoEpisodes      = errors.New("season has no downloadable episodes")
)

// Group is the aggregate for one season of a series. DownloadedEpisodes is
// always recomputed from the group's episodes, never set on its own.
type Group struct {
	ID                 string    `plist:"id" json:"id"`
	MediaID            string    `plist:"mediaId" json:"media_id"`
	SeriesTitle        string    `plist:"seriesTitle" json:"series_title"`
	SeasonTitle        string    `plist:"seasonTitle" json:"season_title"`
	Season             int       `plist:"season" json:"season"`
	PosterURL          string    `plist:"posterUrl,omitempty" json:"poster_url,omitempty"`
	TotalEpisodes      int       `plist:"totalEpisodes" json:"total_episodes"`
	DownloadedEpisodes int       `plist:"downloadedEpisodes" json:"downloaded_episodes"`
	IsExpanded         bool      `plist:"isExpanded" json:"is_expanded"`
	CreatedAt          time.Time `plist:"createdAt" json:"created_at"`
}

// Complete reports whether every episode of the group has been downloaded.
func (g Group) Complete() bool {
	return g.TotalEpisodes > 0 && g.DownloadedEpisodes == g.TotalEpisodes
}

// Episode is one downloadable episode of a Group.
type Episode struct {
	ID            string        `plist:"id" json:"id"`
	GroupID       string        `plist:"groupId" json:"group_id"`
	Number        int           `plist:"number" json:"number"`
	URL           string        `plist:"url" json:"url"`
	Title         string        `plist:"title" json:"title"`
	Meta          download.Meta `plist:"meta" json:"meta"`
	IsDownloaded  bool          `plist:"isDownloaded" json:"is_downloaded"`
	Progress      float64       `plist:"progress" json:"progress"`
	Watched       bool          `plist:"watched" json:"watched"`
	WatchProgress float64       `plist:"watchProgress" json:"watch_progress"`
	LastWatchedAt time.Time     `plist:"lastWatchedAt,omitempty" json:"last_watched_at,omitempty"`
}

// Series describes the show a season belongs to.
type Series struct {
	MediaID   string `json:"media_id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url,omitempty"`
}

// Season is a season and the episodes to download for it.
type Season struct {
	Number   int             `json:"number"`
	Title    string          `json:"title,omitempty"`
	Episodes []EpisodeSource `json:"episodes"`
}

// EpisodeSource is the catalog entry of one episode.
type EpisodeSource struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// GroupID derives the id of the group for a media id and season number.
func GroupID(mediaID string, season int) string {
	return fmt.Sprintf("%s-S%d", mediaID, season)
}

// EpisodeID derives the id of an episode within a group.
func EpisodeID(groupID string, number int) string {
	return fmt.Sprintf("%s-E%d", groupID, number)
}

// recount recomputes g's counters from eps, which must all belong to g.
func recount(g *Group, eps []Episode) {
	g.TotalEpisodes = len(eps)
	g.DownloadedEpisodes = 0
	for _, ep := range eps {
		if ep.IsDownloaded {
			g.DownloadedEpisodes++
		}
	}
}

// groupProgress is the mean episode progress, counting downloaded episodes as 1.
func groupProgress(eps []Episode) float64 {
	if len(eps) == 0 {
		return 0
	}
	var sum float64
	for _, ep := range eps {
		if ep.IsDownloaded {
			sum++
			continue
		}
		sum += ep.Progress
	}
	return sum / float64(len(eps))
}
