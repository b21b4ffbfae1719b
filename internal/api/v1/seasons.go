package v1

import (
	"net/http"
	"strings"

	"github.com/vmunix/stash/internal/season"
)

func (s *Server) listSeasons(w http.ResponseWriter, r *http.Request) {
	var groups []season.Group
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		groups = s.deps.Seasons.FindGroups(q)
	} else {
		groups = s.deps.Seasons.Groups()
	}
	if groups == nil {
		groups = []season.Group{}
	}
	writeJSON(w, http.StatusOK, listSeasonsResponse{Items: groups, Total: len(groups)})
}

func (s *Server) downloadSeason(w http.ResponseWriter, r *http.Request) {
	var req downloadSeasonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Series.MediaID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_MEDIA_ID", "series.media_id is required")
		return
	}

	g, err := s.deps.Seasons.DownloadSeason(r.Context(), req.Series, req.Season)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) getSeason(w http.ResponseWriter, r *http.Request) {
	g, eps, err := s.deps.Seasons.Group(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if eps == nil {
		eps = []season.Episode{}
	}
	writeJSON(w, http.StatusOK, seasonResponse{Group: g, Episodes: eps})
}

func (s *Server) toggleSeason(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Seasons.ToggleGroupExpansion(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) pauseResumeSeason(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Seasons.PauseResumeGroup(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) syncWatch(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Seasons.SyncWatchStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) removeSeason(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Seasons.RemoveSeasonGroup(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleEpisode(w http.ResponseWriter, r *http.Request) {
	ep, err := s.deps.Seasons.ToggleEpisodeDownload(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ep)
}
