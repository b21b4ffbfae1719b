// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/events"
	"github.com/vmunix/stash/internal/season"
)

// Config holds API server configuration.
type Config struct {
	Version string
}

// Server is the v1 API server.
type Server struct {
	deps     ServerDeps
	cfg      Config
	registry *events.Registry
	log      *slog.Logger
}

// New creates a new v1 API server.
func New(deps ServerDeps, cfg Config, log *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		deps:     deps,
		cfg:      cfg,
		registry: events.DefaultRegistry(),
		log:      log.With("component", "api"),
	}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Downloads
	mux.HandleFunc("GET /api/v1/downloads", s.listDownloads)
	mux.HandleFunc("POST /api/v1/downloads", s.startDownload)
	mux.HandleFunc("POST /api/v1/downloads/pause", s.pauseDownload)
	mux.HandleFunc("POST /api/v1/downloads/resume", s.resumeDownload)
	mux.HandleFunc("POST /api/v1/downloads/pause-all", s.pauseAll)
	mux.HandleFunc("POST /api/v1/downloads/resume-all", s.resumeAll)
	mux.HandleFunc("DELETE /api/v1/downloads", s.removeDownload)

	// Completed files
	mux.HandleFunc("GET /api/v1/completed", s.listCompleted)
	mux.HandleFunc("DELETE /api/v1/completed", s.deleteCompleted)

	// Seasons
	mux.HandleFunc("GET /api/v1/seasons", s.requireSeasons(s.listSeasons))
	mux.HandleFunc("POST /api/v1/seasons", s.requireSeasons(s.downloadSeason))
	mux.HandleFunc("GET /api/v1/seasons/{id}", s.requireSeasons(s.getSeason))
	mux.HandleFunc("POST /api/v1/seasons/{id}/toggle", s.requireSeasons(s.toggleSeason))
	mux.HandleFunc("POST /api/v1/seasons/{id}/pause-resume", s.requireSeasons(s.pauseResumeSeason))
	mux.HandleFunc("POST /api/v1/seasons/{id}/sync-watch", s.requireSeasons(s.syncWatch))
	mux.HandleFunc("DELETE /api/v1/seasons/{id}", s.requireSeasons(s.removeSeason))
	mux.HandleFunc("POST /api/v1/episodes/{id}/toggle", s.requireSeasons(s.toggleEpisode))

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("POST /api/v1/system/power", s.setPower)
	mux.HandleFunc("POST /api/v1/system/app-state", s.setAppState)

	// Events
	mux.HandleFunc("GET /api/v1/events", s.requireEventLog(s.listEvents))
	mux.HandleFunc("GET /api/v1/events/stream", s.requireBus(s.streamEvents))
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps a subsystem error to a status code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, download.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "INVALID_URL", err.Error())
	case errors.Is(err, season.ErrNoEpisodes):
		writeError(w, http.StatusBadRequest, "NO_EPISODES", err.Error())
	case errors.Is(err, download.ErrNotActive),
		errors.Is(err, download.ErrNotFound),
		errors.Is(err, season.ErrGroupNotFound),
		errors.Is(err, season.ErrEpisodeNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, download.ErrClosed),
		errors.Is(err, season.ErrWatchUnavailable):
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return false
	}
	return true
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// requiredQuery extracts a query parameter, writing a 400 when it is missing.
func requiredQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	val := r.URL.Query().Get(name)
	if val == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMETER", "missing query parameter: "+name)
		return "", false
	}
	return val, true
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := statusResponse{Status: "ok", Version: s.cfg.Version}

	active, err := s.deps.Downloads.Active(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	for _, d := range active {
		resp.Active++
		if d.State == download.StatePaused {
			resp.Paused++
		}
	}
	completed, err := s.deps.Downloads.Completed(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp.Completed = len(completed)
	if s.deps.Seasons != nil {
		resp.Seasons = len(s.deps.Seasons.Groups())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) setPower(w http.ResponseWriter, r *http.Request) {
	var req powerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.deps.Downloads.SetLowPower(r.Context(), req.LowPower); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setAppState(w http.ResponseWriter, r *http.Request) {
	var req appStateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.deps.Downloads.SetBackground(r.Context(), req.Background); err != nil {
		writeServiceError(w, err)
		return
	}
	if !req.Background && s.deps.Foreground != nil {
		if err := s.deps.Foreground(r.Context()); err != nil {
			s.log.Warn("foreground hook failed", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
