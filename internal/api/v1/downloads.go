package v1

import (
	"net/http"
	"strings"

	"github.com/vmunix/stash/internal/download"
)

func (s *Server) listDownloads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	active, err := s.deps.Downloads.Active(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pending, err := s.deps.Downloads.Pending(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := listDownloadsResponse{Active: active, Pending: pending}
	if resp.Active == nil {
		resp.Active = []download.Snapshot{}
	}
	if resp.Pending == nil {
		resp.Pending = []download.PendingDownloadInfo{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) startDownload(w http.ResponseWriter, r *http.Request) {
	var req startDownloadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "MISSING_URL", "url is required")
		return
	}

	d, err := s.deps.Downloads.StartDownload(r.Context(), req.URL, req.Meta)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d.Snapshot())
}

func (s *Server) pauseDownload(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.deps.Downloads.PauseDownload(r.Context(), req.URL); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resumeDownload(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.deps.Downloads.ResumeDownload(r.Context(), req.URL); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pauseAll(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Downloads.PauseAllDownloads(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resumeAll(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Downloads.ResumeAllDownloads(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeDownload(w http.ResponseWriter, r *http.Request) {
	url, ok := requiredQuery(w, r, "url")
	if !ok {
		return
	}
	if err := s.deps.Downloads.RemoveDownload(r.Context(), url); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCompleted(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Downloads.Completed(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []download.DownloadedFileInfo{}
	}
	writeJSON(w, http.StatusOK, listCompletedResponse{Items: items, Total: len(items)})
}

func (s *Server) deleteCompleted(w http.ResponseWriter, r *http.Request) {
	url, ok := requiredQuery(w, r, "url")
	if !ok {
		return
	}
	if err := s.deps.Downloads.DeleteCompleted(r.Context(), url); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
