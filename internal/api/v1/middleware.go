package v1

import "net/http"

// requireSeasons wraps a handler and returns 503 if the season aggregator is not configured.
func (s *Server) requireSeasons(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Seasons == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Season downloads not configured")
			return
		}
		next(w, r)
	}
}

// requireEventLog wraps a handler and returns 503 if the event log is not configured.
func (s *Server) requireEventLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.EventLog == nil {
			writeError(w, http.StatusServiceUnavailable, "NO_EVENT_LOG", "Event log not configured")
			return
		}
		next(w, r)
	}
}

// requireBus wraps a handler and returns 503 if the event bus is not configured.
func (s *Server) requireBus(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Bus == nil {
			writeError(w, http.StatusServiceUnavailable, "NO_EVENT_BUS", "Event bus not configured")
			return
		}
		next(w, r)
	}
}
