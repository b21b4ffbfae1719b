package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vmunix/stash/internal/events"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")
	entityID := r.URL.Query().Get("entity_id")
	if entityType != "" && entityID != "" {
		s.listEntityEvents(w, entityType, entityID)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	// Validate pagination parameters
	if limit < 0 || offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit and offset must be non-negative")
		return
	}
	const maxLimit = 1000
	if limit > maxLimit {
		limit = maxLimit
	}

	evts, total, err := s.deps.EventLog.Recent(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, listEventsResponse{
		Items:  s.toEventResponses(evts),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) listEntityEvents(w http.ResponseWriter, entityType, entityID string) {
	evts, err := s.deps.EventLog.ForEntity(entityType, entityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, listEventsResponse{
		Items:  s.toEventResponses(evts),
		Total:  len(evts),
		Limit:  len(evts),
		Offset: 0,
	})
}

func (s *Server) toEventResponses(evts []events.RawEvent) []EventResponse {
	out := make([]EventResponse, len(evts))
	for i, e := range evts {
		out[i] = s.eventResponse(e)
	}
	return out
}

// eventResponse decodes the logged payload into its typed event when the type is known.
func (s *Server) eventResponse(e events.RawEvent) EventResponse {
	resp := EventResponse{
		ID:         e.ID,
		EventType:  e.EventType,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
	}
	data, err := s.registry.Unmarshal(e)
	if err != nil {
		s.log.Debug("event payload not decoded", "id", e.ID, "type", e.EventType, "error", err)
		return resp
	}
	resp.Data = data
	return resp
}

func liveEventResponse(e events.Event) EventResponse {
	return EventResponse{
		EventType:  e.EventType(),
		EntityType: e.EntityType(),
		EntityID:   e.EntityID(),
		OccurredAt: e.OccurredAt().Format(time.RFC3339),
		Data:       e,
	}
}

// streamEvents writes events as newline-delimited JSON until the client goes
// away or the bus closes. With entity_type and entity_id only that entity's
// events are sent. With since, logged events from that time are replayed first.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityType, entityID := q.Get("entity_type"), q.Get("entity_id")

	var since time.Time
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SINCE", "since must be an RFC 3339 time")
			return
		}
		since = t
	}

	var ch <-chan events.Event
	if entityType != "" && entityID != "" {
		ch = s.deps.Bus.SubscribeEntity(entityType, entityID, 64)
	} else {
		entityType, entityID = "", ""
		ch = s.deps.Bus.SubscribeAll(64)
	}
	defer s.deps.Bus.Unsubscribe(ch)

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)

	if !since.IsZero() && s.deps.EventLog != nil {
		logged, err := s.deps.EventLog.Since(since)
		if err != nil {
			s.log.Error("replaying events", "since", since, "error", err)
		}
		for _, e := range logged {
			if entityType != "" && (e.EntityType != entityType || e.EntityID != entityID) {
				continue
			}
			if err := enc.Encode(s.eventResponse(e)); err != nil {
				return
			}
		}
	}
	if err := rc.Flush(); err != nil {
		s.log.Warn("event stream cannot flush", "error", err)
		return
	}

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := enc.Encode(liveEventResponse(e)); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
