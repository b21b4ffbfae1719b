// internal/events/registry.go
package events

import (
	"encoding/json"
	"fmt"
)

// EventFactory creates a new zero-value event of a specific type.
type EventFactory func() Event

// Registry maps event types to their factories for deserialization.
type Registry struct {
	factories map[string]EventFactory
}

// NewRegistry creates a new event registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]EventFactory),
	}
}

// Register adds an event type to the registry.
func (r *Registry) Register(eventType string, factory EventFactory) {
	r.factories[eventType] = factory
}

// Unmarshal deserializes a raw event into its concrete type.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	factory, ok := r.factories[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", raw.EventType)
	}

	event := factory()
	if err := json.Unmarshal([]byte(raw.Payload), event); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}

	return event, nil
}

// DefaultRegistry returns a registry with all standard event types registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Download events
	r.Register(EventDownloadStarted, func() Event { return &DownloadStarted{} })
	r.Register(EventDownloadProgressed, func() Event { return &DownloadProgressed{} })
	r.Register(EventDownloadPaused, func() Event { return &DownloadPaused{} })
	r.Register(EventDownloadResumed, func() Event { return &DownloadResumed{} })
	r.Register(EventDownloadCompleted, func() Event { return &DownloadCompleted{} })
	r.Register(EventDownloadFailed, func() Event { return &DownloadFailed{} })
	r.Register(EventDownloadRemoved, func() Event { return &DownloadRemoved{} })

	// Season events
	r.Register(EventSeasonCreated, func() Event { return &SeasonCreated{} })
	r.Register(EventSeasonUpdated, func() Event { return &SeasonUpdated{} })
	r.Register(EventSeasonRemoved, func() Event { return &SeasonRemoved{} })

	// System events
	r.Register(EventPowerChanged, func() Event { return &PowerChanged{} })
	r.Register(EventNetworkChanged, func() Event { return &NetworkChanged{} })
	r.Register(EventAppStateChanged, func() Event { return &AppStateChanged{} })

	return r
}
