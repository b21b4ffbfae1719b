package events

import "time"

// Event is the base interface all events implement.
type Event interface {
	EventType() string
	EntityType() string // "download", "season", "episode", "system"
	EntityID() string
	OccurredAt() time.Time
}

// Ephemeral is implemented by high-frequency events that are delivered to
// subscribers but never written to the EventLog.
type Ephemeral interface {
	Ephemeral() bool
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        string    `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() string      { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a BaseEvent with the current timestamp.
func NewBaseEvent(eventType, entityType, entityID string) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Entity:    entityType,
		ID:        entityID,
		Timestamp: time.Now(),
	}
}

func isEphemeral(e Event) bool {
	eph, ok := e.(Ephemeral)
	return ok && eph.Ephemeral()
}
