package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a frame received over the push channel.
type Kind string

const (
	// KindConnection is an informational greeting from the backend.
	KindConnection Kind = "connection"

	// KindTaskUpdate carries a task status change.
	KindTaskUpdate Kind = "task_update"
)

// Event is a push channel frame after classification.
type Event struct {
	// ID is a unique identifier for this event, used to correlate log lines
	ID uuid.UUID `json:"id"`

	// Kind determines which handlers receive the event
	Kind Kind `json:"kind"`

	// Payload is the raw frame as received
	Payload json.RawMessage `json:"payload"`

	// ReceivedAt is the time the frame was read off the connection
	ReceivedAt time.Time `json:"received_at"`
}

// NewEvent creates an Event of the given kind wrapping a raw frame.
func NewEvent(kind Kind, payload []byte) *Event {
	return &Event{
		ID:         uuid.New(),
		Kind:       kind,
		Payload:    json.RawMessage(payload),
		ReceivedAt: time.Now(),
	}
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the push channel to publish frames without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to the handlers registered for its kind.
	EmitEvent(ctx context.Context, event *Event) error
}
