package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "transcribe").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// TypeTranscribeRequested is the job code for the durable transcription
// work queue. Client-facing status updates travel on the in-process bus as
// JSON status payloads, not as Events.
const TypeTranscribeRequested = "transcribe"

// NewTranscribeRequested builds the work item that triggers the async
// transcription pipeline for a note.
func NewTranscribeRequested(noteId, userId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeTranscribeRequested,
		Data: map[string]interface{}{
			"note_id": noteId.String(),
			"user_id": userId.String(),
		},
		OccurredAt: time.Now(),
	}
}

// ParseUUID extracts a uuid field from an event payload, returning uuid.Nil
// when absent or malformed.
func ParseUUID(payload map[string]interface{}, key string) uuid.UUID {
	raw, ok := payload[key].(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
