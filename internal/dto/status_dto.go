package dto

import "github.com/google/uuid"

// Note lifecycle statuses pushed over the websocket channel.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// NoteStatusEvent tells a connected client that an async pipeline run
// changed a note's state.
type NoteStatusEvent struct {
	NoteId    uuid.UUID  `json:"note_id"`
	UserId    uuid.UUID  `json:"user_id"`
	Status    string     `json:"status"`
	ClusterId *uuid.UUID `json:"cluster_id,omitempty"`
	Error     *string    `json:"error,omitempty"`
}
