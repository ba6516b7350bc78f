package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

type CreateNoteResponse struct {
	Id                    uuid.UUID  `json:"id"`
	ClusterId             *uuid.UUID `json:"cluster_id"`
	SuggestedClusterLabel *string    `json:"suggested_cluster_label"`
}

// CreateAudioNoteResponse is returned before transcription has run; the
// transcript arrives later via the status channel or a re-fetch.
type CreateAudioNoteResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"` // "processing"
}

type NoteResponse struct {
	Id                 uuid.UUID  `json:"id"`
	Transcript         string     `json:"transcript"`
	AudioPath          *string    `json:"audio_path,omitempty"`
	DurationSeconds    *int       `json:"duration_seconds,omitempty"`
	ClusterId          *uuid.UUID `json:"cluster_id"`
	IsFavorite         bool       `json:"is_favorite"`
	Status             string     `json:"status"` // "ready" | "processing" | "failed"
	TranscriptionError *string    `json:"transcription_error,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

type UpdateNoteRequest struct {
	Id         uuid.UUID
	Transcript *string    `json:"transcript"`
	ClusterId  *uuid.UUID `json:"cluster_id"`
}

type UpdateNoteResponse struct {
	Id                    uuid.UUID  `json:"id"`
	ClusterId             *uuid.UUID `json:"cluster_id"`
	SuggestedClusterLabel *string    `json:"suggested_cluster_label,omitempty"`
}

type ListNotesRequest struct {
	ClusterId     *uuid.UUID
	FavoritesOnly bool
	Limit         int
	Offset        int
}
