package entity

import (
	"time"

	"github.com/google/uuid"
)

// Note is a single unit of captured content. Transcript and Embedding are
// empty/nil while an audio note is still being transcribed; a non-nil
// TranscriptionError marks a terminally failed pipeline run.
type Note struct {
	Id                 uuid.UUID
	UserId             uuid.UUID
	Transcript         string
	AudioPath          *string
	DurationSeconds    *int
	Embedding          []float32 // nil until computed
	ClusterId          *uuid.UUID
	IsFavorite         bool
	TranscriptionError *string
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	DeletedAt          *time.Time
	IsDeleted          bool
}

// HasEmbedding reports whether the note carries a usable embedding vector.
func (n *Note) HasEmbedding() bool {
	return len(n.Embedding) > 0
}
