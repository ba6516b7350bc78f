package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateClusterRequest struct {
	Label string `json:"label" validate:"required,max=100"`
}

type CreateClusterResponse struct {
	Id uuid.UUID `json:"id"`
}

type ClusterResponse struct {
	Id        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	NoteCount int64     `json:"note_count"`
	CreatedAt time.Time `json:"created_at"`
}

type RenameClusterRequest struct {
	Id    uuid.UUID
	Label string `json:"label" validate:"required,max=100"`
}
