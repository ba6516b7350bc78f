package dto

import (
	"time"

	"github.com/google/uuid"
)

type SearchRequest struct {
	Query string `json:"query" validate:"required"`
}

// RelatedNote is a "see also" link attached to a primary search result.
type RelatedNote struct {
	Id         uuid.UUID `json:"id"`
	Transcript string    `json:"transcript"`
	Similarity float64   `json:"similarity"`
}

type SearchResult struct {
	Id           uuid.UUID     `json:"id"`
	Transcript   string        `json:"transcript"`
	ClusterId    *uuid.UUID    `json:"cluster_id"`
	Similarity   float64       `json:"similarity"`
	CreatedAt    time.Time     `json:"created_at"`
	RelatedNotes []RelatedNote `json:"related_notes"`
}

type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	AiAnswer   *string        `json:"ai_answer,omitempty"`
	IsFallback bool           `json:"is_fallback"`
}
