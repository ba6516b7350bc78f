package embedding

import "context"

// Dimensions is the system-wide embedding width, fixed by the provider
// (Gemini text-embedding-004 returns 768-dimensional vectors). Vectors of
// any other length are rejected before use, never truncated or padded.
const Dimensions = 768

// Task types hint the provider at how the embedding will be used.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// ValidDimensions reports whether a vector matches the system width.
func ValidDimensions(vec []float32) bool {
	return len(vec) == Dimensions
}
