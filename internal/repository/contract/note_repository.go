package contract

import (
	"context"

	"voicenote-be/internal/entity"
	"voicenote-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredNote wraps a Note with its cosine similarity against a query vector.
type ScoredNote struct {
	Note       *entity.Note
	Similarity float64 // -1.0 to 1.0 (1.0 = identical direction)
}

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	Update(ctx context.Context, note *entity.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// ClearClusterRef nulls the cluster reference on every member note of the
	// given cluster. Notes survive cluster deletion as unclustered rows.
	ClearClusterRef(ctx context.Context, clusterId uuid.UUID) error
	// SearchSimilarWithScore returns owner-scoped embedded notes ranked by
	// cosine similarity to the query vector, filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*ScoredNote, error)
}
