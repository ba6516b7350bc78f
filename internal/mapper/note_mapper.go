package mapper

import (
	"time"

	"voicenote-be/internal/entity"
	"voicenote-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// NoteMapper converts between the storage model and the domain entity.
// The pgvector⇄[]float32 conversion happens here and nowhere else, so
// business logic only ever sees a typed vector.
type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

func (m *NoteMapper) ToEntity(n *model.Note) *entity.Note {
	if n == nil {
		return nil
	}

	var deletedAt *time.Time
	if n.DeletedAt.Valid {
		t := n.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}

	var embedding []float32
	if n.Embedding != nil {
		embedding = n.Embedding.Slice()
	}

	return &entity.Note{
		Id:                 n.Id,
		UserId:             n.UserId,
		Transcript:         n.Transcript,
		AudioPath:          n.AudioPath,
		DurationSeconds:    n.DurationSeconds,
		Embedding:          embedding,
		ClusterId:          n.ClusterId,
		IsFavorite:         n.IsFavorite,
		TranscriptionError: n.TranscriptionError,
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          updatedAt,
		DeletedAt:          deletedAt,
		IsDeleted:          n.DeletedAt.Valid,
	}
}

func (m *NoteMapper) ToModel(n *entity.Note) *model.Note {
	if n == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if n.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *n.DeletedAt, Valid: true}
	} else if n.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if n.UpdatedAt != nil {
		updatedAt = *n.UpdatedAt
	}

	var embedding *pgvector.Vector
	if len(n.Embedding) > 0 {
		v := pgvector.NewVector(n.Embedding)
		embedding = &v
	}

	return &model.Note{
		Id:                 n.Id,
		UserId:             n.UserId,
		Transcript:         n.Transcript,
		AudioPath:          n.AudioPath,
		DurationSeconds:    n.DurationSeconds,
		Embedding:          embedding,
		ClusterId:          n.ClusterId,
		IsFavorite:         n.IsFavorite,
		TranscriptionError: n.TranscriptionError,
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          updatedAt,
		DeletedAt:          deletedAt,
	}
}

func (m *NoteMapper) ToEntities(notes []*model.Note) []*entity.Note {
	entities := make([]*entity.Note, len(notes))
	for i, n := range notes {
		entities[i] = m.ToEntity(n)
	}
	return entities
}
