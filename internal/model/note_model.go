package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type Note struct {
	Id                 uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             uuid.UUID        `gorm:"type:uuid;not null;index"`
	Transcript         string           `gorm:"type:text"`
	AudioPath          *string          `gorm:"type:varchar(512)"`
	DurationSeconds    *int             ``
	Embedding          *pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	ClusterId          *uuid.UUID       `gorm:"type:uuid;index"`
	IsFavorite         bool             `gorm:"default:false"`
	TranscriptionError *string          `gorm:"type:text"`
	CreatedAt          time.Time        `gorm:"autoCreateTime;index"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt   `gorm:"index"`
}

func (Note) TableName() string {
	return "notes"
}
