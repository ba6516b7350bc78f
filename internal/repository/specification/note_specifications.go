package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HasEmbedding keeps only notes whose embedding vector has been computed.
type HasEmbedding struct{}

func (s HasEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding IS NOT NULL")
}

// HasCluster keeps only notes that belong to a cluster.
type HasCluster struct{}

func (s HasCluster) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cluster_id IS NOT NULL")
}

// Unclustered keeps only notes without a cluster reference.
type Unclustered struct{}

func (s Unclustered) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cluster_id IS NULL")
}

// InCluster filters notes by their cluster reference.
type InCluster struct {
	ClusterID uuid.UUID
}

func (s InCluster) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cluster_id = ?", s.ClusterID)
}

// FavoritesOnly keeps only favorited notes.
type FavoritesOnly struct{}

func (s FavoritesOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_favorite = true")
}

// CreatedBetween restricts to a half-open creation interval [Start, End).
type CreatedBetween struct {
	Start time.Time
	End   time.Time
}

func (s CreatedBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ? AND created_at < ?", s.Start, s.End)
}
