package entity

import (
	"time"

	"github.com/google/uuid"
)

// Cluster is a named topical bucket owned by exactly one user. Its member
// set is derived by querying notes whose cluster reference matches.
type Cluster struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Label     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
