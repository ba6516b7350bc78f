package specification

import "gorm.io/gorm"

// ByLabel filters clusters by exact, case-sensitive label match.
type ByLabel struct {
	Label string
}

func (s ByLabel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("label = ?", s.Label)
}
