package repository

import (
	"time"

	"logiflow/internal/access"

	"gorm.io/gorm"
)

// DateRange bounds a date column, both ends inclusive
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// applyScope restricts column to the scope's groups. An empty scope matches no rows.
func applyScope(db *gorm.DB, scope access.Scope, column string) *gorm.DB {
	if scope.Unrestricted() {
		return db
	}
	if scope.IsEmpty() {
		return db.Where("1 = 0")
	}
	return db.Where(column+" IN ?", scope.GroupIDs())
}

func applyDateRange(db *gorm.DB, r DateRange, column string) *gorm.DB {
	if r.From != nil {
		db = db.Where(column+" >= ?", *r.From)
	}
	if r.To != nil {
		db = db.Where(column+" <= ?", *r.To)
	}
	return db
}
