package scope

import "gorm.io/gorm"

// OrderByCreatedAsc lists oldest first, the order speeches appear on the home page.
func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
