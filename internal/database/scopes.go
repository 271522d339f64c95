package database

import (
	"gorm.io/gorm"
)

// OwnedBy restricts a query to rows belonging to userID.
func OwnedBy(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// TopLevel restricts a task query to tasks without a parent.
func TopLevel(db *gorm.DB) *gorm.DB {
	return db.Where("parent_id IS NULL")
}

// ChildrenOf restricts a task query to the direct children of parentID.
func ChildrenOf(parentID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("parent_id = ?", parentID)
	}
}

// InsertionOrder sorts rows by primary key, which follows creation order.
func InsertionOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
