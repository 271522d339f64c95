package models

import "time"

// Todo groups a user's tasks for one calendar date.
type Todo struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_todos_user_date,priority:1" json:"user_id"`
	BaseDate  Date      `gorm:"type:date;not null;uniqueIndex:idx_todos_user_date,priority:2" json:"base_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodoTree is a Todo with its full task tree.
type TodoTree struct {
	Todo
	Tasks []TaskTree `json:"tasks"`
}
