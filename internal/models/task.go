package models

import (
	"time"
)

// Task is the stored task row. ParentID is nil for top-level tasks.
type Task struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	TodoID    uint64    `gorm:"not null;index:idx_tasks_todo_user,priority:1" json:"todo_id"`
	UserID    uint64    `gorm:"not null;index:idx_tasks_todo_user,priority:2" json:"user_id"`
	ParentID  *uint64   `gorm:"index" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTopLevel reports whether the task has no parent.
func (t Task) IsTopLevel() bool {
	return t.ParentID == nil
}

// TaskTree is a top-level task with its subtasks materialized.
// It is assembled from Task rows and never persisted.
type TaskTree struct {
	Task
	Subtasks []Task `json:"subtasks"`
}
