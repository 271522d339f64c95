package dto

import (
	"time"

	"github.com/todo-grow/backend/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Points    int       `json:"points"`
	TodoID    uint64    `json:"todo_id"`
	Completed bool      `json:"completed"`
	ParentID  *uint64   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskTreeDTO represents a top-level task with its subtasks
type TaskTreeDTO struct {
	TaskDTO
	Subtasks []TaskDTO `json:"subtasks"`
}

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Title     string  `json:"title" binding:"required"`
	Points    int     `json:"points"`
	TodoID    uint64  `json:"todo_id" binding:"required"`
	Completed bool    `json:"completed"`
	ParentID  *uint64 `json:"parent_id"`
}

// BulkTaskRequest is one entry of a bulk request. ParentID is an index
// into the same request's task list.
type BulkTaskRequest struct {
	Title     string `json:"title"`
	Points    int    `json:"points"`
	Completed bool   `json:"completed"`
	ParentID  *int   `json:"parent_id"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:        task.ID,
		Title:     task.Title,
		Points:    task.Points,
		TodoID:    task.TodoID,
		Completed: task.Completed,
		ParentID:  task.ParentID,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

// ToTaskTreeDTO converts a TaskTree to TaskTreeDTO
func ToTaskTreeDTO(tree models.TaskTree) TaskTreeDTO {
	subtasks := make([]TaskDTO, len(tree.Subtasks))
	for i, subtask := range tree.Subtasks {
		subtasks[i] = ToTaskDTO(subtask)
	}

	return TaskTreeDTO{
		TaskDTO:  ToTaskDTO(tree.Task),
		Subtasks: subtasks,
	}
}

// ToTaskTreeDTOs converts a slice of task trees
func ToTaskTreeDTOs(trees []models.TaskTree) []TaskTreeDTO {
	items := make([]TaskTreeDTO, len(trees))
	for i, tree := range trees {
		items[i] = ToTaskTreeDTO(tree)
	}
	return items
}
