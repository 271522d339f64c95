package dto

import (
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/services"
)

// TodoDTO represents a todo with its task tree
type TodoDTO struct {
	ID       uint64        `json:"id"`
	BaseDate models.Date   `json:"base_date"`
	Tasks    []TaskTreeDTO `json:"tasks"`
}

// CreateTodoRequest is the body of POST /api/todos
type CreateTodoRequest struct {
	BaseDate *models.Date `json:"base_date"`
}

// BulkCreateTodoRequest is the body of POST /api/todos/bulk
type BulkCreateTodoRequest struct {
	BaseDate *models.Date      `json:"base_date"`
	Tasks    []BulkTaskRequest `json:"tasks"`
}

// GenerateTodoRequest is the body of POST /api/todos/ai
type GenerateTodoRequest struct {
	UserInput string       `json:"user_input" binding:"required"`
	BaseDate  *models.Date `json:"base_date"`
	Save      bool         `json:"save"`
}

// GeneratedTodoDTO is a generated task tree that has not been stored
type GeneratedTodoDTO struct {
	BaseDate models.Date              `json:"base_date"`
	Tasks    []services.GeneratedTask `json:"tasks"`
}

// ToTodoDTO converts a TodoTree to TodoDTO
func ToTodoDTO(tree models.TodoTree) TodoDTO {
	return TodoDTO{
		ID:       tree.ID,
		BaseDate: tree.BaseDate,
		Tasks:    ToTaskTreeDTOs(tree.Tasks),
	}
}

// ToTodoDTOs converts a slice of todo trees
func ToTodoDTOs(trees []models.TodoTree) []TodoDTO {
	items := make([]TodoDTO, len(trees))
	for i, tree := range trees {
		items[i] = ToTodoDTO(tree)
	}
	return items
}

// ToBulkCreateInput converts a bulk request for userID
func ToBulkCreateInput(userID uint64, req BulkCreateTodoRequest) services.BulkCreateInput {
	specs := make([]services.BulkTaskSpec, len(req.Tasks))
	for i, task := range req.Tasks {
		specs[i] = services.BulkTaskSpec{
			Title:       task.Title,
			Points:      task.Points,
			Completed:   task.Completed,
			ParentIndex: task.ParentID,
		}
	}

	return services.BulkCreateInput{
		UserID:   userID,
		BaseDate: req.BaseDate,
		Tasks:    specs,
	}
}
