package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/todo-grow/backend/internal/dto"
	apierrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/middleware"
	"github.com/todo-grow/backend/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
	todoService *services.TodoService
}

func NewTaskHandler(taskService *services.TaskService, todoService *services.TodoService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		todoService: todoService,
	}
}

// CreateTask creates a task in one of the current user's todos
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	todo, err := h.todoService.GetByID(req.TodoID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	if todo == nil || todo.UserID != userID {
		apierrors.NotFound(c, "Todo not found")
		return
	}

	task, err := h.taskService.Create(services.CreateTaskInput{
		Title:     req.Title,
		Points:    req.Points,
		Completed: req.Completed,
		TodoID:    todo.ID,
		UserID:    userID,
		ParentID:  req.ParentID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task with its subtasks
// Ownership is checked by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	tree, err := h.taskService.GetWithSubtasks(task.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	if tree == nil {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskTreeDTO(*tree))
}

// UpdateTask applies a partial update. "parent_id": null moves the task to the top level.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]json.RawMessage
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseUpdateTask(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.taskService.Update(task.ID, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// ToggleTask flips the completion flag
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	updated, err := h.taskService.ToggleCompletion(task.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task with all of its subtasks
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.Delete(task.ID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseUpdateTask(raw map[string]json.RawMessage) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if value, ok := raw["title"]; ok {
		if err := json.Unmarshal(value, &input.Title); err != nil || input.Title == nil {
			return input, apierrors.NewValidation("title", "title must be a string")
		}
	}
	if value, ok := raw["points"]; ok {
		if err := json.Unmarshal(value, &input.Points); err != nil || input.Points == nil {
			return input, apierrors.NewValidation("points", "points must be an integer")
		}
	}
	if value, ok := raw["completed"]; ok {
		if err := json.Unmarshal(value, &input.Completed); err != nil || input.Completed == nil {
			return input, apierrors.NewValidation("completed", "completed must be a boolean")
		}
	}
	if value, ok := raw["parent_id"]; ok {
		if err := json.Unmarshal(value, &input.ParentID); err != nil {
			return input, apierrors.NewValidation("parent_id", "parent_id must be a task ID or null")
		}
		// parent_id was provided as null
		input.ClearParent = input.ParentID == nil
	}

	return input, nil
}
