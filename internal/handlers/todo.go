package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/todo-grow/backend/internal/dto"
	apierrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/middleware"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/services"
)

type TodoHandler struct {
	todoService *services.TodoService
	taskService *services.TaskService
	generator   services.TaskGenerator
}

func NewTodoHandler(todoService *services.TodoService, taskService *services.TaskService, generator services.TaskGenerator) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
		taskService: taskService,
		generator:   generator,
	}
}

// ListTodos returns the current user's todos with task trees, optionally for one ?date=YYYY-MM-DD
func (h *TodoHandler) ListTodos(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var (
		todos []models.TodoTree
		err   error
	)
	if dateStr := c.Query("date"); dateStr != "" {
		date, parseErr := models.ParseDate(dateStr)
		if parseErr != nil {
			apierrors.BadRequest(c, parseErr.Error())
			return
		}
		todos, err = h.todoService.GetByDateWithTasks(date, userID)
	} else {
		todos, err = h.todoService.GetAllWithTasks(userID)
	}
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTodoDTOs(todos))
}

// CreateTodo returns the todo for base_date, creating it when needed
func (h *TodoHandler) CreateTodo(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	// The body is optional
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	todo, created, err := h.todoService.FindOrCreate(userID, req.BaseDate)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	tree, err := h.todoService.GetByIDWithTasks(todo.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToTodoDTO(*tree))
}

// BulkCreateTodo creates a todo with a task list whose parent_id values are list indexes
func (h *TodoHandler) BulkCreateTodo(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.BulkCreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tree, err := h.todoService.CreateBulk(dto.ToBulkCreateInput(userID, req))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTodoDTO(*tree))
}

// GenerateTodo turns free text into a task tree. With save the tree is stored as a todo.
func (h *TodoHandler) GenerateTodo(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.GenerateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	date := models.Today()
	if req.BaseDate != nil && !req.BaseDate.IsZero() {
		date = *req.BaseDate
	}

	generated, err := h.generator.Generate(c.Request.Context(), req.UserInput, date)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	if !req.Save {
		c.JSON(http.StatusOK, dto.GeneratedTodoDTO{BaseDate: date, Tasks: generated})
		return
	}

	tree, err := h.todoService.CreateBulk(services.BulkCreateInput{
		UserID:   userID,
		BaseDate: &date,
		Tasks:    services.FlattenGenerated(generated),
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTodoDTO(*tree))
}

// GetTodo returns a todo with its task tree
// Ownership is checked by RequireTodoAccess middleware
func (h *TodoHandler) GetTodo(c *gin.Context) {
	todo, ok := middleware.GetTodo(c)
	if !ok {
		apierrors.InternalError(c, "Todo not found in context")
		return
	}

	tree, err := h.todoService.GetByIDWithTasks(todo.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTodoDTO(*tree))
}

// GetTodoTasks returns only the task tree of a todo
func (h *TodoHandler) GetTodoTasks(c *gin.Context) {
	todo, ok := middleware.GetTodo(c)
	if !ok {
		apierrors.InternalError(c, "Todo not found in context")
		return
	}

	trees, err := h.taskService.GetTasksWithSubtasksByTodo(todo.ID, todo.UserID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskTreeDTOs(trees))
}

// DeleteTodo deletes a todo with all of its tasks
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	todo, ok := middleware.GetTodo(c)
	if !ok {
		apierrors.InternalError(c, "Todo not found in context")
		return
	}

	if err := h.todoService.Delete(todo.ID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
