package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/todo-grow/backend/internal/constants"
	apierrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter and checks
// that it belongs to the current user
func RequireTaskAccess(tasks *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		task, err := tasks.GetByID(taskID)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		// Return 404 instead of 403 to avoid leaking task existence
		if task == nil || task.UserID != userID {
			apierrors.NotFound(c, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask retrieves the task stored by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}
