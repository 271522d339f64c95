package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/todo-grow/backend/internal/constants"
	apierrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/services"
)

// RequireTodoAccess checks that the todo named by the :id parameter belongs to the current user
func RequireTodoAccess(todos *services.TodoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		todoID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid todo ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		todo, err := todos.GetByID(todoID)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		// Return 404 instead of 403 to avoid leaking todo existence
		if todo == nil || todo.UserID != userID {
			apierrors.NotFound(c, "Todo not found")
			return
		}

		c.Set(constants.ContextKeyTodo, *todo)
		c.Next()
	}
}

// GetTodo retrieves the todo stored by RequireTodoAccess
func GetTodo(c *gin.Context) (models.Todo, bool) {
	value, exists := c.Get(constants.ContextKeyTodo)
	if !exists {
		return models.Todo{}, false
	}
	todo, ok := value.(models.Todo)
	return todo, ok
}
