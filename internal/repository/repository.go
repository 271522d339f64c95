package repository

import (
	"github.com/todo-grow/backend/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id uint64) (*models.Task, error)

	// FindByIDForUpdate finds a task by ID and locks its row until the
	// surrounding transaction ends
	FindByIDForUpdate(id uint64) (*models.Task, error)

	// ListTopLevelByTodo lists the parent-less tasks of a todo owned by userID
	ListTopLevelByTodo(todoID, userID uint64) ([]models.Task, error)

	// ListByParent lists the direct children of a task
	ListByParent(parentID uint64) ([]models.Task, error)

	// CountByParent counts the direct children of a task
	CountByParent(parentID uint64) (int64, error)

	// Update saves all fields of a task
	Update(task *models.Task) error

	// DeleteWithDescendants deletes a task and every task below it
	DeleteWithDescendants(id uint64) error

	// Transaction runs fn against a TaskRepository bound to one transaction.
	// Inside an open transaction it nests as a savepoint.
	Transaction(fn func(repo TaskRepository) error) error
}

// TodoRepository defines the interface for todo data access
type TodoRepository interface {
	// Create inserts the todo unless one already exists for its (user, date).
	// inserted is false when the row was already present.
	Create(todo *models.Todo) (inserted bool, err error)

	// FindByID finds a todo by ID
	FindByID(id uint64) (*models.Todo, error)

	// FindByUserAndDate finds the todo of a user for a date
	FindByUserAndDate(userID uint64, date models.Date) (*models.Todo, error)

	// ListByUser lists all todos of a user
	ListByUser(userID uint64) ([]models.Todo, error)

	// ListByUserAndDate lists the todos of a user for a date
	ListByUserAndDate(userID uint64, date models.Date) ([]models.Todo, error)

	// DeleteWithTasks deletes a todo and all of its tasks
	DeleteWithTasks(id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByKakaoID finds a user by Kakao account ID
	FindByKakaoID(kakaoID string) (*models.User, error)

	// Update saves all fields of a user
	Update(user *models.User) error

	// DeleteWithOwnedData deletes a user with all todos and tasks they own
	DeleteWithOwnedData(id uint64) error
}

// Store bundles the repositories behind one unit of work.
type Store interface {
	Tasks() TaskRepository
	Todos() TodoRepository
	Users() UserRepository

	// Transaction runs fn against a Store bound to a single database
	// transaction. fn returning an error rolls back every write.
	Transaction(fn func(tx Store) error) error
}
