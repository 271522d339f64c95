package services

import (
	"errors"
	"fmt"

	apperrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/repository"
	"gorm.io/gorm"
)

// TodoService orchestrates todos and their task trees
type TodoService struct {
	store repository.Store
	tasks *TaskService
}

// NewTodoService creates a new TodoService
func NewTodoService(store repository.Store, tasks *TaskService) *TodoService {
	return &TodoService{
		store: store,
		tasks: tasks,
	}
}

// FindOrCreate returns the user's todo for date, creating it when absent.
// A nil date means today. created reports whether a new row was inserted.
func (s *TodoService) FindOrCreate(userID uint64, date *models.Date) (todo *models.Todo, created bool, err error) {
	return findOrCreateTodo(s.store.Todos(), userID, resolveDate(date))
}

// GetByID returns the todo, or nil when it does not exist
func (s *TodoService) GetByID(todoID uint64) (*models.Todo, error) {
	todo, err := s.store.Todos().FindByID(todoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return todo, nil
}

// GetAllWithTasks returns every todo of the user with its task tree
func (s *TodoService) GetAllWithTasks(userID uint64) ([]models.TodoTree, error) {
	todos, err := s.store.Todos().ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return s.withTasks(todos)
}

// GetByDateWithTasks returns the user's todos for date with their task trees
func (s *TodoService) GetByDateWithTasks(date models.Date, userID uint64) ([]models.TodoTree, error) {
	todos, err := s.store.Todos().ListByUserAndDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return s.withTasks(todos)
}

// GetByIDWithTasks returns one todo with its task tree.
// Ownership is not checked here.
func (s *TodoService) GetByIDWithTasks(todoID uint64) (*models.TodoTree, error) {
	todo, err := s.GetByID(todoID)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, apperrors.NewNotFound("todo", todoID)
	}
	return assembleTodo(s.tasks, *todo)
}

// Delete removes the todo and all of its tasks
func (s *TodoService) Delete(todoID uint64) error {
	if err := s.store.Todos().DeleteWithTasks(todoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("todo", todoID)
		}
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

func (s *TodoService) withTasks(todos []models.Todo) ([]models.TodoTree, error) {
	trees := make([]models.TodoTree, 0, len(todos))
	for _, todo := range todos {
		tree, err := assembleTodo(s.tasks, todo)
		if err != nil {
			return nil, err
		}
		trees = append(trees, *tree)
	}
	return trees, nil
}

func assembleTodo(tasks *TaskService, todo models.Todo) (*models.TodoTree, error) {
	trees, err := tasks.GetTasksWithSubtasksByTodo(todo.ID, todo.UserID)
	if err != nil {
		return nil, err
	}
	return &models.TodoTree{Todo: todo, Tasks: trees}, nil
}

func findOrCreateTodo(todos repository.TodoRepository, userID uint64, date models.Date) (*models.Todo, bool, error) {
	existing, err := todos.FindByUserAndDate(userID, date)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to find todo: %w", err)
	}

	// A concurrent request may have inserted the same (user, date) meanwhile
	todo := &models.Todo{UserID: userID, BaseDate: date}
	inserted, err := todos.Create(todo)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create todo: %w", err)
	}
	return todo, inserted, nil
}

func resolveDate(date *models.Date) models.Date {
	if date == nil || date.IsZero() {
		return models.Today()
	}
	return *date
}
