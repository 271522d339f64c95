package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/todo-grow/backend/internal/constants"
	apperrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/repository"
	"gorm.io/gorm"
)

// MsgNestedSubtask is the message for depth invariant violations.
const MsgNestedSubtask = "subtask cannot itself have a subtask"

// TaskService owns the two-level task hierarchy
type TaskService struct {
	taskRepo repository.TaskRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title     string
	Points    int
	Completed bool
	TodoID    uint64
	UserID    uint64
	ParentID  *uint64
}

// UpdateTaskInput represents a partial update. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Points      *int
	Completed   *bool
	ParentID    *uint64
	ClearParent bool
}

// Create validates and persists a task
func (s *TaskService) Create(input CreateTaskInput) (*models.Task, error) {
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validatePoints(input.Points); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:     title,
		Points:    input.Points,
		Completed: input.Completed,
		TodoID:    input.TodoID,
		UserID:    input.UserID,
	}

	// The parent row stays locked until the insert commits, so it cannot
	// become a subtask in between
	err = s.taskRepo.Transaction(func(repo repository.TaskRepository) error {
		txs := NewTaskService(repo)
		if input.ParentID != nil {
			if err := txs.ensureValidParent(task, *input.ParentID); err != nil {
				return err
			}
			parentID := *input.ParentID
			task.ParentID = &parentID
		}

		if err := repo.Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// GetByID returns the task, or nil when it does not exist
func (s *TaskService) GetByID(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// GetWithSubtasks returns the task with its direct children, or nil when it does not exist
func (s *TaskService) GetWithSubtasks(taskID uint64) (*models.TaskTree, error) {
	task, err := s.GetByID(taskID)
	if err != nil || task == nil {
		return nil, err
	}
	return s.withSubtasks(*task)
}

// GetTasksWithSubtasksByTodo returns the top-level tasks of a todo owned by userID, each with its subtasks
func (s *TaskService) GetTasksWithSubtasksByTodo(todoID, userID uint64) ([]models.TaskTree, error) {
	tasks, err := s.taskRepo.ListTopLevelByTodo(todoID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	trees := make([]models.TaskTree, 0, len(tasks))
	for _, task := range tasks {
		tree, err := s.withSubtasks(task)
		if err != nil {
			return nil, err
		}
		trees = append(trees, *tree)
	}

	return trees, nil
}

// Update applies the supplied fields to a task. The depth checks and the
// write share one transaction holding row locks on the task and its new parent.
func (s *TaskService) Update(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	var updated *models.Task
	err := s.taskRepo.Transaction(func(repo repository.TaskRepository) error {
		task, err := NewTaskService(repo).applyUpdate(taskID, input)
		updated = task
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TaskService) applyUpdate(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	moving := !input.ClearParent && input.ParentID != nil

	// Rows are locked in ID order
	if moving && *input.ParentID < taskID {
		if _, err := s.lockTask(*input.ParentID); err != nil {
			return nil, err
		}
	}

	task, err := s.lockTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NewNotFound("task", taskID)
	}

	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}

	if input.Points != nil {
		if err := validatePoints(*input.Points); err != nil {
			return nil, err
		}
		task.Points = *input.Points
	}

	if input.Completed != nil {
		task.Completed = *input.Completed
	}

	switch {
	case input.ClearParent:
		task.ParentID = nil
	case moving && !sameParent(task.ParentID, *input.ParentID):
		if err := s.ensureValidParent(task, *input.ParentID); err != nil {
			return nil, err
		}
		if err := s.ensureNoSubtasks(task); err != nil {
			return nil, err
		}
		parentID := *input.ParentID
		task.ParentID = &parentID
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// ToggleCompletion flips the completed flag
func (s *TaskService) ToggleCompletion(taskID uint64) (*models.Task, error) {
	task, err := s.mustFind(taskID)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Delete removes the task together with all of its descendants
func (s *TaskService) Delete(taskID uint64) error {
	if err := s.taskRepo.DeleteWithDescendants(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("task", taskID)
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) withSubtasks(task models.Task) (*models.TaskTree, error) {
	subtasks, err := s.taskRepo.ListByParent(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	if subtasks == nil {
		subtasks = []models.Task{}
	}
	return &models.TaskTree{Task: task, Subtasks: subtasks}, nil
}

func (s *TaskService) mustFind(taskID uint64) (*models.Task, error) {
	task, err := s.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NewNotFound("task", taskID)
	}
	return task, nil
}

// lockTask loads the task with a row lock, or nil when it does not exist
func (s *TaskService) lockTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByIDForUpdate(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock task: %w", err)
	}
	return task, nil
}

// ensureValidParent checks that parentID can hold task as a subtask
func (s *TaskService) ensureValidParent(task *models.Task, parentID uint64) error {
	if task.ID != 0 && task.ID == parentID {
		return apperrors.NewValidation("parent_id", "task cannot be its own parent")
	}

	parent, err := s.lockTask(parentID)
	if err != nil {
		return err
	}
	if parent == nil || parent.UserID != task.UserID {
		return apperrors.NewValidation("parent_id", "parent task %d not found", parentID)
	}
	if parent.TodoID != task.TodoID {
		return apperrors.NewValidation("parent_id", "parent task %d belongs to another todo", parentID)
	}
	if !parent.IsTopLevel() {
		return apperrors.NewValidation("parent_id", MsgNestedSubtask)
	}
	return nil
}

// ensureNoSubtasks rejects moving a task with children below another task
func (s *TaskService) ensureNoSubtasks(task *models.Task) error {
	count, err := s.taskRepo.CountByParent(task.ID)
	if err != nil {
		return fmt.Errorf("failed to count subtasks: %w", err)
	}
	if count > 0 {
		return apperrors.NewValidation("parent_id", MsgNestedSubtask)
	}
	return nil
}

func sameParent(current *uint64, next uint64) bool {
	return current != nil && *current == next
}

func normalizeTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", apperrors.NewValidation("title", "title cannot be empty")
	}
	return trimmed, nil
}

func validatePoints(points int) error {
	if points < constants.MinTaskPoints {
		return apperrors.NewValidation("points", "points must be >= %d", constants.MinTaskPoints)
	}
	return nil
}
