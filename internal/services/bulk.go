package services

import (
	"github.com/todo-grow/backend/internal/constants"
	apperrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/repository"
)

// BulkTaskSpec describes one task of a bulk request. ParentIndex points at
// an earlier entry of the same request, not at a stored task.
type BulkTaskSpec struct {
	Title       string
	Points      int
	Completed   bool
	ParentIndex *int
}

// BulkCreateInput is a todo together with its task list
type BulkCreateInput struct {
	UserID   uint64
	BaseDate *models.Date
	Tasks    []BulkTaskSpec
}

// CreateBulk find-or-creates the todo and creates every task in request order
// within one transaction. Any failure leaves nothing behind.
func (s *TodoService) CreateBulk(input BulkCreateInput) (*models.TodoTree, error) {
	date := resolveDate(input.BaseDate)

	var result *models.TodoTree
	err := s.store.Transaction(func(tx repository.Store) error {
		tasks := NewTaskService(tx.Tasks())

		todo, _, err := findOrCreateTodo(tx.Todos(), input.UserID, date)
		if err != nil {
			return err
		}

		// assigned[i] is the stored ID of input.Tasks[i]
		assigned := make([]uint64, 0, len(input.Tasks))
		for _, spec := range input.Tasks {
			var parentID *uint64
			if spec.ParentIndex != nil {
				idx := *spec.ParentIndex
				if idx < 0 || idx >= len(assigned) {
					return apperrors.NewValidation("parent_id", "invalid parent index %d at position %d", idx, len(assigned))
				}
				resolved := assigned[idx]
				parentID = &resolved
			}

			task, err := tasks.Create(CreateTaskInput{
				Title:     spec.Title,
				Points:    spec.Points,
				Completed: spec.Completed,
				TodoID:    todo.ID,
				UserID:    input.UserID,
				ParentID:  parentID,
			})
			if err != nil {
				return err
			}
			assigned = append(assigned, task.ID)
		}

		result, err = assembleTodo(tasks, *todo)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FlattenGenerated turns a generated task tree into bulk specs where every
// subtask references the index of its parent.
func FlattenGenerated(generated []GeneratedTask) []BulkTaskSpec {
	specs := make([]BulkTaskSpec, 0, len(generated))
	for _, task := range generated {
		parentIndex := len(specs)
		specs = append(specs, BulkTaskSpec{
			Title:  task.Title,
			Points: clampPoints(task.Points),
		})

		for _, subtask := range task.Subtasks {
			idx := parentIndex
			specs = append(specs, BulkTaskSpec{
				Title:       subtask.Title,
				Points:      clampPoints(subtask.Points),
				ParentIndex: &idx,
			})
		}
	}
	return specs
}

func clampPoints(points int) int {
	return clampGeneratedPoints(int64(points))
}

// clampGeneratedPoints clamps before narrowing so huge values end at the top of the range
func clampGeneratedPoints(points int64) int {
	return int(max(constants.MinGeneratedPoints, min(constants.MaxGeneratedPoints, points)))
}
