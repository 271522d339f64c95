package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/repository"
	"gorm.io/gorm"
)

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	store   repository.Store
	service *TaskService
	todo    *models.Todo
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	suite.db, suite.store = newTestStore(suite.T())
	suite.service = NewTaskService(suite.store.Tasks())
	suite.todo = suite.createTodo(1, models.NewDate(2025, 5, 1))
}

func (suite *TaskServiceTestSuite) createTodo(userID uint64, date models.Date) *models.Todo {
	todo := &models.Todo{UserID: userID, BaseDate: date}
	_, err := suite.store.Todos().Create(todo)
	suite.Require().NoError(err)
	return todo
}

func (suite *TaskServiceTestSuite) create(title string, parentID *uint64) *models.Task {
	task, err := suite.service.Create(CreateTaskInput{
		Title:    title,
		Points:   2,
		TodoID:   suite.todo.ID,
		UserID:   suite.todo.UserID,
		ParentID: parentID,
	})
	suite.Require().NoError(err)
	return task
}

func (suite *TaskServiceTestSuite) requireValidation(err error, field string) {
	var validationErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &validationErr)
	suite.Equal(field, validationErr.Field)
}

func (suite *TaskServiceTestSuite) requireNotFound(err error) {
	var notFoundErr *apperrors.NotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func (suite *TaskServiceTestSuite) TestCreate_TopLevel() {
	task, err := suite.service.Create(CreateTaskInput{
		Title:  "  Write report  ",
		Points: 3,
		TodoID: suite.todo.ID,
		UserID: suite.todo.UserID,
	})
	suite.Require().NoError(err)
	suite.NotZero(task.ID)
	suite.Equal("Write report", task.Title)
	suite.Nil(task.ParentID)
	suite.False(task.Completed)
}

func (suite *TaskServiceTestSuite) TestCreate_Subtask() {
	parent := suite.create("parent", nil)
	child := suite.create("child", &parent.ID)

	suite.Require().NotNil(child.ParentID)
	suite.Equal(parent.ID, *child.ParentID)
}

func (suite *TaskServiceTestSuite) TestCreate_RejectsSubtaskOfSubtask() {
	parent := suite.create("parent", nil)
	child := suite.create("child", &parent.ID)

	_, err := suite.service.Create(CreateTaskInput{
		Title:    "grandchild",
		TodoID:   suite.todo.ID,
		UserID:   suite.todo.UserID,
		ParentID: &child.ID,
	})
	suite.requireValidation(err, "parent_id")
	suite.Contains(err.Error(), MsgNestedSubtask)
}

func (suite *TaskServiceTestSuite) TestCreate_RejectsMissingParent() {
	missing := uint64(999)
	_, err := suite.service.Create(CreateTaskInput{
		Title:    "orphan",
		TodoID:   suite.todo.ID,
		UserID:   suite.todo.UserID,
		ParentID: &missing,
	})
	suite.requireValidation(err, "parent_id")
}

func (suite *TaskServiceTestSuite) TestCreate_RejectsParentFromAnotherTodoOrUser() {
	otherTodo := suite.createTodo(1, models.NewDate(2025, 5, 2))
	elsewhere, err := suite.service.Create(CreateTaskInput{Title: "elsewhere", TodoID: otherTodo.ID, UserID: 1})
	suite.Require().NoError(err)

	_, err = suite.service.Create(CreateTaskInput{
		Title:    "child",
		TodoID:   suite.todo.ID,
		UserID:   1,
		ParentID: &elsewhere.ID,
	})
	suite.requireValidation(err, "parent_id")

	foreignTodo := suite.createTodo(2, models.NewDate(2025, 5, 1))
	foreign, err := suite.service.Create(CreateTaskInput{Title: "foreign", TodoID: foreignTodo.ID, UserID: 2})
	suite.Require().NoError(err)

	_, err = suite.service.Create(CreateTaskInput{
		Title:    "child",
		TodoID:   foreignTodo.ID,
		UserID:   1,
		ParentID: &foreign.ID,
	})
	suite.requireValidation(err, "parent_id")
}

func (suite *TaskServiceTestSuite) TestCreate_RejectsInvalidFields() {
	_, err := suite.service.Create(CreateTaskInput{Title: "   ", TodoID: suite.todo.ID, UserID: 1})
	suite.requireValidation(err, "title")

	_, err = suite.service.Create(CreateTaskInput{Title: "ok", Points: -1, TodoID: suite.todo.ID, UserID: 1})
	suite.requireValidation(err, "points")
}

func (suite *TaskServiceTestSuite) TestGetByID_MissingReturnsNil() {
	task, err := suite.service.GetByID(12345)
	suite.NoError(err)
	suite.Nil(task)

	tree, err := suite.service.GetWithSubtasks(12345)
	suite.NoError(err)
	suite.Nil(tree)
}

func (suite *TaskServiceTestSuite) TestGetWithSubtasks() {
	parent := suite.create("parent", nil)
	first := suite.create("first", &parent.ID)
	second := suite.create("second", &parent.ID)

	tree, err := suite.service.GetWithSubtasks(parent.ID)
	suite.Require().NoError(err)
	suite.Require().Len(tree.Subtasks, 2)
	suite.Equal(first.ID, tree.Subtasks[0].ID)
	suite.Equal(second.ID, tree.Subtasks[1].ID)

	leaf, err := suite.service.GetWithSubtasks(first.ID)
	suite.Require().NoError(err)
	suite.NotNil(leaf.Subtasks)
	suite.Empty(leaf.Subtasks)
}

func (suite *TaskServiceTestSuite) TestGetTasksWithSubtasksByTodo_ScopesByUser() {
	parent := suite.create("parent", nil)
	suite.create("child", &parent.ID)
	suite.create("second", nil)

	trees, err := suite.service.GetTasksWithSubtasksByTodo(suite.todo.ID, suite.todo.UserID)
	suite.Require().NoError(err)
	suite.Require().Len(trees, 2)
	suite.Equal("parent", trees[0].Title)
	suite.Len(trees[0].Subtasks, 1)
	suite.Equal("second", trees[1].Title)
	suite.Empty(trees[1].Subtasks)

	foreign, err := suite.service.GetTasksWithSubtasksByTodo(suite.todo.ID, 2)
	suite.Require().NoError(err)
	suite.Empty(foreign)
}

func (suite *TaskServiceTestSuite) TestUpdate_PartialFields() {
	task := suite.create("original", nil)

	points := 8
	updated, err := suite.service.Update(task.ID, UpdateTaskInput{Points: &points})
	suite.Require().NoError(err)
	suite.Equal("original", updated.Title)
	suite.Equal(8, updated.Points)

	completed := true
	updated, err = suite.service.Update(task.ID, UpdateTaskInput{Completed: &completed})
	suite.Require().NoError(err)
	suite.True(updated.Completed)
	suite.Equal(8, updated.Points)
}

func (suite *TaskServiceTestSuite) TestUpdate_TitleNormalization() {
	task := suite.create("original", nil)

	blank := "   "
	_, err := suite.service.Update(task.ID, UpdateTaskInput{Title: &blank})
	suite.requireValidation(err, "title")

	padded := "  Buy milk  "
	_, err = suite.service.Update(task.ID, UpdateTaskInput{Title: &padded})
	suite.Require().NoError(err)

	stored, err := suite.service.GetByID(task.ID)
	suite.Require().NoError(err)
	suite.Equal("Buy milk", stored.Title)
}

func (suite *TaskServiceTestSuite) TestUpdate_RejectsNegativePoints() {
	task := suite.create("task", nil)

	negative := -3
	_, err := suite.service.Update(task.ID, UpdateTaskInput{Points: &negative})
	suite.requireValidation(err, "points")

	stored, _ := suite.service.GetByID(task.ID)
	suite.Equal(2, stored.Points)
}

func (suite *TaskServiceTestSuite) TestUpdate_Missing() {
	title := "x"
	_, err := suite.service.Update(404, UpdateTaskInput{Title: &title})
	suite.requireNotFound(err)
}

func (suite *TaskServiceTestSuite) TestUpdate_ParentChangeRevalidatesDepth() {
	parent := suite.create("parent", nil)
	child := suite.create("child", &parent.ID)
	loose := suite.create("loose", nil)

	_, err := suite.service.Update(loose.ID, UpdateTaskInput{ParentID: &child.ID})
	suite.requireValidation(err, "parent_id")

	moved, err := suite.service.Update(loose.ID, UpdateTaskInput{ParentID: &parent.ID})
	suite.Require().NoError(err)
	suite.Equal(parent.ID, *moved.ParentID)
}

func (suite *TaskServiceTestSuite) TestUpdate_RejectsMovingTaskWithSubtasks() {
	parent := suite.create("parent", nil)
	suite.create("child", &parent.ID)
	other := suite.create("other", nil)

	_, err := suite.service.Update(parent.ID, UpdateTaskInput{ParentID: &other.ID})
	suite.requireValidation(err, "parent_id")
}

func (suite *TaskServiceTestSuite) TestUpdate_RejectsSelfParent() {
	task := suite.create("task", nil)

	_, err := suite.service.Update(task.ID, UpdateTaskInput{ParentID: &task.ID})
	suite.requireValidation(err, "parent_id")
}

func (suite *TaskServiceTestSuite) TestUpdate_SameParentIsNoop() {
	parent := suite.create("parent", nil)
	child := suite.create("child", &parent.ID)

	updated, err := suite.service.Update(child.ID, UpdateTaskInput{ParentID: &parent.ID})
	suite.Require().NoError(err)
	suite.Equal(parent.ID, *updated.ParentID)
}

func (suite *TaskServiceTestSuite) TestUpdate_ClearParent() {
	parent := suite.create("parent", nil)
	child := suite.create("child", &parent.ID)

	updated, err := suite.service.Update(child.ID, UpdateTaskInput{ClearParent: true})
	suite.Require().NoError(err)
	suite.Nil(updated.ParentID)

	stored, _ := suite.service.GetByID(child.ID)
	suite.True(stored.IsTopLevel())
}

func (suite *TaskServiceTestSuite) TestToggleCompletion_Involution() {
	task := suite.create("task", nil)

	for _, start := range []bool{false, true} {
		suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("completed", start)

		once, err := suite.service.ToggleCompletion(task.ID)
		suite.Require().NoError(err)
		suite.Equal(!start, once.Completed)

		twice, err := suite.service.ToggleCompletion(task.ID)
		suite.Require().NoError(err)
		suite.Equal(start, twice.Completed)
	}

	_, err := suite.service.ToggleCompletion(404)
	suite.requireNotFound(err)
}

func (suite *TaskServiceTestSuite) TestDelete_Cascades() {
	parent := suite.create("parent", nil)
	for i := 0; i < 5; i++ {
		suite.create("child", &parent.ID)
	}
	kept := suite.create("kept", nil)

	suite.Require().NoError(suite.service.Delete(parent.ID))

	var remaining []models.Task
	suite.Require().NoError(suite.db.Find(&remaining).Error)
	suite.Require().Len(remaining, 1)
	suite.Equal(kept.ID, remaining[0].ID)
}

func (suite *TaskServiceTestSuite) TestDelete_SubtaskKeepsSiblingAndParent() {
	parent := suite.create("parent", nil)
	target := suite.create("target", &parent.ID)
	sibling := suite.create("sibling", &parent.ID)

	suite.Require().NoError(suite.service.Delete(target.ID))

	tree, err := suite.service.GetWithSubtasks(parent.ID)
	suite.Require().NoError(err)
	suite.Require().Len(tree.Subtasks, 1)
	suite.Equal(sibling.ID, tree.Subtasks[0].ID)
}

func (suite *TaskServiceTestSuite) TestDelete_Missing() {
	suite.requireNotFound(suite.service.Delete(404))
}

// TestDepthInvariant_RandomOperations drives random creates and parent
// changes and checks after every step that no subtask has a subtask.
func (suite *TaskServiceTestSuite) TestDepthInvariant_RandomOperations() {
	rng := rand.New(rand.NewSource(20250501))
	var ids []uint64

	randomID := func() *uint64 {
		if len(ids) == 0 || rng.Intn(3) == 0 {
			return nil
		}
		id := ids[rng.Intn(len(ids))]
		return &id
	}

	for step := 0; step < 300; step++ {
		var err error
		switch {
		case len(ids) < 5 || rng.Intn(2) == 0:
			var task *models.Task
			task, err = suite.service.Create(CreateTaskInput{
				Title:    "task",
				Points:   rng.Intn(10),
				TodoID:   suite.todo.ID,
				UserID:   suite.todo.UserID,
				ParentID: randomID(),
			})
			if err == nil {
				ids = append(ids, task.ID)
			}
		case rng.Intn(4) == 0:
			_, err = suite.service.Update(ids[rng.Intn(len(ids))], UpdateTaskInput{ClearParent: true})
		default:
			target := randomID()
			if target == nil {
				continue
			}
			_, err = suite.service.Update(ids[rng.Intn(len(ids))], UpdateTaskInput{ParentID: target})
		}

		if err != nil {
			var validationErr *apperrors.ValidationError
			suite.Require().ErrorAs(err, &validationErr, "step %d", step)
		}

		suite.assertDepthInvariant(step)
	}
}

func (suite *TaskServiceTestSuite) assertDepthInvariant(step int) {
	var tasks []models.Task
	suite.Require().NoError(suite.db.Find(&tasks).Error)

	byID := make(map[uint64]models.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	for _, task := range tasks {
		if task.ParentID == nil {
			continue
		}
		parent, ok := byID[*task.ParentID]
		suite.Require().True(ok, "step %d: task %d points at missing parent", step, task.ID)
		suite.Require().Nil(parent.ParentID, "step %d: task %d is nested under subtask %d", step, task.ID, parent.ID)
	}
}

// TestTaskServiceTestSuite runs the test suite
func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
