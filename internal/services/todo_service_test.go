package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/repository"
	"gorm.io/gorm"
)

// TodoServiceTestSuite defines the test suite for TodoService and bulk creation
type TodoServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	store   repository.Store
	tasks   *TaskService
	service *TodoService
}

// SetupTest runs before each test
func (suite *TodoServiceTestSuite) SetupTest() {
	suite.db, suite.store = newTestStore(suite.T())
	suite.tasks = NewTaskService(suite.store.Tasks())
	suite.service = NewTodoService(suite.store, suite.tasks)
}

func (suite *TodoServiceTestSuite) count(model any) int64 {
	var count int64
	suite.Require().NoError(suite.db.Model(model).Count(&count).Error)
	return count
}

func intPtr(v int) *int {
	return &v
}

func (suite *TodoServiceTestSuite) TestFindOrCreate_Idempotent() {
	date := models.NewDate(2025, 6, 1)

	first, created, err := suite.service.FindOrCreate(1, &date)
	suite.Require().NoError(err)
	suite.True(created)

	second, created, err := suite.service.FindOrCreate(1, &date)
	suite.Require().NoError(err)
	suite.False(created)
	suite.Equal(first.ID, second.ID)

	suite.Equal(int64(1), suite.count(&models.Todo{}))
}

func (suite *TodoServiceTestSuite) TestFindOrCreate_DefaultsToToday() {
	todo, created, err := suite.service.FindOrCreate(1, nil)
	suite.Require().NoError(err)
	suite.True(created)
	suite.Equal(models.Today().String(), todo.BaseDate.String())
}

func (suite *TodoServiceTestSuite) TestCreateBulk_RoundTrip() {
	date := models.NewDate(2025, 6, 2)

	tree, err := suite.service.CreateBulk(BulkCreateInput{
		UserID:   1,
		BaseDate: &date,
		Tasks: []BulkTaskSpec{
			{Title: "A", Points: 3},
			{Title: "B", Points: 1, ParentIndex: intPtr(0)},
			{Title: "C", Points: 1, ParentIndex: intPtr(0)},
		},
	})
	suite.Require().NoError(err)

	suite.Equal("2025-06-02", tree.BaseDate.String())
	suite.Require().Len(tree.Tasks, 1)
	suite.Equal("A", tree.Tasks[0].Title)
	suite.Require().Len(tree.Tasks[0].Subtasks, 2)
	suite.Equal("B", tree.Tasks[0].Subtasks[0].Title)
	suite.Equal("C", tree.Tasks[0].Subtasks[1].Title)
	suite.Equal(tree.Tasks[0].ID, *tree.Tasks[0].Subtasks[0].ParentID)
}

func (suite *TodoServiceTestSuite) TestCreateBulk_InvalidIndexLeavesNothing() {
	date := models.NewDate(2025, 6, 3)

	_, err := suite.service.CreateBulk(BulkCreateInput{
		UserID:   1,
		BaseDate: &date,
		Tasks: []BulkTaskSpec{
			{Title: "A", Points: 3},
			{Title: "B", Points: 1, ParentIndex: intPtr(5)},
		},
	})

	var validationErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &validationErr)
	suite.Contains(validationErr.Message, "5")

	suite.Zero(suite.count(&models.Todo{}))
	suite.Zero(suite.count(&models.Task{}))
}

func (suite *TodoServiceTestSuite) TestCreateBulk_ForwardAndSelfReferencesRejected() {
	for _, idx := range []int{-1, 0, 1} {
		_, err := suite.service.CreateBulk(BulkCreateInput{
			UserID: 1,
			Tasks: []BulkTaskSpec{
				{Title: "self or forward", ParentIndex: intPtr(idx)},
				{Title: "later"},
			},
		})
		var validationErr *apperrors.ValidationError
		suite.Require().ErrorAs(err, &validationErr, "index %d", idx)
	}

	suite.Zero(suite.count(&models.Todo{}))
}

func (suite *TodoServiceTestSuite) TestCreateBulk_ParentThatIsSubtaskFails() {
	_, err := suite.service.CreateBulk(BulkCreateInput{
		UserID: 1,
		Tasks: []BulkTaskSpec{
			{Title: "A"},
			{Title: "B", ParentIndex: intPtr(0)},
			{Title: "C", ParentIndex: intPtr(1)},
		},
	})

	var validationErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &validationErr)
	suite.Contains(validationErr.Message, MsgNestedSubtask)
	suite.Zero(suite.count(&models.Task{}))
}

func (suite *TodoServiceTestSuite) TestCreateBulk_InvalidTitleRollsBack() {
	_, err := suite.service.CreateBulk(BulkCreateInput{
		UserID: 1,
		Tasks: []BulkTaskSpec{
			{Title: "fine"},
			{Title: "   "},
		},
	})

	var validationErr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &validationErr)
	suite.Zero(suite.count(&models.Task{}))
	suite.Zero(suite.count(&models.Todo{}))
}

func (suite *TodoServiceTestSuite) TestCreateBulk_EmptyList() {
	tree, err := suite.service.CreateBulk(BulkCreateInput{UserID: 1})
	suite.Require().NoError(err)
	suite.NotNil(tree.Tasks)
	suite.Empty(tree.Tasks)
	suite.Equal(int64(1), suite.count(&models.Todo{}))
}

func (suite *TodoServiceTestSuite) TestCreateBulk_ReusesExistingTodo() {
	date := models.NewDate(2025, 6, 4)
	existing, _, err := suite.service.FindOrCreate(1, &date)
	suite.Require().NoError(err)

	tree, err := suite.service.CreateBulk(BulkCreateInput{
		UserID:   1,
		BaseDate: &date,
		Tasks:    []BulkTaskSpec{{Title: "added"}},
	})
	suite.Require().NoError(err)
	suite.Equal(existing.ID, tree.ID)
	suite.Len(tree.Tasks, 1)
	suite.Equal(int64(1), suite.count(&models.Todo{}))
}

func (suite *TodoServiceTestSuite) TestGetAllAndByDateWithTasks() {
	d1 := models.NewDate(2025, 6, 1)
	d2 := models.NewDate(2025, 6, 2)
	_, err := suite.service.CreateBulk(BulkCreateInput{UserID: 1, BaseDate: &d1, Tasks: []BulkTaskSpec{{Title: "one"}}})
	suite.Require().NoError(err)
	_, err = suite.service.CreateBulk(BulkCreateInput{UserID: 1, BaseDate: &d2, Tasks: []BulkTaskSpec{{Title: "two"}}})
	suite.Require().NoError(err)
	_, err = suite.service.CreateBulk(BulkCreateInput{UserID: 2, BaseDate: &d1, Tasks: []BulkTaskSpec{{Title: "foreign"}}})
	suite.Require().NoError(err)

	all, err := suite.service.GetAllWithTasks(1)
	suite.Require().NoError(err)
	suite.Require().Len(all, 2)
	for _, todo := range all {
		suite.Equal(uint64(1), todo.UserID)
		suite.Len(todo.Tasks, 1)
	}

	byDate, err := suite.service.GetByDateWithTasks(d1, 1)
	suite.Require().NoError(err)
	suite.Require().Len(byDate, 1)
	suite.Equal("one", byDate[0].Tasks[0].Title)
}

func (suite *TodoServiceTestSuite) TestGetByIDWithTasks() {
	created, err := suite.service.CreateBulk(BulkCreateInput{
		UserID: 1,
		Tasks:  []BulkTaskSpec{{Title: "A"}, {Title: "B", ParentIndex: intPtr(0)}},
	})
	suite.Require().NoError(err)

	tree, err := suite.service.GetByIDWithTasks(created.ID)
	suite.Require().NoError(err)
	suite.Require().Len(tree.Tasks, 1)
	suite.Len(tree.Tasks[0].Subtasks, 1)

	_, err = suite.service.GetByIDWithTasks(404)
	var notFoundErr *apperrors.NotFoundError
	suite.ErrorAs(err, &notFoundErr)
}

func (suite *TodoServiceTestSuite) TestDelete() {
	created, err := suite.service.CreateBulk(BulkCreateInput{
		UserID: 1,
		Tasks:  []BulkTaskSpec{{Title: "A"}, {Title: "B", ParentIndex: intPtr(0)}},
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Delete(created.ID))
	suite.Zero(suite.count(&models.Task{}))
	suite.Zero(suite.count(&models.Todo{}))

	var notFoundErr *apperrors.NotFoundError
	suite.ErrorAs(suite.service.Delete(created.ID), &notFoundErr)
}

func (suite *TodoServiceTestSuite) TestFlattenGenerated() {
	specs := FlattenGenerated([]GeneratedTask{
		{Title: "A", Points: 12, Subtasks: []GeneratedSubtask{{Title: "A1", Points: 0}, {Title: "A2", Points: 4}}},
		{Title: "B", Points: 5},
		{Title: "C", Points: 2, Subtasks: []GeneratedSubtask{{Title: "C1", Points: 3}}},
	})

	suite.Require().Len(specs, 6)
	suite.Nil(specs[0].ParentIndex)
	suite.Equal(10, specs[0].Points)
	suite.Equal(0, *specs[1].ParentIndex)
	suite.Equal(1, specs[1].Points)
	suite.Equal(0, *specs[2].ParentIndex)
	suite.Nil(specs[3].ParentIndex)
	suite.Equal("C1", specs[5].Title)
	suite.Equal(4, *specs[5].ParentIndex)

	tree, err := suite.service.CreateBulk(BulkCreateInput{UserID: 1, Tasks: specs})
	suite.Require().NoError(err)
	suite.Require().Len(tree.Tasks, 3)
	suite.Len(tree.Tasks[0].Subtasks, 2)
	suite.Empty(tree.Tasks[1].Subtasks)
	suite.Len(tree.Tasks[2].Subtasks, 1)
}

// TestTodoServiceTestSuite runs the test suite
func TestTodoServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TodoServiceTestSuite))
}
