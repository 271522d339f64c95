package repository

import (
	"github.com/todo-grow/backend/internal/database"
	"github.com/todo-grow/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDForUpdate finds a task by ID with SELECT ... FOR UPDATE
func (r *GormTaskRepository) FindByIDForUpdate(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTopLevelByTodo lists the parent-less tasks of a todo in creation order
func (r *GormTaskRepository) ListTopLevelByTodo(todoID, userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Scopes(database.OwnedBy(userID), database.TopLevel, database.InsertionOrder).
		Where("todo_id = ?", todoID).
		Find(&tasks).Error
	return tasks, err
}

// ListByParent lists the direct children of a task in creation order
func (r *GormTaskRepository) ListByParent(parentID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Scopes(database.ChildrenOf(parentID), database.InsertionOrder).
		Find(&tasks).Error
	return tasks, err
}

// CountByParent counts the direct children of a task
func (r *GormTaskRepository) CountByParent(parentID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Scopes(database.ChildrenOf(parentID)).
		Count(&count).Error
	return count, err
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Transaction runs fn inside db.Transaction
func (r *GormTaskRepository) Transaction(fn func(repo TaskRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormTaskRepository{db: tx})
	})
}

// DeleteWithDescendants deletes the task and its whole subtree in one transaction.
// Returns gorm.ErrRecordNotFound when the root task does not exist.
func (r *GormTaskRepository) DeleteWithDescendants(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteSubtree(tx, id)
	})
}

// deleteSubtree removes the children of id before id itself, so a
// parent_id never points at a deleted row mid-transaction.
func deleteSubtree(tx *gorm.DB, id uint64) error {
	var childIDs []uint64
	if err := tx.Model(&models.Task{}).
		Scopes(database.ChildrenOf(id), database.InsertionOrder).
		Pluck("id", &childIDs).Error; err != nil {
		return err
	}

	for _, childID := range childIDs {
		if err := deleteSubtree(tx, childID); err != nil {
			return err
		}
	}

	result := tx.Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
