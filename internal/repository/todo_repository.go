package repository

import (
	"github.com/todo-grow/backend/internal/database"
	"github.com/todo-grow/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTodoRepository is a GORM implementation of TodoRepository
type GormTodoRepository struct {
	db *gorm.DB
}

// NewTodoRepository creates a new TodoRepository
func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &GormTodoRepository{db: db}
}

// Create inserts the todo, leaving an existing (user_id, base_date) row untouched.
// When the row already existed todo is filled from it.
func (r *GormTodoRepository) Create(todo *models.Todo) (bool, error) {
	result := r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "base_date"}},
			DoNothing: true,
		}).
		Create(todo)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.FindByUserAndDate(todo.UserID, todo.BaseDate)
	if err != nil {
		return false, err
	}
	*todo = *existing
	return false, nil
}

// FindByID finds a todo by ID
func (r *GormTodoRepository) FindByID(id uint64) (*models.Todo, error) {
	var todo models.Todo
	if err := r.db.First(&todo, id).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

// FindByUserAndDate finds the todo of a user for a date
func (r *GormTodoRepository) FindByUserAndDate(userID uint64, date models.Date) (*models.Todo, error) {
	var todo models.Todo
	if err := r.db.
		Scopes(database.OwnedBy(userID)).
		Where("base_date = ?", date).
		First(&todo).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

// ListByUser lists all todos of a user, newest date first
func (r *GormTodoRepository) ListByUser(userID uint64) ([]models.Todo, error) {
	var todos []models.Todo
	err := r.db.
		Scopes(database.OwnedBy(userID)).
		Order("base_date DESC").
		Find(&todos).Error
	return todos, err
}

// ListByUserAndDate lists the todos of a user for a date
func (r *GormTodoRepository) ListByUserAndDate(userID uint64, date models.Date) ([]models.Todo, error) {
	var todos []models.Todo
	err := r.db.
		Scopes(database.OwnedBy(userID), database.InsertionOrder).
		Where("base_date = ?", date).
		Find(&todos).Error
	return todos, err
}

// DeleteWithTasks deletes a todo and all of its tasks.
// Returns gorm.ErrRecordNotFound when the todo does not exist.
func (r *GormTodoRepository) DeleteWithTasks(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("todo_id = ? AND parent_id IS NOT NULL", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("todo_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Todo{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
