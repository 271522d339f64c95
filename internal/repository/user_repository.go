package repository

import (
	"errors"
	"fmt"

	"github.com/todo-grow/backend/internal/database"
	"github.com/todo-grow/backend/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrDeleteTasks is returned when removing a user's tasks fails inside the withdrawal transaction.
	ErrDeleteTasks = errors.New("user repository: delete tasks failed")
	// ErrDeleteTodos is returned when removing a user's todos fails inside the withdrawal transaction.
	ErrDeleteTodos = errors.New("user repository: delete todos failed")
	// ErrDeleteUser is returned when removing the user row fails inside the withdrawal transaction.
	ErrDeleteUser = errors.New("user repository: delete user failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByKakaoID finds a user by Kakao account ID
func (r *GormUserRepository) FindByKakaoID(kakaoID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("kakao_id = ?", kakaoID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// DeleteWithOwnedData removes the user's subtasks, tasks, todos and finally the user atomically.
// Returns gorm.ErrRecordNotFound when the user does not exist.
func (r *GormUserRepository) DeleteWithOwnedData(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedBy(id)).Where("parent_id IS NOT NULL").Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrDeleteTasks, err)
		}

		if err := tx.Scopes(database.OwnedBy(id)).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrDeleteTasks, err)
		}

		if err := tx.Scopes(database.OwnedBy(id)).Delete(&models.Todo{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrDeleteTodos, err)
		}

		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return fmt.Errorf("%w: %v", ErrDeleteUser, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
