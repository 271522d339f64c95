package database

import (
	"fmt"
	"log"

	"github.com/todo-grow/backend/internal/models"
	"gorm.io/gorm"
)

// AddIndexes makes sure the indexes the read and delete paths rely on exist.
// Tables created before an index was declared on the model get it here.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model any
		name  string
	}{
		// (user_id, base_date) uniqueness backs find-or-create
		{&models.Todo{}, "idx_todos_user_date"},

		// Tree assembly and cascade delete
		{&models.Task{}, "idx_tasks_todo_user"},
		{&models.Task{}, "idx_tasks_parent_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		if err := migrator.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s", idx.name)
	}

	return nil
}
