package repository

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func TestDeleteWithDescendants_RollsBackWhenChildDeleteFails(t *testing.T) {
	db, mock := newMockDB(t)
	errBoom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `tasks` WHERE parent_id = \\?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2).AddRow(3))
	mock.ExpectQuery("SELECT `id` FROM `tasks` WHERE parent_id = \\?").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("DELETE FROM `tasks` WHERE `tasks`.`id` = \\?").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT `id` FROM `tasks` WHERE parent_id = \\?").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("DELETE FROM `tasks` WHERE `tasks`.`id` = \\?").
		WithArgs(3).
		WillReturnError(errBoom)
	mock.ExpectRollback()

	err := NewTaskRepository(db).DeleteWithDescendants(1)
	assert.ErrorIs(t, err, errBoom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithDescendants_CommitsChildrenBeforeRoot(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `tasks` WHERE parent_id = \\?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery("SELECT `id` FROM `tasks` WHERE parent_id = \\?").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("DELETE FROM `tasks` WHERE `tasks`.`id` = \\?").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `tasks` WHERE `tasks`.`id` = \\?").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewTaskRepository(db).DeleteWithDescendants(1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithOwnedData_RollsBackWhenTodoDeleteFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `tasks` WHERE .*parent_id IS NOT NULL").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `tasks` WHERE user_id = \\?").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `todos` WHERE user_id = \\?").
		WithArgs(5).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	err := NewUserRepository(db).DeleteWithOwnedData(5)
	assert.ErrorIs(t, err, ErrDeleteTodos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskTransaction_LocksRowAndRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	errBoom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `tasks` WHERE `tasks`.`id` = \\? ORDER BY `tasks`.`id` LIMIT \\? FOR UPDATE").
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(5, "locked"))
	mock.ExpectRollback()

	err := NewTaskRepository(db).Transaction(func(repo TaskRepository) error {
		task, err := repo.FindByIDForUpdate(5)
		require.NoError(t, err)
		assert.Equal(t, "locked", task.Title)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
