package repository

import (
	"context"
	"errors"
	"testing"

	"gcxportal/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB wires GORM's postgres dialector over a sqlmock connection so SQL
// shape and error translation can be asserted without a server.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() { sqlDB.Close() })
	return db, mock
}

func TestUserRepository_GetByEmail(t *testing.T) {
	t.Run("maps the row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		rows := sqlmock.NewRows([]string{"id", "username", "email", "role", "must_change_password"}).
			AddRow(int64(1), "akosua", "akosua@example.com", string(models.RoleSupplier), true)
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
			WillReturnRows(rows)

		user, err := repo.GetByEmail(context.Background(), "akosua@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "akosua", user.Username)
		assert.True(t, user.MustChangePassword)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row means nil without error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failures surface as internal errors", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByEmail(context.Background(), "akosua@example.com")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
	})
}

func TestUserRepository_CreateUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "uni_users_email" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{
		Username: "akosua",
		Email:    "akosua@example.com",
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
