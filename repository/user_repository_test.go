package repository

import (
	"database/sql"
	"go-dating-api/logger"
	"go-dating-api/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func newMockRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	logger.Init()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("could not create sqlmock: %v", err)
	}
	return NewUserRepository(db), mock, func() { db.Close() }
}

func TestUserRepository_CreateUser(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	user := &model.User{
		Email:    "amelie@example.com",
		Name:     "Amelie",
		Password: "$2a$12$hash",
		Role:     string(model.RoleUser),
	}

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(user.Email, user.Name, user.Password, user.Role).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "last_active_at", "created_at"}).
			AddRow("550e8400-e29b-41d4-a716-446655440000", true, now, now))

	err := repo.CreateUser(user)

	assert.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", user.ID)
	assert.True(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByEmail(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT id, email, name, password, role, is_active, last_active_at, created_at`).
			WithArgs("amelie@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password", "role", "is_active", "last_active_at", "created_at"}).
				AddRow("u-1", "amelie@example.com", "Amelie", "$2a$12$hash", "user", true, now, now))

		user, err := repo.GetUserByEmail("amelie@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, "Amelie", user.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found returns sql.ErrNoRows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, email, name, password, role, is_active, last_active_at, created_at`).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByEmail("nobody@example.com")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestUserRepository_GetUserByID(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, email, name, password, role, is_active, last_active_at, created_at`).
		WithArgs("u-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password", "role", "is_active", "last_active_at", "created_at"}).
			AddRow("u-2", "ben@example.com", "Ben", "$2a$12$hash", "admin", true, now, now))

	user, err := repo.GetUserByID("u-2")

	assert.NoError(t, err)
	assert.Equal(t, "ben@example.com", user.Email)
	assert.Equal(t, "admin", user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_TouchLastActive(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectExec(`UPDATE users SET last_active_at`).
		WithArgs("u-3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.TouchLastActive("u-3")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
