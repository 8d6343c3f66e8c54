package repository

import (
	"auth-session-server/internal/model"
	apperrors "auth-session-server/pkg/errors"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (uuid, email, password_hash)`)).
		WithArgs("u-1", "a@b.c", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "email", "created_at", "updated_at"}).
			AddRow("u-1", "a@b.c", now, now))

	user, err := repo.CreateUser(context.Background(), &model.User{UUID: "u-1", Email: "a@b.c", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UUID)
	assert.Equal(t, "a@b.c", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser_EmailTaken(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.CreateUser(context.Background(), &model.User{UUID: "u-1", Email: "a@b.c"})
	assert.True(t, errors.Is(err, apperrors.ErrEmailTaken))
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT uuid, email, password_hash, created_at, updated_at FROM users WHERE email = $1`)).
		WithArgs("nobody@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "email", "password_hash", "created_at", "updated_at"}))

	user, err := repo.FindByEmail(context.Background(), "nobody@b.c")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_FindByUUID(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE uuid = $1`)).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("u-1", "a@b.c", "hash", now, now))

	user, err := repo.FindByUUID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestUserRepository_UpdatePassword_Error(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash = $2`)).
		WithArgs("u-1", "new").
		WillReturnError(errors.New("conn reset"))

	err := repo.UpdatePassword(context.Background(), "u-1", "new")
	assert.Error(t, err)
}
