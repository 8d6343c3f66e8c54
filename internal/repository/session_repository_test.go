package repository

import (
	"auth-session-server/internal/model"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionRowColumns = []string{
	"id", "user_uuid", "refresh_token_jti", "token_family",
	"device_type", "device_name", "browser", "browser_version", "os", "os_version",
	"ip_address", "country", "city", "user_agent",
	"created_at", "last_activity", "expires_at", "revoked_at", "revoke_reason",
}

func sessionRow(rows *sqlmock.Rows, id, jti string, now time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "u-1", jti, "fam-1",
		"mobile", "iPhone", "Safari", "17.2", "iOS", "17.2",
		"10.0.0.1", "DE", nil, "Mozilla/5.0",
		now, now, now.Add(time.Hour), nil, nil)
}

func TestSessionRepository_Create(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewSessionRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_sessions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.UserSession{
		ID:              "s-1",
		UserUUID:        "u-1",
		RefreshTokenJTI: "r1",
		TokenFamily:     "fam-1",
		IPAddress:       "10.0.0.1",
		CreatedAt:       now,
		LastActivity:    now,
		ExpiresAt:       now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_FindActiveByRefreshJTI(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewSessionRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE refresh_token_jti = $1 AND revoked_at IS NULL AND expires_at > $2`)).
		WithArgs("r1", now).
		WillReturnRows(sessionRow(sqlmock.NewRows(sessionRowColumns), "s-1", "r1", now))

	session, err := repo.FindActiveByRefreshJTI(context.Background(), "r1", now)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "s-1", session.ID)
	assert.Equal(t, "iPhone", *session.DeviceName)
	assert.Nil(t, session.City)
	assert.True(t, session.IsActive(now))
}

func TestSessionRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM user_sessions WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns))

	session, err := repo.FindByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, session)
}

func TestSessionRepository_ListActive(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewSessionRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(sessionRowColumns)
	sessionRow(rows, "s-1", "r1", now)
	sessionRow(rows, "s-2", "r7", now)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_uuid = $1 AND revoked_at IS NULL`)).
		WithArgs("u-1", now).
		WillReturnRows(rows)

	sessions, err := repo.ListActive(context.Background(), "u-1", now)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSessionRepository_Rotate(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewSessionRepository(db)
	now := time.Now()
	exp := now.Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`SET refresh_token_jti = $3`)).
		WithArgs("s-1", "r1", "r2", exp, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SET refresh_token_jti = $3`)).
		WithArgs("s-1", "r1", "r3", exp, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Rotate(context.Background(), "s-1", "r1", "r2", exp, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Rotate(context.Background(), "s-1", "r1", "r3", exp, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRepository_Revoke_Idempotent(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewSessionRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND revoked_at IS NULL`)).
		WithArgs("s-1", now, model.RevokeReasonUserAction).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND revoked_at IS NULL`)).
		WithArgs("s-1", now, model.RevokeReasonUserAction).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.Revoke(context.Background(), "s-1", model.RevokeReasonUserAction, now)
	require.NoError(t, err)
	second, err := repo.Revoke(context.Background(), "s-1", model.RevokeReasonUserAction, now)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestSessionRepository_RevokeAllByUser(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewSessionRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`WHERE user_uuid = $1 AND revoked_at IS NULL AND id <> $4`)).
		WithArgs("u-1", now, model.RevokeReasonSignOutOthers, "s-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	revoked, err := repo.RevokeAllByUser(context.Background(), "u-1", model.RevokeReasonSignOutOthers, "s-1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)
}
