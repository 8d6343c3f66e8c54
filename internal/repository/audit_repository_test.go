package repository

import (
	"auth-session-server/internal/model"
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var auditRowColumns = []string{"id", "event_type", "success", "user_uuid", "ip_address", "user_agent", "event_data", "error_message", "created_at"}

func TestAuditRepository_Insert_EmptyDataIsObject(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewAuditRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO auth_audit_log`)).
		WithArgs("a-1", model.AuditLoginFailed, false, nil, "1.2.3.4", "curl", "{}", nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), &model.AuditLogEntry{
		ID:        "a-1",
		EventType: model.AuditLoginFailed,
		IPAddress: "1.2.3.4",
		UserAgent: "curl",
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_Insert_KeepsEventData(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewAuditRepository(db)
	user := "u-1"

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO auth_audit_log`)).
		WithArgs("a-2", model.AuditLogin, true, &user, "", "", `{"session_id":"s-1"}`, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), &model.AuditLogEntry{
		ID:        "a-2",
		EventType: model.AuditLogin,
		Success:   true,
		UserUUID:  &user,
		EventData: json.RawMessage(`{"session_id":"s-1"}`),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestAuditRepository_CountFailuresByIP(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewAuditRepository(db)
	since := time.Now().Add(-15 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE ip_address = $1 AND event_type = $2 AND success = FALSE AND created_at >= $3`)).
		WithArgs("1.2.3.4", "login_failed", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountFailuresByIP(context.Background(), "1.2.3.4", since)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestAuditRepository_ListRecentByUser(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewAuditRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_uuid = $1 AND created_at >= $2`)).
		WithArgs("u-1", now.Add(-time.Hour), 10).
		WillReturnRows(sqlmock.NewRows(auditRowColumns).
			AddRow("a-1", "login_failed", false, "u-1", "1.2.3.4", "curl", []byte(`{}`), "bad password", now))

	entries, err := repo.ListRecentByUser(context.Background(), "u-1", now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditLoginFailed, entries[0].EventType)
	assert.Equal(t, "bad password", *entries[0].ErrorMessage)
	assert.JSONEq(t, `{}`, string(entries[0].EventData))
}

func TestAuditRepository_DeleteByIDs(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewAuditRepository(db)

	deleted, err := repo.DeleteByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM auth_audit_log WHERE id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err = repo.DeleteByIDs(context.Background(), []string{"a-1", "a-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
