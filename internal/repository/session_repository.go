package repository

import (
	"auth-session-server/config"
	"auth-session-server/internal/model"
	"auth-session-server/internal/util"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const sessionColumns = `id, user_uuid, refresh_token_jti, token_family,
	device_type, device_name, browser, browser_version, os, os_version,
	ip_address, country, city, user_agent,
	created_at, last_activity, expires_at, revoked_at, revoke_reason`

type SessionRepository struct {
	*config.Database
}

func NewSessionRepository(database *config.Database) *SessionRepository {
	return &SessionRepository{database}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.UserSession) error {
	query := `INSERT INTO user_sessions (` + sessionColumns + `)
	VALUES (:id, :user_uuid, :refresh_token_jti, :token_family,
		:device_type, :device_name, :browser, :browser_version, :os, :os_version,
		:ip_address, :country, :city, :user_agent,
		:created_at, :last_activity, :expires_at, :revoked_at, :revoke_reason)`

	if _, err := r.DB.NamedExecContext(ctx, query, session); err != nil {
		return util.LogError("[SessionRepo] ошибка вставки сессии", err)
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*model.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindActiveByRefreshJTI : сессия, у которой refresh_token_jti совпадает с
// текущей вершиной цепочки ротаций
func (r *SessionRepository) FindActiveByRefreshJTI(ctx context.Context, jti string, now time.Time) (*model.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE refresh_token_jti = $1 AND revoked_at IS NULL AND expires_at > $2`
	return r.findOne(ctx, query, jti, now)
}

func (r *SessionRepository) ListActive(ctx context.Context, userUUID string, now time.Time) ([]model.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE user_uuid = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY last_activity DESC`
	return r.list(ctx, query, userUUID, now)
}

// ListSince : все сессии пользователя, включая закрытые, начиная с since
func (r *SessionRepository) ListSince(ctx context.Context, userUUID string, since time.Time) ([]model.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE user_uuid = $1 AND created_at >= $2
		ORDER BY created_at DESC`
	return r.list(ctx, query, userUUID, since)
}

// Rotate сдвигает вершину сессии на новый refresh jti, только если она
// всё ещё указывает на oldJTI
func (r *SessionRepository) Rotate(ctx context.Context, id, oldJTI, newJTI string, expiresAt, now time.Time) (bool, error) {
	query := `UPDATE user_sessions
		SET refresh_token_jti = $3, expires_at = $4, last_activity = $5
		WHERE id = $1 AND refresh_token_jti = $2 AND revoked_at IS NULL`

	updated, err := execCount(ctx, r.DB, "[SessionRepo] ошибка ротации сессии", query, id, oldJTI, newJTI, expiresAt, now)
	if err != nil {
		return false, err
	}
	return updated == 1, nil
}

func (r *SessionRepository) TouchActivity(ctx context.Context, refreshJTI string, now time.Time) error {
	query := `UPDATE user_sessions SET last_activity = $2
		WHERE refresh_token_jti = $1 AND revoked_at IS NULL`
	_, err := execCount(ctx, r.DB, "[SessionRepo] ошибка обновления активности", query, refreshJTI, now)
	return err
}

// Revoke : true только для первого отзыва
func (r *SessionRepository) Revoke(ctx context.Context, id, reason string, now time.Time) (bool, error) {
	query := `UPDATE user_sessions SET revoked_at = $2, revoke_reason = $3
		WHERE id = $1 AND revoked_at IS NULL`

	updated, err := execCount(ctx, r.DB, "[SessionRepo] ошибка отзыва сессии", query, id, now, reason)
	if err != nil {
		return false, err
	}
	return updated > 0, nil
}

// RevokeAllByUser : exceptID пустой, если закрыть нужно все сессии
func (r *SessionRepository) RevokeAllByUser(ctx context.Context, userUUID, reason, exceptID string, now time.Time) (int64, error) {
	query := `UPDATE user_sessions SET revoked_at = $2, revoke_reason = $3
		WHERE user_uuid = $1 AND revoked_at IS NULL AND id <> $4`

	return execCount(ctx, r.DB, "[SessionRepo] ошибка отзыва сессий пользователя", query, userUUID, now, reason, exceptID)
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return execCount(ctx, r.DB, "[SessionRepo] ошибка очистки сессий",
		`DELETE FROM user_sessions WHERE expires_at < $1`, now)
}

func (r *SessionRepository) findOne(ctx context.Context, query string, args ...any) (*model.UserSession, error) {
	var session model.UserSession
	err := sqlx.GetContext(ctx, r.DB, &session, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[SessionRepo] ошибка при выполнении запроса", err)
	}
	return &session, nil
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]model.UserSession, error) {
	var sessions []model.UserSession
	if err := sqlx.SelectContext(ctx, r.DB, &sessions, query, args...); err != nil {
		return nil, util.LogError("[SessionRepo] не удалось получить список сессий", err)
	}
	return sessions, nil
}
