package repository

import (
	"auth-session-server/config"
	"auth-session-server/internal/util"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ExternalSessionRepository читает хранилище сессий внешнего провайдера
// идентификации. Сервис его только читает, запись делает провайдер.
type ExternalSessionRepository struct {
	*config.Database
	now func() time.Time
}

func NewExternalSessionRepository(database *config.Database) *ExternalSessionRepository {
	return &ExternalSessionRepository{Database: database, now: time.Now}
}

// ResolveSession : UUID пользователя или пустая строка, если сессии нет или она истекла
func (r *ExternalSessionRepository) ResolveSession(ctx context.Context, sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", nil
	}

	query := `SELECT user_uuid FROM external_sessions WHERE session_token = $1 AND expires_at > $2`

	var userUUID string
	err := sqlx.GetContext(ctx, r.DB, &userUUID, query, sessionToken, r.now())
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", util.LogError("[ExternalSessionRepo] ошибка поиска внешней сессии", err)
	}

	return userUUID, nil
}
