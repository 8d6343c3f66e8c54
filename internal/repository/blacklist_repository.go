package repository

import (
	"auth-session-server/config"
	"auth-session-server/internal/model"
	"auth-session-server/internal/util"
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type BlacklistRepository struct {
	*config.Database
}

func NewBlacklistRepository(database *config.Database) *BlacklistRepository {
	return &BlacklistRepository{database}
}

// Add : повторный отзыв того же jti ничего не меняет
func (r *BlacklistRepository) Add(ctx context.Context, entry *model.BlacklistEntry) error {
	query := `INSERT INTO token_blacklist (jti, user_uuid, token_type, expires_at, revoked_at, reason)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (jti) DO NOTHING
	`

	_, err := r.DB.ExecContext(ctx, query,
		entry.JTI,
		entry.UserUUID,
		entry.TokenType,
		entry.ExpiresAt,
		entry.RevokedAt,
		entry.Reason,
	)
	if err != nil {
		return util.LogError("[BlacklistRepo] ошибка вставки в blacklist", err)
	}

	return nil
}

func (r *BlacklistRepository) Exists(ctx context.Context, jti string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE jti = $1)`
	if err := sqlx.GetContext(ctx, r.DB, &exists, query, jti); err != nil {
		return false, util.LogError("[BlacklistRepo] ошибка проверки jti", err)
	}
	return exists, nil
}

// DeleteExpired : запись больше не нужна, когда токен истёк сам
func (r *BlacklistRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return execCount(ctx, r.DB, "[BlacklistRepo] ошибка очистки blacklist",
		`DELETE FROM token_blacklist WHERE expires_at < $1`, now)
}

// execCount выполняет запрос и возвращает число затронутых строк
func execCount(ctx context.Context, exec sqlx.ExecerContext, message, query string, args ...any) (int64, error) {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, util.LogError(message, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError(message, err)
	}

	return rowsAffected, nil
}
