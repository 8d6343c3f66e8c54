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

type RotationRepository struct {
	*config.Database
}

func NewRotationRepository(database *config.Database) *RotationRepository {
	return &RotationRepository{database}
}

// Insert сохраняет факт погашения refresh токена.
// Возвращает false, если jti уже был погашен: первичный ключ пропускает
// только одну из конкурентных вставок.
func (r *RotationRepository) Insert(ctx context.Context, record *model.TokenRotationRecord) (bool, error) {
	query := `INSERT INTO token_rotations (jti, user_uuid, token_family, parent_jti, child_jti, created_at, used_at, expires_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (jti) DO NOTHING
	`

	result, err := r.DB.ExecContext(ctx, query,
		record.JTI,
		record.UserUUID,
		record.TokenFamily,
		record.ParentJTI,
		record.ChildJTI,
		record.CreatedAt,
		record.UsedAt,
		record.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, util.LogError("[RotationRepo] ошибка вставки данных в БД", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[RotationRepo] не удалось проверить вставку", err)
	}

	return rowsAffected == 1, nil
}

// FindByJTI : nil, nil если токен ещё не погашен
func (r *RotationRepository) FindByJTI(ctx context.Context, jti string) (*model.TokenRotationRecord, error) {
	query := `SELECT jti, user_uuid, token_family, parent_jti, child_jti, created_at, used_at, expires_at
				FROM token_rotations WHERE jti = $1`

	var record model.TokenRotationRecord
	err := sqlx.GetContext(ctx, r.DB, &record, query, jti)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[RotationRepo] ошибка при выполнении запроса", err)
	}

	return &record, nil
}

// ListByFamily : история семейства, новые записи первыми
func (r *RotationRepository) ListByFamily(ctx context.Context, family string) ([]model.TokenRotationRecord, error) {
	query := `SELECT jti, user_uuid, token_family, parent_jti, child_jti, created_at, used_at, expires_at
				FROM token_rotations WHERE token_family = $1
				ORDER BY created_at DESC`

	var records []model.TokenRotationRecord
	if err := sqlx.SelectContext(ctx, r.DB, &records, query, family); err != nil {
		return nil, util.LogError("[RotationRepo] не удалось получить семейство токенов", err)
	}

	return records, nil
}

func (r *RotationRepository) DeleteByUser(ctx context.Context, userUUID string) (int64, error) {
	return execCount(ctx, r.DB, "[RotationRepo] ошибка удаления истории пользователя",
		`DELETE FROM token_rotations WHERE user_uuid = $1`, userUUID)
}

func (r *RotationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return execCount(ctx, r.DB, "[RotationRepo] ошибка очистки истории ротаций",
		`DELETE FROM token_rotations WHERE expires_at < $1`, now)
}
